package onboarding

import "fmt"

// FlowStep is the overall onboarding progress. It only moves forward.
type FlowStep int

// Begin and related constants enumerate the flow in order.
const (
	Begin FlowStep = iota
	NameBoard
	FinishBoardNaming
	NameLists
	FinishListNaming
	NameCards
	FinishCardNaming
	CreateBoard
)

// flowStepNames stores stable step names.
var flowStepNames = [...]string{
	Begin:             "begin",
	NameBoard:         "nameBoard",
	FinishBoardNaming: "finishBoardNaming",
	NameLists:         "nameLists",
	FinishListNaming:  "finishListNaming",
	NameCards:         "nameCards",
	FinishCardNaming:  "finishCardNaming",
	CreateBoard:       "createBoard",
}

// FlowSteps returns every flow step in order.
func FlowSteps() []FlowStep {
	out := make([]FlowStep, 0, len(flowStepNames))
	for i := range flowStepNames {
		out = append(out, FlowStep(i))
	}
	return out
}

// Next returns the following step. CreateBoard is absorbing.
func (s FlowStep) Next() FlowStep {
	if s >= CreateBoard {
		return CreateBoard
	}
	return s + 1
}

// Ordinal returns the zero-based position of the step.
func (s FlowStep) Ordinal() int {
	return int(s)
}

// String returns the step name.
func (s FlowStep) String() string {
	if s < Begin || s > CreateBoard {
		return fmt.Sprintf("FlowStep(%d)", int(s))
	}
	return flowStepNames[s]
}

// ParseFlowStep resolves a step name.
func ParseFlowStep(raw string) (FlowStep, bool) {
	for i, name := range flowStepNames {
		if name == raw {
			return FlowStep(i), true
		}
	}
	return Begin, false
}

// OverlayStep selects the explanatory overlay on screen.
type OverlayStep int

// DescribeBoard and related constants enumerate overlays in order.
const (
	DescribeBoard OverlayStep = iota
	DescribeList
	DescribeCard
	DescribeCreate
)

// overlayStepNames stores stable overlay names.
var overlayStepNames = [...]string{
	DescribeBoard:  "describeBoard",
	DescribeList:   "describeList",
	DescribeCard:   "describeCard",
	DescribeCreate: "createBoard",
}

// OverlaySteps returns every overlay step in order.
func OverlaySteps() []OverlayStep {
	return []OverlayStep{DescribeBoard, DescribeList, DescribeCard, DescribeCreate}
}

// Next returns the following overlay. DescribeCreate is absorbing.
func (s OverlayStep) Next() OverlayStep {
	if s >= DescribeCreate {
		return DescribeCreate
	}
	return s + 1
}

// Ordinal returns the zero-based position of the overlay.
func (s OverlayStep) Ordinal() int {
	return int(s)
}

// String returns the overlay name.
func (s OverlayStep) String() string {
	if s < DescribeBoard || s > DescribeCreate {
		return fmt.Sprintf("OverlayStep(%d)", int(s))
	}
	return overlayStepNames[s]
}

// ParseOverlayStep resolves an overlay name.
func ParseOverlayStep(raw string) (OverlayStep, bool) {
	for i, name := range overlayStepNames {
		if name == raw {
			return OverlayStep(i), true
		}
	}
	return DescribeBoard, false
}

// GoLabelKey returns the catalog key for the overlay's go button.
func (s OverlayStep) GoLabelKey() string {
	switch s {
	case DescribeBoard:
		return "overlay_name_your_board"
	case DescribeList:
		return "overlay_name_your_lists"
	case DescribeCard:
		return "overlay_add_cards"
	default:
		return "overlay_go_to_board"
	}
}
