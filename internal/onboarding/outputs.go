package onboarding

import "time"

// Layout holds the spacing constants the derived offsets use.
type Layout struct {
	GridUnit            float64
	OverlayRegularWidth float64
}

// DefaultLayout returns point-based spacing.
func DefaultLayout() Layout {
	return Layout{GridUnit: 8, OverlayRegularWidth: 300}
}

// Limits holds validation and timing limits.
type Limits struct {
	MaxChars int
	Debounce time.Duration
}

// DefaultLimits returns the standard limits.
func DefaultLimits() Limits {
	return Limits{MaxChars: 35, Debounce: 200 * time.Millisecond}
}

// Environment is the initial viewport, size class, and keyboard state.
type Environment struct {
	Width    float64
	Height   float64
	Trait    Trait
	Keyboard float64
}

// AccessibilityTarget names the control group that owns assistive focus.
type AccessibilityTarget int

// AccessOverlay and related constants enumerate focus groups.
const (
	AccessOverlay AccessibilityTarget = iota
	AccessBoardField
	AccessListFields
	AccessCardFields
)

// String returns the target name.
func (a AccessibilityTarget) String() string {
	switch a {
	case AccessBoardField:
		return "board_field"
	case AccessListFields:
		return "list_fields"
	case AccessCardFields:
		return "card_fields"
	default:
		return "overlay"
	}
}

// Accessibility describes which controls receive exclusive assistive focus.
type Accessibility struct {
	Target     AccessibilityTarget
	Overlay    OverlayStep
	IncludeNav bool
}

// AccessibilityFor maps a flow step to its assistive focus group.
func AccessibilityFor(step FlowStep) Accessibility {
	switch step {
	case Begin:
		return Accessibility{Target: AccessOverlay, Overlay: DescribeBoard}
	case NameBoard:
		return Accessibility{Target: AccessBoardField, IncludeNav: true}
	case FinishBoardNaming:
		return Accessibility{Target: AccessOverlay, Overlay: DescribeList}
	case NameLists:
		return Accessibility{Target: AccessListFields, IncludeNav: true}
	case FinishListNaming:
		return Accessibility{Target: AccessOverlay, Overlay: DescribeCard}
	case NameCards:
		return Accessibility{Target: AccessCardFields, IncludeNav: true}
	default:
		return Accessibility{Target: AccessOverlay, Overlay: DescribeCreate}
	}
}

// OverlayOffset returns the horizontal offset of the overlay strip.
func OverlayOffset(step OverlayStep, width float64) float64 {
	if width <= 0 || step.Ordinal() == 0 {
		return 0
	}
	return -float64(step.Ordinal()) * width
}

// OverlayOpacity returns the opacity of overlay when current is on screen.
func OverlayOpacity(overlay, current OverlayStep, keyboardUpInCompact bool) float64 {
	if keyboardUpInCompact || overlay != current {
		return 0
	}
	return 1
}

// KeyboardUpInCompact reports the undebounced keyboard-over-compact condition.
func KeyboardUpInCompact(keyboard float64, trait Trait) bool {
	return keyboard > 0 && trait == Compact
}

// BoardGoEnabled reports whether the board overlay go button still works.
func BoardGoEnabled(step FlowStep) bool {
	return step <= Begin
}

// ListGoEnabled reports whether the list overlay go button still works.
func ListGoEnabled(step FlowStep) bool {
	return step < NameLists
}

// CardGoEnabled reports whether the card overlay go button still works.
func CardGoEnabled(step FlowStep) bool {
	return step < NameCards
}

// BoardHint reports whether the board field shows the hint border.
func BoardHint(step FlowStep) bool {
	return step == Begin
}

// FirstListHint reports whether the first list field shows the hint border.
func FirstListHint(step FlowStep) bool {
	return step == FinishBoardNaming || step == NameLists
}

// FirstCardHint reports whether the first card field shows the hint border.
func FirstCardHint(step FlowStep) bool {
	return step == FinishListNaming || step == NameCards
}

// ListFieldsVisible reports whether list name fields are shown.
func ListFieldsVisible(step FlowStep) bool {
	return step >= FinishBoardNaming
}

// ListHidesCards reports whether the list at index hides its cards.
func ListHidesCards(index int, step FlowStep) bool {
	if index == 0 {
		return false
	}
	return step >= FinishListNaming
}

// CardFieldsEnabled reports whether card title fields accept input.
func CardFieldsEnabled(step FlowStep) bool {
	return step >= FinishListNaming
}

// BoardLeading returns the board's leading margin for a size class.
func BoardLeading(trait Trait, layout Layout) float64 {
	if trait != Compact {
		return layout.OverlayRegularWidth + 2*layout.GridUnit
	}
	return layout.GridUnit
}

// BoardBottom returns the board's bottom offset above the keyboard.
func BoardBottom(keyboard float64, layout Layout) float64 {
	return -(keyboard + layout.GridUnit)
}

// BoardZoomedOut reports whether the compact board shrinks to show its lists.
func BoardZoomedOut(trait Trait, step FlowStep) bool {
	return trait == Compact && step == FinishBoardNaming
}

// SkipButtonLabelKey returns the catalog key for the navigation skip button.
func SkipButtonLabelKey(step FlowStep) string {
	switch step {
	case Begin, FinishBoardNaming, FinishListNaming:
		return "skip_button"
	default:
		return "finish_button"
	}
}

// SkipButtonLabel returns the localized navigation skip button label.
func SkipButtonLabel(step FlowStep, loc Localizer) string {
	return loc.String(SkipButtonLabelKey(step))
}

// SkipButtonHidden reports whether the navigation skip button is hidden.
// It never shows while the editing button does.
func SkipButtonHidden(step FlowStep, editingButtonHidden bool) bool {
	if !editingButtonHidden {
		return true
	}
	switch step {
	case Begin, FinishBoardNaming, FinishListNaming, FinishCardNaming:
		return false
	default:
		return true
	}
}

// zeroesContentOffset reports whether reaching step resets the board scroll.
func zeroesContentOffset(step FlowStep) bool {
	return step == FinishBoardNaming || step == FinishListNaming || step == FinishCardNaming
}

// Outputs is the full derived state the view layer binds to.
type Outputs struct {
	FlowStep    FlowStep
	OverlayStep OverlayStep

	BoardName  string
	ListNames  []string
	CardTitles []string

	OverlayOffset       float64
	OverlayOpacity      []float64
	KeyboardUpInCompact bool
	GoLabels            []string

	BoardGoEnabled bool
	ListGoEnabled  bool
	CardGoEnabled  bool

	BoardActive bool
	ListActive  []bool
	CardActive  []bool

	BoardHint     bool
	FirstListHint bool
	FirstCardHint bool

	ListFieldsVisible bool
	ListHidesCards    []bool
	CardFieldsEnabled bool
	EditableCards     int

	CompactUIHidden bool
	RegularUIHidden bool
	BoardLeading    float64
	BoardBottom     float64
	BoardZoomedOut  bool

	EditingButtonText   string
	EditingButtonHidden bool
	SkipButtonText      string
	SkipButtonHidden    bool

	Accessibility Accessibility
	Completed     bool
}
