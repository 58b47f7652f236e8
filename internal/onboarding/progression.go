package onboarding

// triggers are the progression inputs carried by a single event.
type triggers struct {
	began    *Field
	ended    *Field
	skipped  [3]bool
	createGo bool
}

// skippedKind reports whether the skip for a field group fired.
func (t triggers) skippedKind(kind FieldKind) bool {
	if kind < BoardField || kind > CardField {
		return false
	}
	return t.skipped[kind]
}

// triggersFor extracts the progression inputs of one event.
func triggersFor(ev Event) triggers {
	var t triggers
	switch ev := ev.(type) {
	case EditBegan:
		f := ev.Field
		t.began = &f
	case EditEnded:
		f := ev.Field
		t.ended = &f
	case GoTapped:
		t.createGo = ev.Overlay == DescribeCreate
	case SkipTapped:
		if kind, ok := overlayKind(ev.Overlay); ok {
			t.skipped[kind] = true
		}
	case RightNavSkipTapped:
		t.skipped = [3]bool{true, true, true}
		t.createGo = true
	}
	return t
}

// overlayKind maps a naming overlay to the field group it describes.
func overlayKind(step OverlayStep) (FieldKind, bool) {
	switch step {
	case DescribeBoard:
		return BoardField, true
	case DescribeList:
		return ListField, true
	case DescribeCard:
		return CardField, true
	default:
		return 0, false
	}
}

// flowPhase returns the field group whose signals drive step, or false once naming is done.
func flowPhase(step FlowStep) (FieldKind, bool) {
	switch step {
	case Begin, NameBoard:
		return BoardField, true
	case FinishBoardNaming, NameLists:
		return ListField, true
	case FinishListNaming, NameCards:
		return CardField, true
	default:
		return 0, false
	}
}

// awaitingBegin reports whether the phase still needs its first edit.
func awaitingBegin(step FlowStep) bool {
	switch step {
	case Begin, FinishBoardNaming, FinishListNaming:
		return true
	default:
		return false
	}
}

// progression holds both step machines. Only the active phase listens, so one
// event advances at most one phase.
type progression struct {
	counts  FieldCounts
	cards   int
	flow    FlowStep
	overlay OverlayStep
}

// lastIndex returns the index of the final field in a group, or -1 when empty.
// The card group ends with the first list's cards; later lists only illustrate.
func (p *progression) lastIndex(kind FieldKind) int {
	switch kind {
	case BoardField:
		return 0
	case ListField:
		return p.counts.Lists - 1
	case CardField:
		return p.cards - 1
	default:
		return -1
	}
}

// isLast reports whether f is the last field of kind.
func (p *progression) isLast(f *Field, kind FieldKind) bool {
	if f == nil || f.Kind != kind {
		return false
	}
	last := p.lastIndex(kind)
	return last >= 0 && f.Index == last
}

// advanceFlow applies t to the flow step and returns the number of steps taken.
func (p *progression) advanceFlow(t triggers) int {
	start := p.flow
	if start == CreateBoard {
		return 0
	}
	kind, naming := flowPhase(start)
	if !naming {
		if t.createGo {
			p.flow = start.Next()
			return 1
		}
		return 0
	}
	steps := 0
	switch {
	case t.skippedKind(kind):
		// A skip stays remembered for the rest of its phase and satisfies every remaining stage.
		steps = 1
		if awaitingBegin(start) {
			steps = 2
		}
	case awaitingBegin(start):
		if t.began != nil && t.began.Kind == kind {
			steps = 1
		}
	default:
		if p.isLast(t.ended, kind) {
			steps = 1
		}
	}
	for i := 0; i < steps; i++ {
		p.flow = p.flow.Next()
	}
	return steps
}

// advanceOverlay applies t to the overlay step and reports whether it moved.
func (p *progression) advanceOverlay(t triggers) bool {
	start := p.overlay
	kind, naming := overlayKind(start)
	if !naming {
		return false
	}
	if t.skippedKind(kind) || p.isLast(t.ended, kind) {
		p.overlay = start.Next()
		return p.overlay != start
	}
	return false
}
