package onboarding

import (
	"fmt"
	"time"

	"github.com/evanschultz/kanstart/internal/template"
)

// FieldKind identifies which group a text field belongs to.
type FieldKind int

// BoardField and related constants enumerate field groups.
const (
	BoardField FieldKind = iota
	ListField
	CardField
)

// String returns the field kind name.
func (k FieldKind) String() string {
	switch k {
	case BoardField:
		return "board"
	case ListField:
		return "list"
	case CardField:
		return "card"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Field addresses one text field. Card indexes are flat across lists.
type Field struct {
	Kind  FieldKind
	Index int
}

// BoardNameField returns the board name field.
func BoardNameField() Field {
	return Field{Kind: BoardField}
}

// ListNameField returns the list name field at index.
func ListNameField(index int) Field {
	return Field{Kind: ListField, Index: index}
}

// CardTitleField returns the card title field at the flat index.
func CardTitleField(index int) Field {
	return Field{Kind: CardField, Index: index}
}

// String returns a compact field label.
func (f Field) String() string {
	if f.Kind == BoardField {
		return "board"
	}
	return fmt.Sprintf("%s[%d]", f.Kind, f.Index)
}

// FieldCounts declares how many list and card fields the view layer wired.
type FieldCounts struct {
	Lists int
	Cards int
}

// Contains reports whether f addresses a field within these counts.
func (c FieldCounts) Contains(f Field) bool {
	switch f.Kind {
	case BoardField:
		return f.Index == 0
	case ListField:
		return f.Index >= 0 && f.Index < c.Lists
	case CardField:
		return f.Index >= 0 && f.Index < c.Cards
	default:
		return false
	}
}

// EventField returns the field an edit event addresses.
func EventField(ev Event) (Field, bool) {
	switch ev := ev.(type) {
	case EditBegan:
		return ev.Field, true
	case EditChanged:
		return ev.Field, true
	case EditEnded:
		return ev.Field, true
	case EditSubmitted:
		return ev.Field, true
	default:
		return Field{}, false
	}
}

// CountsFor returns the field counts a board template requires.
func CountsFor(board template.Board) FieldCounts {
	return FieldCounts{Lists: len(board.Lists), Cards: board.CardCount()}
}

// EditableCards returns how many leading flat card fields the card phase names.
// Only the first list's cards are named; the rest stay disabled placeholders.
func EditableCards(board template.Board) int {
	if len(board.Lists) == 0 {
		return 0
	}
	return len(board.Lists[0].Cards)
}

// Trait is the horizontal size class of the viewport.
type Trait int

// Regular and Compact enumerate size classes.
const (
	Regular Trait = iota
	Compact
)

// String returns the trait name.
func (t Trait) String() string {
	if t == Compact {
		return "compact"
	}
	return "regular"
}

// Source names an upstream input that can fail.
type Source string

// SourceViewport and related constants enumerate failing sources.
const (
	SourceViewport Source = "viewport"
	SourceTrait    Source = "trait"
	SourceKeyboard Source = "keyboard"
	SourceText     Source = "text"
)

// Event is one input from the view layer.
type Event interface {
	event()
}

// EditBegan reports that a field gained focus.
type EditBegan struct{ Field Field }

// EditChanged reports the proposed text of a field after a keystroke or paste.
type EditChanged struct {
	Field Field
	Text  string
}

// EditEnded reports that a field lost focus.
type EditEnded struct{ Field Field }

// EditSubmitted reports the return key on a field.
type EditSubmitted struct{ Field Field }

// GoTapped reports a tap on an overlay's go button.
type GoTapped struct{ Overlay OverlayStep }

// SkipTapped reports a tap on an overlay's skip button.
type SkipTapped struct{ Overlay OverlayStep }

// RightNavSkipTapped reports a tap on the navigation bar skip/finish button.
type RightNavSkipTapped struct{}

// EditingButtonTapped reports a tap on the navigation bar next/done button.
type EditingButtonTapped struct{}

// ViewportResized reports a new viewport size.
type ViewportResized struct{ Width, Height float64 }

// TraitChanged reports a new size class.
type TraitChanged struct{ Trait Trait }

// KeyboardChanged reports the current keyboard height.
type KeyboardChanged struct{ Height float64 }

// ClockTicked reports that time has passed, settling pending timers.
type ClockTicked struct{ Now time.Time }

// SourceFailed reports that an upstream input stopped producing values.
type SourceFailed struct {
	Source Source
	Err    error
}

func (EditBegan) event()           {}
func (EditChanged) event()         {}
func (EditEnded) event()           {}
func (EditSubmitted) event()       {}
func (GoTapped) event()            {}
func (SkipTapped) event()          {}
func (RightNavSkipTapped) event()  {}
func (EditingButtonTapped) event() {}
func (ViewportResized) event()     {}
func (TraitChanged) event()        {}
func (KeyboardChanged) event()     {}
func (ClockTicked) event()         {}
func (SourceFailed) event()        {}

// Effect is one instruction for the view layer.
type Effect interface {
	effect()
}

// FocusRequested asks the view to focus or blur a field.
type FocusRequested struct {
	Field   Field
	Focused bool
}

// SelectAllRequested asks the view to select all text in a field.
type SelectAllRequested struct{ Field Field }

// SubmitFocusedRequested asks the view to submit whichever field holds focus.
type SubmitFocusedRequested struct{}

// TickRequested asks the host to deliver ClockTicked at or after At.
type TickRequested struct{ At time.Time }

// ContentOffsetReset asks the view to scroll the board back to its origin.
type ContentOffsetReset struct{}

// BoardCompleted carries the customized board. It is emitted once.
type BoardCompleted struct{ Board template.Board }

func (FocusRequested) effect()         {}
func (SelectAllRequested) effect()     {}
func (SubmitFocusedRequested) effect() {}
func (TickRequested) effect()          {}
func (ContentOffsetReset) effect()     {}
func (BoardCompleted) effect()         {}

// Button identifies a tappable control for analytics.
type Button string

// ButtonBoardGo and related constants enumerate tracked buttons.
const (
	ButtonBoardGo      Button = "board_go"
	ButtonListGo       Button = "list_go"
	ButtonCardGo       Button = "card_go"
	ButtonCreateGo     Button = "create_go"
	ButtonBoardSkip    Button = "board_skip"
	ButtonListSkip     Button = "list_skip"
	ButtonCardSkip     Button = "card_skip"
	ButtonRightNavSkip Button = "right_nav_skip"
	ButtonEditing      Button = "editing"
)

// goButtons maps overlays to their go buttons.
var goButtons = map[OverlayStep]Button{
	DescribeBoard:  ButtonBoardGo,
	DescribeList:   ButtonListGo,
	DescribeCard:   ButtonCardGo,
	DescribeCreate: ButtonCreateGo,
}

// skipButtons maps overlays to their skip buttons.
var skipButtons = map[OverlayStep]Button{
	DescribeBoard: ButtonBoardSkip,
	DescribeList:  ButtonListSkip,
	DescribeCard:  ButtonCardSkip,
}
