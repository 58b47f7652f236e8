// Package onboarding drives the guided board naming flow.
//
// A Session consumes view events one at a time and returns the effects the
// view must perform. Timers are modeled as TickRequested effects answered by
// ClockTicked events, so the session never starts goroutines.
package onboarding

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/kanstart/internal/localize"
	"github.com/evanschultz/kanstart/internal/template"
)

// Localizer resolves catalog keys into display strings.
type Localizer = template.Localizer

// Logger receives session diagnostics.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
}

// Recorder receives product analytics events.
type Recorder interface {
	OverlaySeen(step OverlayStep)
	ButtonTapped(button Button)
	NameTyped(field Field)
	BoardCreated(board template.Board)
}

// Clock returns the current time.
type Clock func() time.Time

// charmLogger adapts a charm logger to Logger.
type charmLogger struct {
	l *log.Logger
}

// Debug logs a debug event.
func (c charmLogger) Debug(msg string, keyvals ...any) {
	c.l.Debug(msg, keyvals...)
}

// Info logs an info event.
func (c charmLogger) Info(msg string, keyvals ...any) {
	c.l.Info(msg, keyvals...)
}

// Warn logs a warning event.
func (c charmLogger) Warn(msg string, keyvals ...any) {
	c.l.Warn(msg, keyvals...)
}

// nopRecorder discards analytics.
type nopRecorder struct{}

// OverlaySeen discards the event.
func (nopRecorder) OverlaySeen(OverlayStep) {}

// ButtonTapped discards the event.
func (nopRecorder) ButtonTapped(Button) {}

// NameTyped discards the event.
func (nopRecorder) NameTyped(Field) {}

// BoardCreated discards the event.
func (nopRecorder) BoardCreated(template.Board) {}

// Option configures a Session.
type Option func(*Session)

// WithCharmLogger sets a charm logger as the diagnostics logger.
func WithCharmLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = charmLogger{l: logger}
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used to schedule timers.
func WithClock(clock Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLayout sets spacing constants.
func WithLayout(layout Layout) Option {
	return func(s *Session) {
		s.layout = layout
	}
}

// WithLimits sets validation and debounce limits.
func WithLimits(limits Limits) Option {
	return func(s *Session) {
		if limits.MaxChars > 0 {
			s.limits.MaxChars = limits.MaxChars
		}
		if limits.Debounce > 0 {
			s.limits.Debounce = limits.Debounce
		}
	}
}

// WithRecorder sets the analytics sink.
func WithRecorder(recorder Recorder) Option {
	return func(s *Session) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithEnvironment sets the initial viewport, size class, and keyboard height.
func WithEnvironment(env Environment) Option {
	return func(s *Session) {
		s.env = env
	}
}

// WithLocalizer sets the string catalog for button labels.
func WithLocalizer(loc Localizer) Option {
	return func(s *Session) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// debounced is a value waiting for its quiet period to elapse.
type debounced[T any] struct {
	value   T
	due     time.Time
	pending bool
}

// Session is one run of the onboarding flow over a template board.
type Session struct {
	board    template.Board
	counts   FieldCounts
	logger   Logger
	clock    Clock
	layout   Layout
	limits   Limits
	recorder Recorder
	loc      Localizer

	env    Environment
	failed map[Source]bool

	steps progression

	boardField *fieldState
	listFields []*fieldState
	cardFields []*fieldState

	editingText string

	kbUpRaw     bool
	kbUp        bool
	kbUpPending debounced[bool]
	bottom      float64
	bottomNext  debounced[float64]
	resetOffset bool

	seenOverlays map[OverlayStep]bool
	tapped       map[Button]bool

	done      bool
	completed chan template.Board
}

// New starts a session over a private copy of board. It panics when counts do
// not match the board, since every later index would be wrong.
func New(board template.Board, counts FieldCounts, opts ...Option) *Session {
	if want := CountsFor(board); want != counts {
		panic(fmt.Sprintf("onboarding: field counts %+v do not match template %+v", counts, want))
	}
	s := &Session{
		board:        board.Clone(),
		counts:       counts,
		logger:       charmLogger{l: log.New(io.Discard)},
		clock:        time.Now,
		layout:       DefaultLayout(),
		limits:       DefaultLimits(),
		recorder:     nopRecorder{},
		failed:       map[Source]bool{},
		seenOverlays: map[OverlayStep]bool{},
		tapped:       map[Button]bool{},
		completed:    make(chan template.Board, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.loc == nil {
		s.loc = localize.English()
	}
	s.steps = progression{counts: counts, cards: EditableCards(s.board), flow: Begin, overlay: DescribeBoard}
	s.boardField = newFieldState(s.board.DefaultName)
	s.listFields = make([]*fieldState, 0, counts.Lists)
	for _, l := range s.board.Lists {
		s.listFields = append(s.listFields, newFieldState(l.DefaultName))
	}
	s.cardFields = make([]*fieldState, 0, counts.Cards)
	for i := 0; i < counts.Cards; i++ {
		s.cardFields = append(s.cardFields, newFieldState(""))
	}
	s.kbUpRaw = KeyboardUpInCompact(s.env.Keyboard, s.env.Trait)
	s.kbUp = s.kbUpRaw
	s.bottom = BoardBottom(s.env.Keyboard, s.layout)
	s.markOverlaySeen(DescribeBoard)
	return s
}

// Board returns the session's working copy of the template board.
func (s *Session) Board() template.Board {
	return s.board.Clone()
}

// Counts returns the field counts the session was built with.
func (s *Session) Counts() FieldCounts {
	return s.counts
}

// FlowStep returns the current flow step.
func (s *Session) FlowStep() FlowStep {
	return s.steps.flow
}

// OverlayStep returns the current overlay step.
func (s *Session) OverlayStep() OverlayStep {
	return s.steps.overlay
}

// Completed returns a channel that yields the customized board once and then closes.
func (s *Session) Completed() <-chan template.Board {
	return s.completed
}

// Dispatch applies one event and returns the effects the view should perform, in order.
func (s *Session) Dispatch(ev Event) []Effect {
	if ev == nil {
		return nil
	}
	var effects []Effect
	switch ev := ev.(type) {
	case ViewportResized:
		if s.failed[SourceViewport] {
			return nil
		}
		s.env.Width, s.env.Height = ev.Width, ev.Height
		return nil
	case TraitChanged:
		if s.failed[SourceTrait] {
			return nil
		}
		s.env.Trait = ev.Trait
		return s.keyboardSignalChanged()
	case KeyboardChanged:
		if s.failed[SourceKeyboard] {
			return nil
		}
		return s.keyboardChanged(ev.Height)
	case ClockTicked:
		return s.tick(ev.Now)
	case SourceFailed:
		return s.sourceFailed(ev)
	case EditingButtonTapped:
		s.markTapped(ButtonEditing)
		return []Effect{SubmitFocusedRequested{}}
	}

	if f, ok := EventField(ev); ok && !s.counts.Contains(f) {
		panic(fmt.Sprintf("onboarding: %T addresses unwired field %s (counts %+v)", ev, f, s.counts))
	}

	preFlow := s.steps.flow
	s.recordTaps(ev)
	s.applyText(ev, preFlow)
	effects = append(effects, s.applyEditFlags(ev)...)
	effects = append(effects, s.focusEffects(ev, preFlow)...)

	t := triggersFor(ev)
	if n := s.steps.advanceFlow(t); n > 0 {
		s.logger.Debug("onboarding flow advanced", "from", preFlow, "to", s.steps.flow, "event", fmt.Sprintf("%T", ev))
		effects = append(effects, s.flowAdvanced(preFlow)...)
	}
	preOverlay := s.steps.overlay
	if s.steps.advanceOverlay(t) {
		s.logger.Debug("onboarding overlay advanced", "from", preOverlay, "to", s.steps.overlay)
		s.markOverlaySeen(s.steps.overlay)
	}
	return effects
}

// field returns the state for f, or nil when f is out of range.
func (s *Session) field(f Field) *fieldState {
	switch f.Kind {
	case BoardField:
		return s.boardField
	case ListField:
		if f.Index >= 0 && f.Index < len(s.listFields) {
			return s.listFields[f.Index]
		}
	case CardField:
		if f.Index >= 0 && f.Index < len(s.cardFields) {
			return s.cardFields[f.Index]
		}
	}
	return nil
}

// applyText runs the field validators for ev.
func (s *Session) applyText(ev Event, preFlow FlowStep) {
	switch ev := ev.(type) {
	case EditChanged:
		if s.failed[SourceText] {
			return
		}
		if !s.field(ev.Field).change(ev.Text, s.limits.MaxChars) {
			s.logger.Debug("onboarding edit rejected", "field", ev.Field, "length", textLength(ev.Text), "max", s.limits.MaxChars)
		}
	case EditEnded:
		fs := s.field(ev.Field)
		if !s.failed[SourceText] && fs.typed() {
			s.recorder.NameTyped(ev.Field)
		}
		fs.end()
	}
	t := triggersFor(ev)
	if t.skippedKind(BoardField) && preFlow < FinishBoardNaming {
		s.boardField.revert()
	}
	if t.skippedKind(ListField) && preFlow < FinishListNaming {
		for _, fs := range s.listFields {
			fs.revert()
		}
	}
	if t.skippedKind(CardField) && preFlow < FinishCardNaming {
		for _, fs := range s.cardFields {
			fs.revert()
		}
	}
}

// applyEditFlags updates select-all, active borders, and the editing button label.
func (s *Session) applyEditFlags(ev Event) []Effect {
	switch ev := ev.(type) {
	case EditBegan:
		fs := s.field(ev.Field)
		fs.active = true
		s.editingText = s.editingLabel(ev.Field)
		if !fs.selected {
			fs.selected = true
			return []Effect{SelectAllRequested{Field: ev.Field}}
		}
	case EditEnded:
		s.field(ev.Field).active = false
		s.editingText = ""
	case EditSubmitted:
		s.field(ev.Field).active = false
	}
	return nil
}

// editingLabel returns the navigation label shown while f is being edited.
func (s *Session) editingLabel(f Field) string {
	done := s.loc.String("default_board_list_done")
	switch f.Kind {
	case ListField:
		if f.Index == s.counts.Lists-1 {
			return done
		}
		return s.loc.String("next_list_button")
	case CardField:
		if f.Index == s.steps.lastIndex(CardField) {
			return done
		}
		return s.loc.String("next_card_button")
	default:
		return done
	}
}

// focusEffects computes focus changes. Blurs come before focuses so the view
// never holds two focused fields.
func (s *Session) focusEffects(ev Event, step FlowStep) []Effect {
	var blur, focus []Effect
	set := func(f Field, on bool) {
		if on {
			focus = append(focus, FocusRequested{Field: f, Focused: true})
			return
		}
		blur = append(blur, FocusRequested{Field: f, Focused: false})
	}
	switch ev := ev.(type) {
	case GoTapped:
		switch ev.Overlay {
		case DescribeBoard:
			set(BoardNameField(), true)
		case DescribeList:
			for i := range s.listFields {
				set(ListNameField(i), i == 0)
			}
		case DescribeCard:
			for i := range s.cardFields {
				set(CardTitleField(i), i == 0 && s.steps.cards > 0)
			}
		}
	case SkipTapped, RightNavSkipTapped:
		t := triggersFor(ev)
		if t.skippedKind(BoardField) {
			set(BoardNameField(), false)
		}
		if t.skippedKind(ListField) {
			for i := range s.listFields {
				set(ListNameField(i), false)
			}
		}
		if t.skippedKind(CardField) {
			for i := range s.cardFields {
				set(CardTitleField(i), false)
			}
		}
	case EditSubmitted:
		set(ev.Field, false)
		switch ev.Field.Kind {
		case BoardField:
			if len(s.listFields) > 0 {
				set(ListNameField(0), step == NameLists || step == FinishListNaming)
			}
			if s.steps.cards > 0 {
				set(CardTitleField(0), step == NameCards)
			}
		case ListField:
			if next := ev.Field.Index + 1; next < len(s.listFields) {
				set(ListNameField(next), true)
			} else if s.steps.cards > 0 {
				set(CardTitleField(0), step == NameCards)
			}
		case CardField:
			if next := ev.Field.Index + 1; next < s.steps.cards {
				set(CardTitleField(next), true)
			}
		}
	}
	return append(blur, focus...)
}

// flowAdvanced handles the side effects of a flow step change.
func (s *Session) flowAdvanced(from FlowStep) []Effect {
	var effects []Effect
	to := s.steps.flow
	if zeroesContentOffset(to) && !s.resetOffset {
		s.resetOffset = true
		effects = append(effects, TickRequested{At: s.clock()})
	}
	if to == CreateBoard && from != CreateBoard {
		if board, ok := s.materialize(); ok {
			effects = append(effects, BoardCompleted{Board: board})
		}
	}
	return effects
}

// keyboardChanged records a keyboard height and schedules the debounced outputs.
func (s *Session) keyboardChanged(height float64) []Effect {
	s.env.Keyboard = height
	due := s.clock().Add(s.limits.Debounce)
	s.bottomNext = debounced[float64]{value: BoardBottom(height, s.layout), due: due, pending: true}
	effects := []Effect{TickRequested{At: due}}
	return append(effects, s.keyboardSignalChanged()...)
}

// keyboardSignalChanged recomputes the keyboard-over-compact condition and debounces distinct changes.
func (s *Session) keyboardSignalChanged() []Effect {
	raw := KeyboardUpInCompact(s.env.Keyboard, s.env.Trait)
	if raw == s.kbUpRaw {
		return nil
	}
	s.kbUpRaw = raw
	due := s.clock().Add(s.limits.Debounce)
	s.kbUpPending = debounced[bool]{value: raw, due: due, pending: true}
	return []Effect{TickRequested{At: due}}
}

// tick settles timers that are due at now.
func (s *Session) tick(now time.Time) []Effect {
	var effects []Effect
	if s.resetOffset {
		s.resetOffset = false
		effects = append(effects, ContentOffsetReset{})
	}
	if s.kbUpPending.pending && !now.Before(s.kbUpPending.due) {
		s.kbUp = s.kbUpPending.value
		s.kbUpPending.pending = false
	}
	if s.bottomNext.pending && !now.Before(s.bottomNext.due) {
		s.bottom = s.bottomNext.value
		s.bottomNext.pending = false
	}
	return effects
}

// sourceFailed degrades the outputs fed by a failing source to neutral values.
func (s *Session) sourceFailed(ev SourceFailed) []Effect {
	if s.failed[ev.Source] {
		return nil
	}
	s.logger.Warn("onboarding input source failed", "source", ev.Source, "err", ev.Err)
	var effects []Effect
	switch ev.Source {
	case SourceViewport:
		s.env.Width, s.env.Height = 0, 0
	case SourceTrait:
		s.env.Trait = Regular
		effects = s.keyboardSignalChanged()
	case SourceKeyboard:
		effects = s.keyboardChanged(0)
	}
	s.failed[ev.Source] = true
	return effects
}

// recordTaps reports first taps of tracked buttons.
func (s *Session) recordTaps(ev Event) {
	switch ev := ev.(type) {
	case GoTapped:
		if b, ok := goButtons[ev.Overlay]; ok {
			s.markTapped(b)
		}
	case SkipTapped:
		if b, ok := skipButtons[ev.Overlay]; ok {
			s.markTapped(b)
		}
	case RightNavSkipTapped:
		s.markTapped(ButtonRightNavSkip)
	}
}

// markTapped records a button the first time it is tapped.
func (s *Session) markTapped(b Button) {
	if s.tapped[b] {
		return
	}
	s.tapped[b] = true
	s.recorder.ButtonTapped(b)
}

// markOverlaySeen records an overlay the first time it shows.
func (s *Session) markOverlaySeen(step OverlayStep) {
	if s.seenOverlays[step] {
		return
	}
	s.seenOverlays[step] = true
	s.recorder.OverlaySeen(step)
}

// Outputs returns the current derived view state.
func (s *Session) Outputs() Outputs {
	step := s.steps.flow
	overlay := s.steps.overlay
	out := Outputs{
		FlowStep:            step,
		OverlayStep:         overlay,
		BoardName:           s.boardField.display,
		ListNames:           make([]string, len(s.listFields)),
		CardTitles:          make([]string, len(s.cardFields)),
		OverlayOffset:       OverlayOffset(overlay, s.env.Width),
		KeyboardUpInCompact: s.kbUp,
		BoardGoEnabled:      BoardGoEnabled(step),
		ListGoEnabled:       ListGoEnabled(step),
		CardGoEnabled:       CardGoEnabled(step),
		BoardActive:         s.boardField.active,
		ListActive:          make([]bool, len(s.listFields)),
		CardActive:          make([]bool, len(s.cardFields)),
		BoardHint:           BoardHint(step),
		FirstListHint:       FirstListHint(step),
		FirstCardHint:       FirstCardHint(step),
		ListFieldsVisible:   ListFieldsVisible(step),
		ListHidesCards:      make([]bool, len(s.listFields)),
		CardFieldsEnabled:   CardFieldsEnabled(step),
		EditableCards:       s.steps.cards,
		CompactUIHidden:     s.env.Trait != Compact,
		BoardLeading:        BoardLeading(s.env.Trait, s.layout),
		BoardBottom:         s.bottom,
		BoardZoomedOut:      BoardZoomedOut(s.env.Trait, step),
		EditingButtonText:   s.editingText,
		EditingButtonHidden: s.editingText == "",
		SkipButtonText:      SkipButtonLabel(step, s.loc),
		Accessibility:       AccessibilityFor(step),
		Completed:           s.done,
	}
	out.RegularUIHidden = !out.CompactUIHidden
	out.SkipButtonHidden = SkipButtonHidden(step, out.EditingButtonHidden)
	for i, fs := range s.listFields {
		out.ListNames[i] = fs.display
		out.ListActive[i] = fs.active
		out.ListHidesCards[i] = ListHidesCards(i, step)
	}
	for i, fs := range s.cardFields {
		out.CardTitles[i] = fs.display
		out.CardActive[i] = fs.active
	}
	for _, o := range OverlaySteps() {
		out.OverlayOpacity = append(out.OverlayOpacity, OverlayOpacity(o, overlay, s.kbUp))
		out.GoLabels = append(out.GoLabels, s.loc.String(o.GoLabelKey()))
	}
	return out
}
