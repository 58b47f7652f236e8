package tui

import (
	"context"
	"errors"
	"io"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"

	"github.com/evanschultz/kanstart/internal/domain"
	"github.com/evanschultz/kanstart/internal/localize"
	"github.com/evanschultz/kanstart/internal/onboarding"
	"github.com/evanschultz/kanstart/internal/template"
)

// Service stores the boards the onboarding flow produces.
type Service interface {
	Consume(context.Context, template.Type, <-chan template.Board) (domain.BoardTree, error)
	CreateDefaultBoard(context.Context) (domain.BoardTree, error)
}

// screen identifies the active top-level view.
type screen int

// screenPicker and related constants enumerate views in flow order.
const (
	screenPicker screen = iota
	screenOnboarding
	screenDone
)

// maxChainedEvents bounds the follow-up events one input may cause.
const maxChainedEvents = 256

// errNoService reports a model built without a board service.
var errNoService = errors.New("no board service configured")

// clockTickMsg asks the session to settle timers that came due.
type clockTickMsg struct{}

// boardSavedMsg carries the result of storing a board.
type boardSavedMsg struct {
	tree domain.BoardTree
	err  error
}

// clipboardMsg carries pasted text for a field.
type clipboardMsg struct {
	field onboarding.Field
	text  string
	err   error
}

// Model is the onboarding terminal UI.
type Model struct {
	svc       Service
	provider  template.Provider
	templates []template.Template

	keys keyMap
	help help.Model
	md   *markdownRenderer

	logger        *log.Logger
	limits        onboarding.Limits
	layout        LayoutConfig
	recorderFor   func(template.Type) onboarding.Recorder
	now           func() time.Time
	readClipboard func() (string, error)
	startKind     template.Type

	ready  bool
	width  int
	height int
	err    error
	status string

	screen      screen
	pickerIndex int

	kind        template.Type
	board       template.Board
	session     *onboarding.Session
	out         onboarding.Outputs
	trait       onboarding.Trait
	boardInput  textinput.Model
	listInputs  []textinput.Model
	cardInputs  []textinput.Model
	focused     onboarding.Field
	hasFocus    bool
	replaceNext bool
	scroll      int
	saving      bool

	tree *domain.BoardTree
}

// NewModel constructs the picker model, or the onboarding model when a template is preset.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:           svc,
		provider:      template.NewProvider(localize.English()),
		keys:          newKeyMap(),
		help:          h,
		md:            &markdownRenderer{},
		logger:        log.New(io.Discard),
		limits:        onboarding.DefaultLimits(),
		layout:        DefaultLayoutConfig(),
		now:           time.Now,
		readClipboard: systemClipboard,
		status:        "ready",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.templates = m.provider.Templates()
	if m.startKind != "" {
		if err := m.startOnboarding(m.startKind); err != nil {
			m.err = err
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(max(0, msg.Width-2))
		if m.session == nil {
			m.trait = m.traitFor(msg.Width)
			return m, nil
		}
		events := []onboarding.Event{onboarding.ViewportResized{Width: float64(msg.Width), Height: float64(msg.Height)}}
		if trait := m.traitFor(msg.Width); trait != m.trait {
			m.trait = trait
			events = append(events, onboarding.TraitChanged{Trait: trait})
		}
		m.resizeInputs()
		c := m.runEvents(events...)
		return m, c

	case clockTickMsg:
		c := m.runEvents(onboarding.ClockTicked{Now: m.now()})
		return m, c

	case boardSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("save onboarding board failed", "template", m.kind, "err", msg.err)
			return m, nil
		}
		tree := msg.tree
		m.tree = &tree
		m.screen = screenDone
		m.status = "board created"
		m.logger.Info("onboarding board stored", "board", tree.Board.ID, "lists", len(tree.Lists), "cards", tree.CardCount())
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.status = "paste failed: " + msg.err.Error()
			return m, nil
		}
		if !m.hasFocus || m.focused != msg.field {
			return m, nil
		}
		in := m.inputFor(msg.field)
		text := in.Value() + msg.text
		if m.replaceNext {
			text = msg.text
			m.replaceNext = false
		}
		c := m.runEvents(onboarding.EditChanged{Field: msg.field, Text: text})
		return m, c

	case tea.KeyPressMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m, tea.Quit
		}
		switch m.screen {
		case screenPicker:
			return m.handlePickerKey(msg)
		case screenOnboarding:
			if m.hasFocus {
				return m.handleEditingKey(msg)
			}
			return m.handleOnboardingKey(msg)
		default:
			return m.handleDoneKey(msg)
		}

	default:
		if m.hasFocus {
			c := m.updateFocusedInput(msg)
			return m, c
		}
		return m, nil
	}
}

// traitFor maps a terminal width to a size class.
func (m Model) traitFor(width int) onboarding.Trait {
	if width > 0 && width < m.layout.CompactBreakpoint {
		return onboarding.Compact
	}
	return onboarding.Regular
}

// startOnboarding opens a session over the chosen template.
func (m *Model) startOnboarding(kind template.Type) error {
	tpl, err := m.provider.Template(kind)
	if err != nil {
		return err
	}
	m.trait = m.traitFor(m.width)
	opts := []onboarding.Option{
		onboarding.WithLayout(m.layout.sessionLayout()),
		onboarding.WithLimits(m.limits),
		onboarding.WithCharmLogger(m.logger),
		onboarding.WithLocalizer(m.loc()),
		onboarding.WithClock(m.now),
		onboarding.WithEnvironment(onboarding.Environment{
			Width:  float64(m.width),
			Height: float64(m.height),
			Trait:  m.trait,
		}),
	}
	if m.recorderFor != nil {
		opts = append(opts, onboarding.WithRecorder(m.recorderFor(kind)))
	}
	m.kind = kind
	m.board = tpl.Board
	m.session = onboarding.New(tpl.Board, onboarding.CountsFor(tpl.Board), opts...)
	m.buildInputs()
	m.out = m.session.Outputs()
	m.syncInputs()
	m.screen = screenOnboarding
	m.status = "ready"
	m.logger.Debug("onboarding started", "template", kind)
	return nil
}

// buildInputs creates one text input per session field.
func (m *Model) buildInputs() {
	m.boardInput = newFieldInput(m.board.Name(), "")
	m.listInputs = make([]textinput.Model, 0, len(m.board.Lists))
	m.cardInputs = make([]textinput.Model, 0, m.board.CardCount())
	for _, l := range m.board.Lists {
		m.listInputs = append(m.listInputs, newFieldInput(l.Name(), ""))
		for _, c := range l.Cards {
			m.cardInputs = append(m.cardInputs, newFieldInput("", c.Placeholder))
		}
	}
	m.hasFocus = false
	m.replaceNext = false
	m.resizeInputs()
}

// newFieldInput constructs a prompt-less input. Length limits are enforced by the session.
func newFieldInput(value, placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = 0
	in.SetValue(value)
	return in
}

// resizeInputs fits inputs to the current list column width.
func (m *Model) resizeInputs() {
	w := m.listColumnWidth() - 4
	if w < 8 {
		w = 8
	}
	m.boardInput.SetWidth(w * 2)
	for i := range m.listInputs {
		m.listInputs[i].SetWidth(w)
	}
	for i := range m.cardInputs {
		m.cardInputs[i].SetWidth(w)
	}
}

// inputFor returns the input bound to f, or nil when f is out of range.
func (m *Model) inputFor(f onboarding.Field) *textinput.Model {
	switch f.Kind {
	case onboarding.BoardField:
		return &m.boardInput
	case onboarding.ListField:
		if f.Index >= 0 && f.Index < len(m.listInputs) {
			return &m.listInputs[f.Index]
		}
	case onboarding.CardField:
		if f.Index >= 0 && f.Index < len(m.cardInputs) {
			return &m.cardInputs[f.Index]
		}
	}
	return nil
}

// runEvents dispatches events and performs the effects they return.
func (m *Model) runEvents(events ...onboarding.Event) tea.Cmd {
	if m.session == nil {
		return nil
	}
	queue := append([]onboarding.Event(nil), events...)
	var cmds []tea.Cmd
	for n := 0; len(queue) > 0; n++ {
		if n >= maxChainedEvents {
			m.logger.Warn("onboarding event chain truncated", "pending", len(queue))
			break
		}
		ev := queue[0]
		queue = queue[1:]
		for _, eff := range m.session.Dispatch(ev) {
			switch eff := eff.(type) {
			case onboarding.FocusRequested:
				next, cmd := m.setFocus(eff.Field, eff.Focused)
				queue = append(queue, next...)
				cmds = append(cmds, cmd)
			case onboarding.SelectAllRequested:
				if m.hasFocus && m.focused == eff.Field {
					m.replaceNext = true
				}
			case onboarding.SubmitFocusedRequested:
				if m.hasFocus {
					queue = append(queue, onboarding.EditSubmitted{Field: m.focused})
				}
			case onboarding.TickRequested:
				cmds = append(cmds, m.tickCmd(eff.At))
			case onboarding.ContentOffsetReset:
				m.scroll = 0
			case onboarding.BoardCompleted:
				m.logger.Debug("onboarding board ready", "template", m.kind, "board", eff.Board.Name())
				cmds = append(cmds, m.saveCmd(m.session.Completed()))
			}
		}
	}
	m.out = m.session.Outputs()
	m.syncInputs()
	return tea.Batch(cmds...)
}

// setFocus moves terminal focus and returns the edit and keyboard events it implies.
func (m *Model) setFocus(f onboarding.Field, on bool) ([]onboarding.Event, tea.Cmd) {
	rows := float64(m.layout.KeyboardRows)
	if !on {
		if !m.hasFocus || m.focused != f {
			return nil, nil
		}
		if in := m.inputFor(f); in != nil {
			in.Blur()
		}
		m.hasFocus = false
		m.replaceNext = false
		return []onboarding.Event{onboarding.EditEnded{Field: f}, onboarding.KeyboardChanged{Height: 0}}, nil
	}
	if m.hasFocus && m.focused == f {
		return nil, nil
	}
	in := m.inputFor(f)
	if in == nil {
		return nil, nil
	}
	var events []onboarding.Event
	wasEditing := m.hasFocus
	if wasEditing {
		if prev := m.inputFor(m.focused); prev != nil {
			prev.Blur()
		}
		events = append(events, onboarding.EditEnded{Field: m.focused})
	}
	cmd := in.Focus()
	in.CursorEnd()
	m.focused = f
	m.hasFocus = true
	m.replaceNext = false
	events = append(events, onboarding.EditBegan{Field: f})
	if !wasEditing {
		events = append(events, onboarding.KeyboardChanged{Height: rows})
	}
	return events, cmd
}

// syncInputs copies displayed names into inputs, undoing rejected edits.
func (m *Model) syncInputs() {
	set := func(in *textinput.Model, value string) {
		if in.Value() != value {
			in.SetValue(value)
			in.CursorEnd()
		}
	}
	set(&m.boardInput, m.out.BoardName)
	for i := range m.listInputs {
		if i < len(m.out.ListNames) {
			set(&m.listInputs[i], m.out.ListNames[i])
		}
	}
	for i := range m.cardInputs {
		if i < len(m.out.CardTitles) {
			set(&m.cardInputs[i], m.out.CardTitles[i])
		}
	}
}

// tickCmd schedules a clock tick for at.
func (m Model) tickCmd(at time.Time) tea.Cmd {
	d := at.Sub(m.now())
	if d < 0 {
		d = 0
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clockTickMsg{}
	})
}

// saveCmd hands the session's completion channel to the board service.
func (m *Model) saveCmd(completed <-chan template.Board) tea.Cmd {
	m.saving = true
	m.status = "saving board..."
	svc, kind := m.svc, m.kind
	return func() tea.Msg {
		if svc == nil {
			return boardSavedMsg{err: errNoService}
		}
		tree, err := svc.Consume(context.Background(), kind, completed)
		return boardSavedMsg{tree: tree, err: err}
	}
}

// createDefaultCmd stores the default board without onboarding.
func (m *Model) createDefaultCmd() tea.Cmd {
	m.saving = true
	m.status = "creating board..."
	svc := m.svc
	return func() tea.Msg {
		if svc == nil {
			return boardSavedMsg{err: errNoService}
		}
		tree, err := svc.CreateDefaultBoard(context.Background())
		return boardSavedMsg{tree: tree, err: err}
	}
}

// pasteCmd reads the clipboard for f.
func (m Model) pasteCmd(f onboarding.Field) tea.Cmd {
	read := m.readClipboard
	return func() tea.Msg {
		text, err := read()
		return clipboardMsg{field: f, text: text, err: err}
	}
}

// handlePickerKey handles template picker keys.
func (m Model) handlePickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	rows := len(m.templates) + 1
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.pickerIndex = wrapIndex(m.pickerIndex, -1, rows)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.pickerIndex = wrapIndex(m.pickerIndex, 1, rows)
		return m, nil
	case key.Matches(msg, m.keys.skipToBoard):
		c := m.createDefaultCmd()
		return m, c
	case key.Matches(msg, m.keys.choose):
		if m.pickerIndex >= len(m.templates) {
			c := m.createDefaultCmd()
			return m, c
		}
		if err := m.startOnboarding(m.templates[m.pickerIndex].Type); err != nil {
			m.err = err
		}
		return m, nil
	default:
		return m, nil
	}
}

// handleOnboardingKey handles onboarding keys while no field is focused.
func (m Model) handleOnboardingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.overlayGo):
		c := m.tapGo()
		return m, c
	case key.Matches(msg, m.keys.overlaySkip):
		if m.out.OverlayStep == onboarding.DescribeCreate {
			return m, nil
		}
		c := m.runEvents(onboarding.SkipTapped{Overlay: m.out.OverlayStep})
		return m, c
	case key.Matches(msg, m.keys.rightNav):
		c := m.tapRightNav()
		return m, c
	case key.Matches(msg, m.keys.nextField), key.Matches(msg, m.keys.prevField):
		f, ok := m.phaseField()
		if !ok {
			m.status = "press enter to continue"
			return m, nil
		}
		events, cmd := m.setFocus(f, true)
		c := tea.Batch(cmd, m.runEvents(events...))
		return m, c
	case key.Matches(msg, m.keys.scrollUp):
		m.scroll = max(0, m.scroll-1)
		return m, nil
	case key.Matches(msg, m.keys.scrollDown):
		m.scroll++
		return m, nil
	default:
		return m, nil
	}
}

// handleEditingKey handles keys while a field is focused.
func (m Model) handleEditingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	f := m.focused
	switch {
	case key.Matches(msg, m.keys.submit):
		c := m.runEvents(onboarding.EditSubmitted{Field: f})
		return m, c
	case key.Matches(msg, m.keys.endEdit):
		events, cmd := m.setFocus(f, false)
		c := tea.Batch(cmd, m.runEvents(events...))
		return m, c
	case key.Matches(msg, m.keys.rightNav):
		c := m.tapRightNav()
		return m, c
	case key.Matches(msg, m.keys.nextField), key.Matches(msg, m.keys.prevField):
		delta := 1
		if key.Matches(msg, m.keys.prevField) {
			delta = -1
		}
		next, ok := m.siblingField(f, delta)
		if !ok {
			return m, nil
		}
		events, cmd := m.setFocus(next, true)
		c := tea.Batch(cmd, m.runEvents(events...))
		return m, c
	case key.Matches(msg, m.keys.paste):
		return m, m.pasteCmd(f)
	case key.Matches(msg, m.keys.selectAll):
		m.replaceNext = true
		return m, nil
	default:
		c := m.updateFocusedInput(msg)
		return m, c
	}
}

// updateFocusedInput forwards msg to the focused input and reports text changes.
func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	in := m.inputFor(m.focused)
	if in == nil {
		return nil
	}
	if kp, ok := msg.(tea.KeyPressMsg); ok && m.replaceNext {
		m.replaceNext = false
		if kp.Text != "" {
			in.SetValue("")
		}
	}
	before := in.Value()
	updated, cmd := in.Update(msg)
	*in = updated
	if updated.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, m.runEvents(onboarding.EditChanged{Field: m.focused, Text: updated.Value()}))
}

// handleDoneKey handles completion screen keys.
func (m Model) handleDoneKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.choose):
		return m, tea.Quit
	default:
		return m, nil
	}
}

// tapGo taps the current overlay's go button when it is enabled.
func (m *Model) tapGo() tea.Cmd {
	overlay := m.out.OverlayStep
	if !m.goEnabled(overlay) {
		return nil
	}
	return m.runEvents(onboarding.GoTapped{Overlay: overlay})
}

// goEnabled reports whether the go button on overlay still responds.
func (m Model) goEnabled(overlay onboarding.OverlayStep) bool {
	switch overlay {
	case onboarding.DescribeBoard:
		return m.out.BoardGoEnabled
	case onboarding.DescribeList:
		return m.out.ListGoEnabled
	case onboarding.DescribeCard:
		return m.out.CardGoEnabled
	default:
		return true
	}
}

// tapRightNav taps whichever right navigation button is showing.
func (m *Model) tapRightNav() tea.Cmd {
	switch {
	case !m.out.EditingButtonHidden:
		return m.runEvents(onboarding.EditingButtonTapped{})
	case !m.out.SkipButtonHidden:
		return m.runEvents(onboarding.RightNavSkipTapped{})
	default:
		return nil
	}
}

// phaseField returns the first field of the group currently being named.
func (m Model) phaseField() (onboarding.Field, bool) {
	switch m.out.Accessibility.Target {
	case onboarding.AccessBoardField:
		return onboarding.BoardNameField(), true
	case onboarding.AccessListFields:
		return onboarding.ListNameField(0), len(m.listInputs) > 0
	case onboarding.AccessCardFields:
		return onboarding.CardTitleField(0), m.out.EditableCards > 0 && m.out.CardFieldsEnabled
	default:
		return onboarding.Field{}, false
	}
}

// siblingField returns the neighbor of f within its group. Cards past the first list are skipped.
func (m Model) siblingField(f onboarding.Field, delta int) (onboarding.Field, bool) {
	var count int
	switch f.Kind {
	case onboarding.ListField:
		count = len(m.listInputs)
	case onboarding.CardField:
		count = min(len(m.cardInputs), m.out.EditableCards)
	default:
		return onboarding.Field{}, false
	}
	next := f.Index + delta
	if next < 0 || next >= count {
		return onboarding.Field{}, false
	}
	return onboarding.Field{Kind: f.Kind, Index: next}, true
}

// Tree returns the stored board once onboarding finished.
func (m Model) Tree() (domain.BoardTree, bool) {
	if m.tree == nil {
		return domain.BoardTree{}, false
	}
	return *m.tree, true
}

// wrapIndex wraps current by delta within total.
func wrapIndex(current int, delta int, total int) int {
	if total <= 0 {
		return 0
	}
	next := (current + delta) % total
	if next < 0 {
		next += total
	}
	return next
}

// loc returns the string catalog for labels.
func (m Model) loc() template.Localizer {
	if m.provider.Localizer == nil {
		return localize.English()
	}
	return m.provider.Localizer
}
