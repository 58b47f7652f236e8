package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/kanstart/internal/domain"
	"github.com/evanschultz/kanstart/internal/localize"
	"github.com/evanschultz/kanstart/internal/onboarding"
	"github.com/evanschultz/kanstart/internal/template"
)

// fakeService records stored boards.
type fakeService struct {
	mu       sync.Mutex
	created  []template.Board
	kinds    []template.Type
	defaults int
	err      error
}

// Consume receives the completed board, records it, and returns a tree mirroring its names.
func (f *fakeService) Consume(ctx context.Context, kind template.Type, completed <-chan template.Board) (domain.BoardTree, error) {
	var board template.Board
	select {
	case <-ctx.Done():
		return domain.BoardTree{}, ctx.Err()
	case b, ok := <-completed:
		if !ok {
			return domain.BoardTree{}, errors.New("completion channel closed")
		}
		board = b
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.BoardTree{}, f.err
	}
	f.created = append(f.created, board)
	f.kinds = append(f.kinds, kind)
	return treeFor(board, string(kind)), nil
}

// CreateDefaultBoard records a default board request.
func (f *fakeService) CreateDefaultBoard(context.Context) (domain.BoardTree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.BoardTree{}, f.err
	}
	f.defaults++
	return treeFor(template.NewProvider(localize.English()).DefaultBoard(), "default"), nil
}

// treeFor builds a stored tree from a template board.
func treeFor(board template.Board, kind string) domain.BoardTree {
	tree := domain.BoardTree{Board: domain.Board{ID: "b1", Name: board.Name(), Template: kind, Background: board.Background.BackgroundKey()}}
	for i, l := range board.Lists {
		lt := domain.ListTree{List: domain.List{ID: "l", BoardID: "b1", Name: l.Name(), Position: i}}
		for j, c := range l.Cards {
			if c.CustomName == nil {
				continue
			}
			lt.Cards = append(lt.Cards, domain.Card{ID: "c", BoardID: "b1", Position: j, Title: *c.CustomName})
		}
		tree.Lists = append(tree.Lists, lt)
	}
	return tree
}

// testClock is a manually advanced clock.
type testClock struct {
	now time.Time
}

// Now returns the current fake time.
func (c *testClock) Now() time.Time {
	return c.now
}

// press builds a key press for a single printable rune.
func press(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// ctrl builds a ctrl-modified key press.
func ctrl(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

// update applies msg and returns the concrete model and command.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out, cmd
}

// typeText sends one key press per rune.
func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, press(r))
	}
	return m
}

// collect runs cmd and every nested batch, returning messages of the package's own types.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out []tea.Msg
	)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		defer wg.Done()
		if c == nil {
			return
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, inner := range batch {
				wg.Add(1)
				go run(inner)
			}
			return
		}
		switch msg.(type) {
		case boardSavedMsg, clipboardMsg, clockTickMsg:
			mu.Lock()
			out = append(out, msg)
			mu.Unlock()
		}
	}
	wg.Add(1)
	go run(cmd)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out running commands")
	}
	return out
}

// deliver runs cmd and feeds back the messages of the given type.
func deliver[T tea.Msg](t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(t, cmd) {
		if _, ok := msg.(T); ok {
			m, _ = update(t, m, msg)
		}
	}
	return m
}

// newOnboardingModel starts onboarding for manage-a-project at the given size.
func newOnboardingModel(t *testing.T, svc *fakeService, width int, opts ...Option) Model {
	t.Helper()
	all := append([]Option{WithTemplate(template.ManageProject)}, opts...)
	m := NewModel(svc, all...)
	if m.err != nil {
		t.Fatalf("NewModel() error = %v", m.err)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: width, Height: 40})
	return m
}

func TestPickerChoosesTemplate(t *testing.T) {
	m := NewModel(&fakeService{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.screen != screenPicker {
		t.Fatalf("expected picker screen, got %v", m.screen)
	}
	m, _ = update(t, m, press('j'))
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.screen != screenOnboarding || m.kind != template.TrackGoal {
		t.Fatalf("expected trackGoal onboarding, got screen=%v kind=%q", m.screen, m.kind)
	}
	if m.out.FlowStep != onboarding.Begin {
		t.Fatalf("expected begin step, got %v", m.out.FlowStep)
	}
}

func TestPickerWrapsAndSkipsToBoard(t *testing.T) {
	svc := &fakeService{}
	m := NewModel(svc)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, press('k'))
	if m.pickerIndex != len(m.templates) {
		t.Fatalf("expected wrap to skip row, got %d", m.pickerIndex)
	}
	m, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	m = deliver[boardSavedMsg](t, m, cmd)
	if svc.defaults != 1 {
		t.Fatalf("expected one default board, got %d", svc.defaults)
	}
	tree, ok := m.Tree()
	if m.screen != screenDone || !ok || tree.Board.Name != "My Board" {
		t.Fatalf("unexpected done state screen=%v tree=%#v", m.screen, tree)
	}
}

func TestOnboardingNamesBoardWithKeys(t *testing.T) {
	svc := &fakeService{}
	m := newOnboardingModel(t, svc, 120)

	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if !m.hasFocus || m.focused != onboarding.BoardNameField() {
		t.Fatalf("expected board field focused, got %v %#v", m.hasFocus, m.focused)
	}
	if m.out.FlowStep != onboarding.NameBoard || !m.replaceNext {
		t.Fatalf("expected nameBoard with select-all, got %v replace=%v", m.out.FlowStep, m.replaceNext)
	}

	m = typeText(t, m, "Roadmap")
	if got := m.boardInput.Value(); got != "Roadmap" {
		t.Fatalf("expected typed name to replace default, got %q", got)
	}
	if m.out.BoardName != "Roadmap" {
		t.Fatalf("expected session display to follow edits, got %q", m.out.BoardName)
	}

	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.hasFocus {
		t.Fatal("expected submit to blur the board field")
	}
	if m.out.FlowStep != onboarding.FinishBoardNaming || m.out.OverlayStep != onboarding.DescribeList {
		t.Fatalf("unexpected progression %v/%v", m.out.FlowStep, m.out.OverlayStep)
	}

	var cmd tea.Cmd
	for i := 0; i < 3; i++ {
		m, cmd = update(t, m, ctrl('s'))
	}
	if m.out.FlowStep != onboarding.CreateBoard {
		t.Fatalf("expected createBoard after three right-nav taps, got %v", m.out.FlowStep)
	}
	m = deliver[boardSavedMsg](t, m, cmd)
	if len(svc.created) != 1 || svc.kinds[0] != template.ManageProject {
		t.Fatalf("expected one stored manageProject board, got %d", len(svc.created))
	}
	if got := svc.created[0].Name(); got != "Roadmap" {
		t.Fatalf("expected stored name Roadmap, got %q", got)
	}
	if m.screen != screenDone {
		t.Fatalf("expected done screen, got %v", m.screen)
	}
}

func TestEditingButtonSubmitsFocusedField(t *testing.T) {
	m := newOnboardingModel(t, &fakeService{}, 120)
	m, _ = update(t, m, press('g'))
	if m.out.EditingButtonHidden {
		t.Fatal("expected editing button while a field is focused")
	}
	m, _ = update(t, m, ctrl('s'))
	if m.hasFocus || m.out.FlowStep != onboarding.FinishBoardNaming {
		t.Fatalf("expected editing button to submit, focus=%v step=%v", m.hasFocus, m.out.FlowStep)
	}
	if m.out.BoardName != "Project" {
		t.Fatalf("expected default name kept, got %q", m.out.BoardName)
	}
}

func TestPasteRejectsOverLimitText(t *testing.T) {
	clip := strings.Repeat("x", 40)
	m := newOnboardingModel(t, &fakeService{}, 120, WithClipboard(func() (string, error) { return clip, nil }))
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	m, cmd := update(t, m, ctrl('v'))
	m = deliver[clipboardMsg](t, m, cmd)
	if got := m.boardInput.Value(); got != "Project" {
		t.Fatalf("expected over-limit paste rejected whole, got %q", got)
	}

	clip = "Alpha"
	m, cmd = update(t, m, ctrl('v'))
	m = deliver[clipboardMsg](t, m, cmd)
	if got := m.boardInput.Value(); got != "ProjectAlpha" {
		t.Fatalf("expected paste appended, got %q", got)
	}
}

func TestPasteFailureSetsStatus(t *testing.T) {
	m := newOnboardingModel(t, &fakeService{}, 120, WithClipboard(func() (string, error) { return "", errors.New("no clipboard") }))
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	m, cmd := update(t, m, ctrl('v'))
	m = deliver[clipboardMsg](t, m, cmd)
	if !strings.Contains(m.status, "no clipboard") {
		t.Fatalf("expected paste failure status, got %q", m.status)
	}
}

func TestTabMovesBetweenListFields(t *testing.T) {
	m := newOnboardingModel(t, &fakeService{}, 120)
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if m.hasFocus {
		t.Fatal("expected tab to do nothing before a phase starts")
	}

	m, _ = update(t, m, press('s'))
	if m.out.OverlayStep != onboarding.DescribeList {
		t.Fatalf("expected board skip to show list overlay, got %v", m.out.OverlayStep)
	}
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.focused != onboarding.ListNameField(0) || m.out.FlowStep != onboarding.NameLists {
		t.Fatalf("expected first list focused in nameLists, got %#v %v", m.focused, m.out.FlowStep)
	}

	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if m.focused != onboarding.ListNameField(1) || !m.out.ListActive[1] || m.out.ListActive[0] {
		t.Fatalf("expected second list focused and active, got %#v %v", m.focused, m.out.ListActive)
	}
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if m.focused != onboarding.ListNameField(0) {
		t.Fatalf("expected shift+tab back to first list, got %#v", m.focused)
	}

	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.hasFocus || m.out.FlowStep != onboarding.NameLists {
		t.Fatalf("expected esc to end editing without finishing, focus=%v step=%v", m.hasFocus, m.out.FlowStep)
	}
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if !m.hasFocus || m.focused != onboarding.ListNameField(0) {
		t.Fatalf("expected tab to refocus the first list, got %#v", m.focused)
	}
}

func TestCardPhaseEndsAtFirstListsLastCard(t *testing.T) {
	svc := &fakeService{}
	m := newOnboardingModel(t, svc, 120)
	m, _ = update(t, m, ctrl('s'))
	m, _ = update(t, m, ctrl('s'))
	if m.out.FlowStep != onboarding.FinishListNaming || m.out.OverlayStep != onboarding.DescribeCard {
		t.Fatalf("expected card overlay, got %v/%v", m.out.FlowStep, m.out.OverlayStep)
	}
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if !m.hasFocus || m.focused != onboarding.CardTitleField(0) {
		t.Fatalf("expected first card focused, got %v %#v", m.hasFocus, m.focused)
	}

	for i := 0; i < 3; i++ {
		m = typeText(t, m, "x")
		m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
		if i < 2 && m.focused != onboarding.CardTitleField(i+1) {
			t.Fatalf("expected card %d focused, got %#v", i+1, m.focused)
		}
	}
	if m.hasFocus {
		t.Fatalf("expected no focus after the last visible card, got %#v", m.focused)
	}
	if m.out.FlowStep != onboarding.FinishCardNaming || m.out.OverlayStep != onboarding.DescribeCreate {
		t.Fatalf("expected finishCardNaming/describeCreate, got %v/%v", m.out.FlowStep, m.out.OverlayStep)
	}
	if got := m.out.ListHidesCards; len(got) != 3 || got[0] || !got[1] || !got[2] {
		t.Fatalf("unexpected list card visibility %v", got)
	}

	var cmd tea.Cmd
	m, cmd = update(t, m, ctrl('s'))
	m = deliver[boardSavedMsg](t, m, cmd)
	if len(svc.created) != 1 {
		t.Fatalf("expected one consumed board, got %d", len(svc.created))
	}
	for i, c := range svc.created[0].Lists[0].Cards {
		if c.CustomName == nil || *c.CustomName != "x" {
			t.Fatalf("expected card %d named x, got %#v", i, c.CustomName)
		}
	}
	for _, c := range svc.created[0].Lists[1].Cards {
		if c.CustomName != nil {
			t.Fatalf("expected second list cards unnamed, got %q", *c.CustomName)
		}
	}
}

func TestTabStopsAtLastEditableCard(t *testing.T) {
	m := newOnboardingModel(t, &fakeService{}, 120)
	m, _ = update(t, m, ctrl('s'))
	m, _ = update(t, m, ctrl('s'))
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	for i := 0; i < 4; i++ {
		m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	}
	if m.focused != onboarding.CardTitleField(2) {
		t.Fatalf("expected tab to stop at the third card, got %#v", m.focused)
	}
	if m.out.EditingButtonText != "Done" {
		t.Fatalf("expected Done on the last card, got %q", m.out.EditingButtonText)
	}
}

func TestCompactKeyboardHidesOverlayAfterDebounce(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newOnboardingModel(t, &fakeService{}, 80, WithClock(clock.Now))
	if m.trait != onboarding.Compact {
		t.Fatalf("expected compact trait at 80 columns, got %v", m.trait)
	}
	if m.renderOverlay() == "" {
		t.Fatal("expected overlay before editing")
	}

	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.out.KeyboardUpInCompact {
		t.Fatal("expected keyboard signal to wait for the debounce")
	}
	clock.now = clock.now.Add(200 * time.Millisecond)
	m, _ = update(t, m, clockTickMsg{})
	if !m.out.KeyboardUpInCompact {
		t.Fatal("expected keyboard signal after the debounce")
	}
	if m.renderOverlay() != "" {
		t.Fatal("expected overlay hidden while the edit bar is raised")
	}
	if m.renderEditBar() == "" {
		t.Fatal("expected edit bar rows reserved")
	}
}

func TestResizeSwitchesTrait(t *testing.T) {
	m := newOnboardingModel(t, &fakeService{}, 120)
	if m.trait != onboarding.Regular || !m.out.CompactUIHidden {
		t.Fatalf("expected regular trait, got %v", m.trait)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 30})
	if m.trait != onboarding.Compact || m.out.CompactUIHidden {
		t.Fatalf("expected compact trait after resize, got %v", m.trait)
	}
}

func TestSaveFailureShowsError(t *testing.T) {
	svc := &fakeService{err: errors.New("disk full")}
	m := newOnboardingModel(t, svc, 120)
	var cmd tea.Cmd
	for i := 0; i < 4; i++ {
		m, cmd = update(t, m, ctrl('s'))
	}
	if m.out.FlowStep != onboarding.CreateBoard {
		t.Fatalf("expected createBoard, got %v", m.out.FlowStep)
	}
	m = deliver[boardSavedMsg](t, m, cmd)
	if m.err == nil || !strings.Contains(m.content(), "disk full") {
		t.Fatalf("expected error view, got err=%v", m.err)
	}
}

func TestViewsRenderScreens(t *testing.T) {
	m := NewModel(&fakeService{})
	if v := m.View(); v.Content == nil || !v.AltScreen {
		t.Fatal("expected alt-screen loading view")
	}
	if got := m.content(); !strings.Contains(got, "loading") {
		t.Fatalf("expected loading view, got %q", got)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	picker := m.content()
	for _, want := range []string{"Welcome to your first board", "Manage a project", "Skip to board"} {
		if !strings.Contains(picker, want) {
			t.Fatalf("expected picker to contain %q", want)
		}
	}

	m = newOnboardingModel(t, &fakeService{}, 120)
	view := m.content()
	for _, want := range []string{"kanstart", "Name your board", "Skip"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected onboarding view to contain %q", want)
		}
	}
}

func TestUnknownStartTemplateIsError(t *testing.T) {
	m := NewModel(&fakeService{}, WithTemplate("planParty"))
	if m.err == nil {
		t.Fatal("expected unknown template error")
	}
}

func TestWrapIndex(t *testing.T) {
	cases := []struct {
		current, delta, total, want int
	}{
		{0, -1, 6, 5},
		{5, 1, 6, 0},
		{2, 1, 6, 3},
		{0, 1, 0, 0},
	}
	for _, tc := range cases {
		if got := wrapIndex(tc.current, tc.delta, tc.total); got != tc.want {
			t.Fatalf("wrapIndex(%d,%d,%d) = %d, want %d", tc.current, tc.delta, tc.total, got, tc.want)
		}
	}
}
