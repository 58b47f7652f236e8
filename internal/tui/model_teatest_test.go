package tui

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/exp/teatest/v2"

	"github.com/evanschultz/kanstart/internal/template"
)

// waitFor waits until the program output contains want.
func waitFor(t *testing.T, tm *teatest.TestModel, want string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), want)
	}, teatest.WithDuration(3*time.Second), teatest.WithCheckInterval(10*time.Millisecond))
}

// TestOnboardingWithTeatest runs a full naming flow through a real program.
func TestOnboardingWithTeatest(t *testing.T) {
	svc := &fakeService{}
	m := NewModel(svc, WithTemplate(template.ManageProject))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	waitFor(t, tm, "Name your board")

	tm.Send(tea.KeyPressMsg{Code: tea.KeyEnter})
	for _, r := range "Roadmap" {
		tm.Send(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	tm.Send(tea.KeyPressMsg{Code: tea.KeyEnter})
	waitFor(t, tm, "Lists are stages")

	for i := 0; i < 3; i++ {
		tm.Send(tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl})
	}
	waitFor(t, tm, "board created")

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final, ok := tm.FinalModel(t).(Model)
	if !ok {
		t.Fatalf("unexpected final model type %T", tm.FinalModel(t))
	}
	tree, ok := final.Tree()
	if !ok || tree.Board.Name != "Roadmap" {
		t.Fatalf("expected stored Roadmap board, got %#v", tree.Board)
	}
	if len(svc.created) != 1 {
		t.Fatalf("expected one stored board, got %d", len(svc.created))
	}
}

// TestPickerWithTeatest verifies the picker lists templates and creates the default board.
func TestPickerWithTeatest(t *testing.T) {
	svc := &fakeService{}
	tm := teatest.NewTestModel(t, NewModel(svc), teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	waitFor(t, tm, "Increase productivity")
	tm.Send(tea.KeyPressMsg{Code: 'd', Text: "d"})
	waitFor(t, tm, "board created")

	tm.Send(tea.KeyPressMsg{Code: tea.KeyEnter})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
	if svc.defaults != 1 {
		t.Fatalf("expected one default board, got %d", svc.defaults)
	}
}
