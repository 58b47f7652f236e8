package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/evanschultz/kanstart/internal/domain"
	"github.com/evanschultz/kanstart/internal/localize"
	"github.com/evanschultz/kanstart/internal/template"
)

type fakeRepo struct {
	trees     map[string]domain.BoardTree
	failures  []error
	createCnt int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{trees: map[string]domain.BoardTree{}}
}

func (f *fakeRepo) CreateBoardTree(_ context.Context, tree domain.BoardTree) error {
	f.createCnt++
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return err
	}
	f.trees[tree.Board.ID] = tree
	return nil
}

func (f *fakeRepo) ListBoards(_ context.Context, includeArchived bool) ([]domain.Board, error) {
	out := make([]domain.Board, 0, len(f.trees))
	for _, tree := range f.trees {
		if !includeArchived && tree.Board.ArchivedAt != nil {
			continue
		}
		out = append(out, tree.Board)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) GetBoardTree(_ context.Context, id string) (domain.BoardTree, error) {
	tree, ok := f.trees[id]
	if !ok {
		return domain.BoardTree{}, ErrNotFound
	}
	return tree, nil
}

func newTestService(repo Repository) *Service {
	n := 0
	idGen := func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewService(repo, idGen, func() time.Time { return now }, ServiceConfig{
		RetryInitialInterval: time.Millisecond,
		RetryMaxElapsed:      time.Second,
	})
}

func planEventBoard(t *testing.T) template.Board {
	t.Helper()
	tpl, err := template.NewProvider(localize.English()).Template(template.PlanEvent)
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	return tpl.Board
}

func strPtr(s string) *string {
	return &s
}

func TestCreateFromTemplateBuildsTree(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	board := planEventBoard(t)
	board.CustomName = strPtr("Wedding")
	board.Lists[1].CustomName = strPtr("Booked")
	board.Lists[0].Cards[1].CustomName = strPtr("Pick a venue")

	tree, err := svc.CreateFromTemplate(context.Background(), template.PlanEvent, board)
	if err != nil {
		t.Fatalf("CreateFromTemplate() error = %v", err)
	}
	if tree.Board.Name != "Wedding" || tree.Board.Template != "planEvent" {
		t.Fatalf("unexpected board %#v", tree.Board)
	}
	if tree.Board.Background != board.Background.BackgroundKey() {
		t.Fatalf("unexpected background %q", tree.Board.Background)
	}
	if len(tree.Lists) != 3 {
		t.Fatalf("expected 3 lists, got %d", len(tree.Lists))
	}
	if tree.Lists[0].List.Name != board.Lists[0].DefaultName || tree.Lists[1].List.Name != "Booked" {
		t.Fatalf("unexpected list names %q %q", tree.Lists[0].List.Name, tree.Lists[1].List.Name)
	}
	if tree.CardCount() != 1 {
		t.Fatalf("expected only named cards, got %d", tree.CardCount())
	}
	card := tree.Lists[0].Cards[0]
	if card.Title != "Pick a venue" || card.Position != 0 || card.ListID != tree.Lists[0].List.ID {
		t.Fatalf("unexpected card %#v", card)
	}
	if _, ok := repo.trees[tree.Board.ID]; !ok {
		t.Fatal("expected tree to be stored")
	}
}

func TestCreateDefaultBoard(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	tree, err := svc.CreateDefaultBoard(context.Background())
	if err != nil {
		t.Fatalf("CreateDefaultBoard() error = %v", err)
	}
	if tree.Board.Template != DefaultTemplateName {
		t.Fatalf("unexpected template %q", tree.Board.Template)
	}
	if tree.Board.Background != "green" {
		t.Fatalf("unexpected background %q", tree.Board.Background)
	}
	names := []string{tree.Lists[0].List.Name, tree.Lists[1].List.Name, tree.Lists[2].List.Name}
	want := []string{"To Do", "Doing", "Done"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected list names %v", names)
		}
	}
	if tree.CardCount() != 1 || tree.Lists[0].Cards[0].Title != "Untitled" {
		t.Fatalf("unexpected default cards %#v", tree.Lists[0].Cards)
	}
}

func TestCreateRetriesTransientErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.failures = []error{
		fmt.Errorf("insert board: %w", ErrTransient),
		fmt.Errorf("insert board: %w", ErrTransient),
	}
	svc := newTestService(repo)
	if _, err := svc.CreateFromTemplate(context.Background(), template.PlanEvent, planEventBoard(t)); err != nil {
		t.Fatalf("CreateFromTemplate() error = %v", err)
	}
	if repo.createCnt != 3 {
		t.Fatalf("expected 3 attempts, got %d", repo.createCnt)
	}
}

func TestCreateStopsOnPermanentError(t *testing.T) {
	repo := newFakeRepo()
	boom := errors.New("constraint failed")
	repo.failures = []error{boom}
	svc := newTestService(repo)
	_, err := svc.CreateFromTemplate(context.Background(), template.PlanEvent, planEventBoard(t))
	if !errors.Is(err, boom) {
		t.Fatalf("expected constraint error, got %v", err)
	}
	if repo.createCnt != 1 {
		t.Fatalf("expected 1 attempt, got %d", repo.createCnt)
	}
}

func TestCreateRejectsEmptyBoard(t *testing.T) {
	svc := newTestService(newFakeRepo())
	if _, err := svc.CreateFromTemplate(context.Background(), template.PlanEvent, template.Board{DefaultName: "x"}); !errors.Is(err, ErrEmptyBoardTree) {
		t.Fatalf("expected ErrEmptyBoardTree, got %v", err)
	}
}

func TestConsumeCompletedBoard(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ch := make(chan template.Board, 1)
	board := planEventBoard(t)
	board.CustomName = strPtr("Party")
	ch <- board
	close(ch)

	tree, err := svc.Consume(context.Background(), template.PlanEvent, ch)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if tree.Board.Name != "Party" {
		t.Fatalf("unexpected board name %q", tree.Board.Name)
	}
	if _, err := svc.Consume(context.Background(), template.PlanEvent, ch); !errors.Is(err, ErrNoBoard) {
		t.Fatalf("expected ErrNoBoard, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Consume(ctx, template.PlanEvent, make(chan template.Board)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestListAndGetBoards(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	created, err := svc.CreateDefaultBoard(context.Background())
	if err != nil {
		t.Fatalf("CreateDefaultBoard() error = %v", err)
	}
	boards, err := svc.ListBoards(context.Background())
	if err != nil {
		t.Fatalf("ListBoards() error = %v", err)
	}
	if len(boards) != 1 || boards[0].ID != created.Board.ID {
		t.Fatalf("unexpected boards %#v", boards)
	}
	got, err := svc.GetBoard(context.Background(), " "+created.Board.ID+" ")
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if got.Board.Name != created.Board.Name {
		t.Fatalf("unexpected board %#v", got.Board)
	}
	if _, err := svc.GetBoard(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetBoard(context.Background(), " "); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
