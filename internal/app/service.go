package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/evanschultz/kanstart/internal/domain"
	"github.com/evanschultz/kanstart/internal/localize"
	"github.com/evanschultz/kanstart/internal/template"
)

// DefaultTemplateName is stored for boards created without onboarding.
const DefaultTemplateName = "default"

// defaultRetryMaxElapsed bounds how long a create retries lock contention.
const defaultRetryMaxElapsed = 5 * time.Second

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Provider             *template.Provider
	RetryInitialInterval time.Duration
	RetryMaxElapsed      time.Duration
	Logger               *log.Logger
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service turns completed onboarding boards into persisted boards.
type Service struct {
	repo     Repository
	idGen    IDGenerator
	clock    Clock
	provider template.Provider
	retry    ServiceConfig
	logger   *log.Logger
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	provider := template.NewProvider(localize.English())
	if cfg.Provider != nil {
		provider = *cfg.Provider
	}
	if cfg.RetryMaxElapsed <= 0 {
		cfg.RetryMaxElapsed = defaultRetryMaxElapsed
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	return &Service{
		repo:     repo,
		idGen:    idGen,
		clock:    clock,
		provider: provider,
		retry:    cfg,
		logger:   cfg.Logger,
	}
}

// CreateFromTemplate builds and stores the board tree for a completed onboarding board.
// Cards without a custom name are left out.
func (s *Service) CreateFromTemplate(ctx context.Context, kind template.Type, board template.Board) (domain.BoardTree, error) {
	tree, err := s.buildTree(string(kind), board)
	if err != nil {
		return domain.BoardTree{}, err
	}
	if err := s.store(ctx, tree); err != nil {
		return domain.BoardTree{}, err
	}
	s.logger.Info("board created", "board", tree.Board.Name, "template", tree.Board.Template, "lists", len(tree.Lists), "cards", tree.CardCount())
	return tree, nil
}

// CreateDefaultBoard stores the default board used when onboarding is skipped.
func (s *Service) CreateDefaultBoard(ctx context.Context) (domain.BoardTree, error) {
	tree, err := s.buildTree(DefaultTemplateName, s.provider.DefaultBoard())
	if err != nil {
		return domain.BoardTree{}, err
	}
	if err := s.store(ctx, tree); err != nil {
		return domain.BoardTree{}, err
	}
	s.logger.Info("default board created", "board", tree.Board.Name)
	return tree, nil
}

// Consume waits for a session's completed board and stores it.
func (s *Service) Consume(ctx context.Context, kind template.Type, completed <-chan template.Board) (domain.BoardTree, error) {
	select {
	case <-ctx.Done():
		return domain.BoardTree{}, ctx.Err()
	case board, ok := <-completed:
		if !ok {
			return domain.BoardTree{}, ErrNoBoard
		}
		return s.CreateFromTemplate(ctx, kind, board)
	}
}

// ListBoards lists stored boards, newest first.
func (s *Service) ListBoards(ctx context.Context) ([]domain.Board, error) {
	boards, err := s.repo.ListBoards(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

// GetBoard loads a board with its lists and cards.
func (s *Service) GetBoard(ctx context.Context, id string) (domain.BoardTree, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.BoardTree{}, domain.ErrInvalidID
	}
	tree, err := s.repo.GetBoardTree(ctx, id)
	if err != nil {
		return domain.BoardTree{}, err
	}
	return tree, nil
}

// buildTree maps a template board onto validated domain entities.
func (s *Service) buildTree(templateName string, board template.Board) (domain.BoardTree, error) {
	if len(board.Lists) == 0 {
		return domain.BoardTree{}, ErrEmptyBoardTree
	}
	now := s.clock()
	b, err := domain.NewBoard(domain.BoardInput{
		ID:         s.idGen(),
		Name:       board.Name(),
		Template:   templateName,
		Background: board.Background.BackgroundKey(),
	}, now)
	if err != nil {
		return domain.BoardTree{}, fmt.Errorf("build board: %w", err)
	}

	tree := domain.BoardTree{Board: b, Lists: make([]domain.ListTree, 0, len(board.Lists))}
	for i, tl := range board.Lists {
		l, err := domain.NewList(s.idGen(), b.ID, tl.Name(), i, now)
		if err != nil {
			return domain.BoardTree{}, fmt.Errorf("build list %d: %w", i, err)
		}
		lt := domain.ListTree{List: l}
		for _, tc := range tl.Cards {
			title := tc.DisplayName()
			if tc.CustomName == nil || strings.TrimSpace(title) == "" {
				continue
			}
			c, err := domain.NewCard(domain.CardInput{
				ID:       s.idGen(),
				BoardID:  b.ID,
				ListID:   l.ID,
				Position: len(lt.Cards),
				Title:    title,
			}, now)
			if err != nil {
				return domain.BoardTree{}, fmt.Errorf("build card in list %d: %w", i, err)
			}
			lt.Cards = append(lt.Cards, c)
		}
		tree.Lists = append(tree.Lists, lt)
	}
	if err := tree.Validate(); err != nil {
		return domain.BoardTree{}, err
	}
	return tree, nil
}

// store writes the tree, retrying transient lock contention.
func (s *Service) store(ctx context.Context, tree domain.BoardTree) error {
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := s.repo.CreateBoardTree(ctx, tree)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTransient) {
			s.logger.Warn("board store busy, retrying", "attempt", attempt, "err", err)
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(s.newBackoff(), ctx))
	if err != nil {
		return fmt.Errorf("store board %q: %w", tree.Board.Name, err)
	}
	return nil
}

// newBackoff returns a fresh exponential policy; policies are stateful.
func (s *Service) newBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	if s.retry.RetryInitialInterval > 0 {
		bo.InitialInterval = s.retry.RetryInitialInterval
	}
	bo.MaxElapsedTime = s.retry.RetryMaxElapsed
	return bo
}
