package app

import (
	"context"

	"github.com/evanschultz/kanstart/internal/domain"
)

// Repository persists boards created by onboarding. Implementations wrap
// retryable lock contention in ErrTransient.
type Repository interface {
	CreateBoardTree(context.Context, domain.BoardTree) error
	ListBoards(context.Context, bool) ([]domain.Board, error)
	GetBoardTree(context.Context, string) (domain.BoardTree, error)
}
