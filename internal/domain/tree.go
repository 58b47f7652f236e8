package domain

import "fmt"

// ListTree is a list with its ordered cards.
type ListTree struct {
	List  List
	Cards []Card
}

// BoardTree is a board with its ordered lists and cards.
type BoardTree struct {
	Board Board
	Lists []ListTree
}

// CardCount returns the number of cards across all lists.
func (t BoardTree) CardCount() int {
	n := 0
	for _, l := range t.Lists {
		n += len(l.Cards)
	}
	return n
}

// Validate checks parent references and contiguous positions.
func (t BoardTree) Validate() error {
	if t.Board.ID == "" {
		return fmt.Errorf("%w: missing board id", ErrInvalidTree)
	}
	for i, l := range t.Lists {
		if l.List.BoardID != t.Board.ID {
			return fmt.Errorf("%w: list %q belongs to board %q", ErrInvalidTree, l.List.ID, l.List.BoardID)
		}
		if l.List.Position != i {
			return fmt.Errorf("%w: list %q at position %d, want %d", ErrInvalidTree, l.List.ID, l.List.Position, i)
		}
		for j, c := range l.Cards {
			if c.ListID != l.List.ID || c.BoardID != t.Board.ID {
				return fmt.Errorf("%w: card %q is not in list %q", ErrInvalidTree, c.ID, l.List.ID)
			}
			if c.Position != j {
				return fmt.Errorf("%w: card %q at position %d, want %d", ErrInvalidTree, c.ID, c.Position, j)
			}
		}
	}
	return nil
}
