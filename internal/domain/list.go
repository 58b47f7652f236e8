package domain

import (
	"strings"
	"time"
)

// List represents one column of a board.
type List struct {
	ID        string
	BoardID   string
	Name      string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewList constructs a validated list.
func NewList(id, boardID, name string, position int, now time.Time) (List, error) {
	id = strings.TrimSpace(id)
	boardID = strings.TrimSpace(boardID)
	name = strings.TrimSpace(name)
	if id == "" || boardID == "" {
		return List{}, ErrInvalidID
	}
	if name == "" {
		return List{}, ErrInvalidName
	}
	if position < 0 {
		return List{}, ErrInvalidPosition
	}

	return List{
		ID:        id,
		BoardID:   boardID,
		Name:      name,
		Position:  position,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Rename renames the list.
func (l *List) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	l.Name = name
	l.UpdatedAt = now.UTC()
	return nil
}
