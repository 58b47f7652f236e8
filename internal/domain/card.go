package domain

import (
	"strings"
	"time"
)

// Card represents one titled card inside a list.
type Card struct {
	ID        string
	BoardID   string
	ListID    string
	Position  int
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CardInput holds the values used to construct a card.
type CardInput struct {
	ID       string
	BoardID  string
	ListID   string
	Position int
	Title    string
}

// NewCard constructs a validated card.
func NewCard(in CardInput, now time.Time) (Card, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.BoardID = strings.TrimSpace(in.BoardID)
	in.ListID = strings.TrimSpace(in.ListID)
	in.Title = strings.TrimSpace(in.Title)

	if in.ID == "" || in.BoardID == "" {
		return Card{}, ErrInvalidID
	}
	if in.ListID == "" {
		return Card{}, ErrInvalidListID
	}
	if in.Title == "" {
		return Card{}, ErrInvalidTitle
	}
	if in.Position < 0 {
		return Card{}, ErrInvalidPosition
	}

	return Card{
		ID:        in.ID,
		BoardID:   in.BoardID,
		ListID:    in.ListID,
		Position:  in.Position,
		Title:     in.Title,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}
