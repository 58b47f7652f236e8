package domain

import (
	"strings"
	"time"
)

// Board represents a persisted board created from onboarding.
type Board struct {
	ID         string
	Slug       string
	Name       string
	Template   string
	Background string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ArchivedAt *time.Time
}

// BoardInput holds the values used to construct a board.
type BoardInput struct {
	ID         string
	Name       string
	Template   string
	Background string
}

// NewBoard constructs a validated board.
func NewBoard(in BoardInput, now time.Time) (Board, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Template = strings.TrimSpace(in.Template)
	in.Background = strings.ToLower(strings.TrimSpace(in.Background))
	if in.ID == "" {
		return Board{}, ErrInvalidID
	}
	if in.Name == "" {
		return Board{}, ErrInvalidName
	}
	if in.Template == "" {
		return Board{}, ErrInvalidTemplate
	}

	return Board{
		ID:         in.ID,
		Slug:       normalizeSlug(in.Name),
		Name:       in.Name,
		Template:   in.Template,
		Background: in.Background,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

// Rename renames the board and refreshes its slug.
func (b *Board) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	b.Name = name
	b.Slug = normalizeSlug(name)
	b.UpdatedAt = now.UTC()
	return nil
}

// Archive archives the board.
func (b *Board) Archive(now time.Time) {
	ts := now.UTC()
	b.ArchivedAt = &ts
	b.UpdatedAt = ts
}

// Restore clears the archive marker.
func (b *Board) Restore(now time.Time) {
	b.ArchivedAt = nil
	b.UpdatedAt = now.UTC()
}

// normalizeSlug normalizes slug.
func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
