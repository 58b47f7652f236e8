// Package template defines the starter boards offered during onboarding.
package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownType reports a template selector that matches no known template.
var ErrUnknownType = errors.New("unknown template type")

// Type selects one of the starter templates.
type Type string

// PlanEvent and related constants enumerate the starter templates.
const (
	PlanEvent            Type = "planEvent"
	TrackGoal            Type = "trackGoal"
	ManageProject        Type = "manageProject"
	IncreaseProductivity Type = "increaseProductivity"
	SomethingElse        Type = "somethingElse"
)

// types stores the picker order.
var types = []Type{PlanEvent, TrackGoal, ManageProject, IncreaseProductivity, SomethingElse}

// Types returns every template type in picker order.
func Types() []Type {
	return append([]Type(nil), types...)
}

// ParseType resolves a template selector, suggesting the closest match on failure.
func ParseType(raw string) (Type, error) {
	raw = strings.TrimSpace(raw)
	for _, t := range types {
		if string(t) == raw || strings.EqualFold(string(t), raw) {
			return t, nil
		}
	}
	if suggestion, ok := closestType(raw); ok {
		return "", fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownType, raw, suggestion)
	}
	return "", fmt.Errorf("%w %q", ErrUnknownType, raw)
}

// closestType returns the nearest template type within a small edit distance.
func closestType(raw string) (Type, bool) {
	if raw == "" {
		return "", false
	}
	best := Type("")
	bestDist := -1
	for _, t := range types {
		dist := levenshtein.ComputeDistance(strings.ToLower(raw), strings.ToLower(string(t)))
		if bestDist < 0 || dist < bestDist {
			best = t
			bestDist = dist
		}
	}
	if bestDist > len(best)/2 {
		return "", false
	}
	return best, true
}

// BackgroundColor is the board background chosen by a template.
type BackgroundColor int

// Purple and related constants enumerate board backgrounds.
const (
	Purple BackgroundColor = iota
	Blue
	Green
	Orange
	Gray
)

// String returns the color name.
func (c BackgroundColor) String() string {
	switch c {
	case Purple:
		return "purple"
	case Blue:
		return "blue"
	case Green:
		return "green"
	case Orange:
		return "orange"
	case Gray:
		return "gray"
	default:
		return fmt.Sprintf("BackgroundColor(%d)", int(c))
	}
}

// BackgroundKey returns the key the board service expects for this background.
func (c BackgroundColor) BackgroundKey() string {
	if c == Gray {
		// The board service spells it "grey".
		return "grey"
	}
	return c.String()
}

// Swatch returns the hex color shown while onboarding.
func (c BackgroundColor) Swatch() string {
	switch c {
	case Purple:
		return "#8777D9"
	case Blue:
		return "#0079BF"
	case Green:
		return "#61BD4F"
	case Orange:
		return "#FFAB4A"
	default:
		return "#838C91"
	}
}

// BoardSwatch returns the hex color of the created board's background.
func (c BackgroundColor) BoardSwatch() string {
	switch c {
	case Purple:
		return "#5243AA"
	case Blue:
		return "#0079BF"
	case Green:
		return "#519839"
	case Orange:
		return "#D29034"
	default:
		return "#838C91"
	}
}

// Overlay is the explanatory panel shown for one onboarding step.
type Overlay struct {
	Title    string
	Subtitle string
}

// Card is a card slot on a template list. Cards have no default name.
type Card struct {
	Placeholder string
	CustomName  *string
}

// DisplayName returns the custom name, or the placeholder when none is set.
func (c Card) DisplayName() string {
	if c.CustomName != nil {
		return *c.CustomName
	}
	return c.Placeholder
}

// List is one template list and its cards.
type List struct {
	DefaultName string
	Cards       []Card
	CustomName  *string
}

// Name returns the custom name, falling back to the default.
func (l List) Name() string {
	if l.CustomName != nil {
		return *l.CustomName
	}
	return l.DefaultName
}

// Board is a template board, optionally customized.
type Board struct {
	Background  BackgroundColor
	DefaultName string
	Lists       []List
	CustomName  *string
	Overlays    []Overlay
}

// Name returns the custom name, falling back to the default.
func (b Board) Name() string {
	if b.CustomName != nil {
		return *b.CustomName
	}
	return b.DefaultName
}

// Position addresses a card by list and card position.
type Position struct {
	List int
	Card int
}

// CardCount returns the number of cards across all lists.
func (b Board) CardCount() int {
	total := 0
	for _, l := range b.Lists {
		total += len(l.Cards)
	}
	return total
}

// CardPosition maps a flat card index to its list and card position.
func (b Board) CardPosition(index int) (Position, bool) {
	if index < 0 {
		return Position{}, false
	}
	remaining := index
	for listPos, l := range b.Lists {
		if remaining < len(l.Cards) {
			return Position{List: listPos, Card: remaining}, true
		}
		remaining -= len(l.Cards)
	}
	return Position{}, false
}

// CardIndex maps a list and card position back to the flat card index.
func (b Board) CardIndex(pos Position) (int, bool) {
	if pos.List < 0 || pos.List >= len(b.Lists) {
		return 0, false
	}
	if pos.Card < 0 || pos.Card >= len(b.Lists[pos.List].Cards) {
		return 0, false
	}
	index := pos.Card
	for _, l := range b.Lists[:pos.List] {
		index += len(l.Cards)
	}
	return index, true
}

// Clone returns a deep copy that shares no mutable state with b.
func (b Board) Clone() Board {
	out := b
	out.CustomName = cloneString(b.CustomName)
	out.Overlays = append([]Overlay(nil), b.Overlays...)
	out.Lists = make([]List, len(b.Lists))
	for i, l := range b.Lists {
		cl := l
		cl.CustomName = cloneString(l.CustomName)
		cl.Cards = make([]Card, len(l.Cards))
		for j, c := range l.Cards {
			cc := c
			cc.CustomName = cloneString(c.CustomName)
			cl.Cards[j] = cc
		}
		out.Lists[i] = cl
	}
	return out
}

// cloneString copies an optional string.
func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Template pairs a board with its picker identity.
type Template struct {
	Type  Type
	Name  string
	Board Board
}
