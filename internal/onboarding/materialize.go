package onboarding

import (
	"strings"

	"github.com/evanschultz/kanstart/internal/template"
)

// materialize applies the displayed names to the working board, publishes it, and
// closes the completion channel. It runs at most once.
func (s *Session) materialize() (template.Board, bool) {
	if s.done {
		return template.Board{}, false
	}
	s.done = true

	board := s.board.Clone()
	boardName := strings.TrimSpace(s.boardField.display)
	if boardName == "" {
		boardName = board.DefaultName
	}
	board.CustomName = &boardName
	for i := range board.Lists {
		name := strings.TrimSpace(s.listFields[i].display)
		if name == "" {
			name = board.Lists[i].DefaultName
		}
		board.Lists[i].CustomName = &name
	}
	for i, fs := range s.cardFields {
		pos, ok := board.CardPosition(i)
		if !ok {
			continue
		}
		card := &board.Lists[pos.List].Cards[pos.Card]
		title := strings.TrimSpace(fs.display)
		if title == "" {
			card.CustomName = nil
			continue
		}
		card.CustomName = &title
	}
	s.board = board

	s.recorder.BoardCreated(board.Clone())
	s.logger.Info("onboarding board completed", "board", boardName, "lists", len(board.Lists), "cards", board.CardCount())
	s.completed <- board.Clone()
	close(s.completed)
	return board.Clone(), true
}
