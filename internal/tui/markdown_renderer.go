package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/evanschultz/kanstart/internal/domain"
	"github.com/evanschultz/kanstart/internal/template"
)

// markdownRenderer renders overlay copy and board summaries, recreating the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := width
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(rendered, "\n")
}

// overlayMarkdown builds the markdown for one onboarding overlay.
func overlayMarkdown(o template.Overlay) string {
	return "### " + o.Title + "\n\n" + o.Subtitle
}

// summaryMarkdown builds the completion summary for a stored board.
func summaryMarkdown(title string, tree domain.BoardTree) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**%s** (%s)\n\n", tree.Board.Name, tree.Board.Background)
	for _, lt := range tree.Lists {
		fmt.Fprintf(&b, "- **%s**\n", lt.List.Name)
		for _, c := range lt.Cards {
			fmt.Fprintf(&b, "  - %s\n", c.Title)
		}
	}
	return b.String()
}
