package tui

import (
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/kanstart/internal/onboarding"
)

// palette colors shared by every screen.
var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	textColor   = lipgloss.Color("252")
	hintColor   = lipgloss.Color("#F2D600")
)

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.content())
	v.AltScreen = true
	return v
}

// content renders the active screen.
func (m Model) content() string {
	switch {
	case m.err != nil:
		return "error: " + m.err.Error() + "\n\npress q to quit\n"
	case !m.ready:
		return "loading..."
	case m.screen == screenPicker:
		return m.renderPicker()
	case m.screen == screenOnboarding:
		return m.renderOnboarding()
	default:
		return m.renderDone()
	}
}

// withFooter appends the help and status lines, fitting content to the terminal height.
func (m Model) withFooter(content string, keys help.KeyMap) string {
	h := m.help
	h.SetWidth(max(0, m.width-2))
	footer := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(h.View(keys))
	if status := strings.TrimSpace(m.status); status != "" && status != "ready" {
		footer += "\n" + lipgloss.NewStyle().Foreground(dimColor).Padding(0, 1).Render(status)
	}
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(footer)))
	}
	return content + "\n" + footer
}

// renderPicker renders the template picker.
func (m Model) renderPicker() string {
	loc := m.loc()
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(textColor)
	subtitleStyle := lipgloss.NewStyle().Foreground(mutedColor)
	lines := []string{
		titleStyle.Render(loc.String("welcome_label")),
		subtitleStyle.Width(max(20, min(72, m.width-4))).Render(loc.String("get_started_label")),
		"",
	}
	for i, tpl := range m.templates {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(tpl.Board.Background.Swatch())).Render("██")
		lines = append(lines, pickerRow(i == m.pickerIndex, swatch+" "+tpl.Name))
	}
	lines = append(lines, "", pickerRow(m.pickerIndex == len(m.templates), loc.String("skip_to_trello_button")))
	content := lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
	return m.withFooter(content, pickerHelp{k: m.keys})
}

// pickerRow renders one picker entry with its cursor.
func pickerRow(selected bool, label string) string {
	if selected {
		return lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("› ") + label
	}
	return "  " + label
}

// renderOnboarding renders the naming screen.
func (m Model) renderOnboarding() string {
	header := m.renderHeader()
	board := m.renderBoard()
	if m.scroll > 0 {
		lines := strings.Split(board, "\n")
		board = strings.Join(lines[min(m.scroll, len(lines)-1):], "\n")
	}
	overlay := m.renderOverlay()

	var body string
	if m.trait == onboarding.Compact {
		board = lipgloss.NewStyle().PaddingLeft(int(m.out.BoardLeading)).Render(board)
		body = board
		if overlay != "" {
			body += "\n\n" + overlay
		}
	} else {
		sidebarWidth := m.layout.OverlayRegularWidth
		gap := max(0, int(m.out.BoardLeading)-sidebarWidth)
		sidebar := lipgloss.NewStyle().Width(sidebarWidth).Render(overlay)
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, strings.Repeat(" ", gap), board)
	}
	if bar := m.renderEditBar(); bar != "" {
		body += "\n" + bar
	}
	content := header + "\n\n" + body
	return m.withFooter(content, onboardingHelp{k: m.keys, editing: m.hasFocus})
}

// renderHeader renders the title bar with the right navigation button.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(textColor).Render("kanstart")
	tplName := ""
	for _, tpl := range m.templates {
		if tpl.Type == m.kind {
			tplName = tpl.Name
		}
	}
	left := title + lipgloss.NewStyle().Foreground(mutedColor).Render("  "+tplName)
	right := ""
	buttonStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	navKey := m.keys.rightNav.Help().Key
	switch {
	case !m.out.EditingButtonHidden:
		right = buttonStyle.Render("[" + navKey + "] " + m.out.EditingButtonText)
	case !m.out.SkipButtonHidden:
		right = buttonStyle.Render("[" + navKey + "] " + m.out.SkipButtonText)
	}
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	return lipgloss.NewStyle().Padding(0, 1).Render(left + strings.Repeat(" ", gap) + right)
}

// fieldBox renders one field with its hint and active borders.
func fieldBox(in textinput.Model, focused, active, hint, enabled bool, width int, placeholder string) string {
	style := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(dimColor).Width(width).Padding(0, 1)
	switch {
	case active:
		style = style.Border(lipgloss.ThickBorder()).BorderForeground(accentColor)
	case hint:
		style = style.BorderForeground(hintColor)
	}
	var text string
	switch {
	case focused:
		text = in.View()
	case !enabled:
		text = lipgloss.NewStyle().Foreground(dimColor).Render(placeholder)
	case in.Value() == "":
		text = lipgloss.NewStyle().Foreground(mutedColor).Render(placeholder)
	default:
		text = in.Value()
	}
	return style.Render(text)
}

// listColumnWidth returns the width of one list column.
func (m Model) listColumnWidth() int {
	lists := max(1, len(m.board.Lists))
	avail := m.width - 4
	if m.trait != onboarding.Compact {
		avail -= m.layout.OverlayRegularWidth + 2*m.layout.GridUnit
	}
	return clamp(avail/lists-1, 14, 30)
}

// renderBoard renders the board panel.
func (m Model) renderBoard() string {
	width := m.listColumnWidth()
	boardColor := lipgloss.Color(m.board.Background.BoardSwatch())
	isFocused := func(f onboarding.Field) bool {
		return m.hasFocus && m.focused == f
	}

	name := fieldBox(m.boardInput, isFocused(onboarding.BoardNameField()), m.out.BoardActive, m.out.BoardHint, true, width*2, m.board.DefaultName)
	sections := []string{name}

	if m.out.ListFieldsVisible {
		columns := make([]string, 0, len(m.listInputs))
		card := 0
		for i, l := range m.board.Lists {
			f := onboarding.ListNameField(i)
			hint := i == 0 && m.out.FirstListHint
			col := []string{fieldBox(m.listInputs[i], isFocused(f), m.out.ListActive[i], hint, true, width-2, l.DefaultName)}
			for range l.Cards {
				cf := onboarding.CardTitleField(card)
				idx := card
				card++
				if m.out.BoardZoomedOut || m.out.ListHidesCards[i] {
					continue
				}
				cardHint := idx == 0 && m.out.FirstCardHint
				enabled := m.out.CardFieldsEnabled && idx < m.out.EditableCards
				col = append(col, fieldBox(m.cardInputs[idx], isFocused(cf), m.out.CardActive[idx], cardHint, enabled, width-2, m.cardInputs[idx].Placeholder))
			}
			columns = append(columns, lipgloss.NewStyle().Width(width).Render(strings.Join(col, "\n")))
		}
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(boardColor).
		Padding(0, 1).
		Render(strings.Join(sections, "\n"))
}

// renderOverlay renders the current overlay, or nothing while it is hidden.
func (m Model) renderOverlay() string {
	idx := m.out.OverlayStep.Ordinal()
	if idx >= len(m.board.Overlays) || idx >= len(m.out.OverlayOpacity) || m.out.OverlayOpacity[idx] == 0 {
		return ""
	}
	if m.trait == onboarding.Compact && m.out.CompactUIHidden {
		return ""
	}
	if m.trait != onboarding.Compact && m.out.RegularUIHidden {
		return ""
	}
	width := m.layout.OverlayRegularWidth
	if m.trait == onboarding.Compact {
		width = max(20, m.width-4)
	}
	copyText := m.md.render(overlayMarkdown(m.board.Overlays[idx]), width-4)

	goStyle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	if !m.goEnabled(m.out.OverlayStep) {
		goStyle = lipgloss.NewStyle().Foreground(dimColor)
	}
	buttons := goStyle.Render("[enter] " + m.out.GoLabels[idx])
	if m.out.OverlayStep != onboarding.DescribeCreate {
		skip := m.loc().String("skip_button")
		buttons += "  " + lipgloss.NewStyle().Foreground(mutedColor).Render("[s] "+skip)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Width(width).
		Padding(0, 1).
		Render(strings.Join([]string{m.pager(), copyText, "", buttons}, "\n"))
}

// pager renders the overlay position dots.
func (m Model) pager() string {
	steps := onboarding.OverlaySteps()
	dots := make([]string, 0, len(steps))
	for _, s := range steps {
		if s == m.out.OverlayStep {
			dots = append(dots, "●")
			continue
		}
		dots = append(dots, "○")
	}
	return lipgloss.NewStyle().Foreground(mutedColor).Render(strings.Join(dots, " "))
}

// renderEditBar renders the rows reserved below the board while editing.
func (m Model) renderEditBar() string {
	rows := int(-m.out.BoardBottom) - m.layout.GridUnit
	if rows <= 0 {
		return ""
	}
	label := ""
	if m.hasFocus {
		label = "editing " + m.fieldLabel(m.focused) + " · enter submit · esc done"
	}
	return lipgloss.NewStyle().
		Foreground(mutedColor).
		Height(rows).
		Padding(0, 1).
		Render(label)
}

// fieldLabel returns the accessibility label of f.
func (m Model) fieldLabel(f onboarding.Field) string {
	loc := m.loc()
	switch f.Kind {
	case onboarding.ListField:
		return loc.String("list_name_text_field_accessibility")
	case onboarding.CardField:
		return loc.String("card_title_text_field_accessibility")
	default:
		return loc.String("board_name_text_field_accessibility")
	}
}

// renderDone renders the completion summary.
func (m Model) renderDone() string {
	if m.tree == nil {
		return m.withFooter("saving board...", doneHelp{k: m.keys})
	}
	title := m.loc().String("board_created_title")
	summary := m.md.render(summaryMarkdown(title, *m.tree), max(20, m.width-4))
	return m.withFooter(lipgloss.NewStyle().Padding(1, 2).Render(summary), doneHelp{k: m.keys})
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}
