// Package main previews the board background swatches used by onboarding templates.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/evanschultz/kanstart/internal/localize"
	"github.com/evanschultz/kanstart/internal/template"
)

func main() {
	if err := render(os.Stdout, template.NewProvider(localize.English())); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// swatchRow is one background shown in the preview.
type swatchRow struct {
	source     string
	board      string
	background template.BackgroundColor
}

// render writes the swatch tables to w.
func render(w io.Writer, provider template.Provider) error {
	rows := make([]swatchRow, 0, len(template.Types())+1)
	for _, tpl := range provider.Templates() {
		rows = append(rows, swatchRow{source: string(tpl.Type), board: tpl.Board.Name(), background: tpl.Board.Background})
	}
	def := provider.DefaultBoard()
	rows = append(rows, swatchRow{source: "default", board: def.Name(), background: def.Background})

	if _, err := fmt.Fprintln(w, "=== TEMPLATE BACKGROUNDS ==="); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, backgroundTable(rows).Render()); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "\n=== COLOR PROFILE SUPPORT ==="); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, profileTable().Render())
	return err
}

// backgroundTable lists onboarding and board swatches side by side.
func backgroundTable(rows []swatchRow) *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("Template", "Board", "Key", "Onboarding", "Board BG").
		StyleFunc(headerStyle)
	for _, r := range rows {
		t.Row(
			r.source,
			r.board,
			r.background.BackgroundKey(),
			sample(r.background.Swatch()),
			sample(r.background.BoardSwatch()),
		)
	}
	return t
}

// profileTable explains how swatches degrade per terminal color profile.
func profileTable() *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("Profile", "Colors", "Bits").
		StyleFunc(headerStyle)
	t.Row("ASCII", "2", "1-bit")
	t.Row("ANSI", "16", "4-bit")
	t.Row("ANSI256", "256", "8-bit")
	t.Row("TrueColor", "16,777,216", "24-bit")
	return t
}

// headerStyle bolds the header row.
func headerStyle(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	}
	return lipgloss.NewStyle()
}

// sample renders hex on its own color.
func sample(hex string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Foreground(lipgloss.Color("15")).
		Width(10).
		Align(lipgloss.Center).
		Render(hex)
}
