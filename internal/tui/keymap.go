package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig overrides the single-key onboarding bindings. Blank fields keep defaults.
type KeyConfig struct {
	OverlayGo   string
	OverlaySkip string
	RightNav    string
	SkipToBoard string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	forceQuit   key.Binding
	toggleHelp  key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	choose      key.Binding
	skipToBoard key.Binding
	overlayGo   key.Binding
	overlaySkip key.Binding
	rightNav    key.Binding
	nextField   key.Binding
	prevField   key.Binding
	submit      key.Binding
	endEdit     key.Binding
	paste       key.Binding
	selectAll   key.Binding
	scrollUp    key.Binding
	scrollDown  key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQuit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		choose:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
		skipToBoard: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "skip to board")),
		overlayGo:   key.NewBinding(key.WithKeys("enter", "g"), key.WithHelp("enter/g", "go")),
		overlaySkip: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip step")),
		rightNav:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "skip/done")),
		nextField:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		prevField:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		endEdit:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop editing")),
		paste:       key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
		selectAll:   key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "select all")),
		scrollUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		scrollDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "scroll down")),
	}
}

// applyConfig applies configured key overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.overlaySkip, cfg.OverlaySkip, "s", "skip step")
	configureBinding(&k.rightNav, cfg.RightNav, "ctrl+s", "skip/done")
	configureBinding(&k.skipToBoard, cfg.SkipToBoard, "d", "skip to board")
	goKeys, goHelp := parseBindingKeys(cfg.OverlayGo, "g")
	k.overlayGo.SetKeys(append([]string{"enter"}, goKeys...)...)
	k.overlayGo.SetHelp("enter/"+goHelp, "go")
}

// configureBinding replaces a binding's keys and help text.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys resolves a configured key into matcher keys and help text.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	if raw != " " {
		raw = strings.TrimSpace(raw)
	}
	if raw == "" {
		raw = fallback
	}
	if raw == " " || strings.EqualFold(raw, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// pickerHelp is the help map shown on the template picker.
type pickerHelp struct{ k keyMap }

// ShortHelp handles short help.
func (h pickerHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.moveUp, h.k.moveDown, h.k.choose, h.k.skipToBoard, h.k.quit}
}

// FullHelp handles full help.
func (h pickerHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}

// onboardingHelp is the help map shown while naming the board.
type onboardingHelp struct {
	k       keyMap
	editing bool
}

// ShortHelp handles short help.
func (h onboardingHelp) ShortHelp() []key.Binding {
	if h.editing {
		return []key.Binding{h.k.submit, h.k.endEdit, h.k.nextField, h.k.rightNav, h.k.paste}
	}
	return []key.Binding{h.k.overlayGo, h.k.overlaySkip, h.k.rightNav, h.k.nextField, h.k.quit}
}

// FullHelp handles full help.
func (h onboardingHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.k.overlayGo, h.k.overlaySkip, h.k.rightNav, h.k.toggleHelp, h.k.quit},
		{h.k.nextField, h.k.prevField, h.k.submit, h.k.endEdit},
		{h.k.paste, h.k.selectAll, h.k.scrollUp, h.k.scrollDown},
	}
}

// doneHelp is the help map shown after the board is created.
type doneHelp struct{ k keyMap }

// ShortHelp handles short help.
func (h doneHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.choose, h.k.quit}
}

// FullHelp handles full help.
func (h doneHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}
