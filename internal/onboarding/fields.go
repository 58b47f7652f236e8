package onboarding

import (
	"strings"

	"github.com/rivo/uniseg"
)

// fieldState tracks one text field's validated value and view flags.
type fieldState struct {
	fallback  string
	realtime  string
	display   string
	raw       string
	edited    bool
	selected  bool
	active    bool
	typedSent bool
}

// newFieldState seeds a field with its fallback name.
func newFieldState(fallback string) *fieldState {
	return &fieldState{fallback: fallback, realtime: fallback, display: fallback}
}

// textLength counts user-perceived characters.
func textLength(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// change applies a proposed edit. Over-limit proposals are dropped whole.
func (f *fieldState) change(text string, maxChars int) bool {
	f.raw = text
	f.edited = true
	if maxChars > 0 && textLength(text) > maxChars {
		return false
	}
	f.realtime = text
	f.display = text
	return true
}

// end settles the displayed value from the latest accepted edit.
func (f *fieldState) end() {
	final := strings.TrimSpace(f.realtime)
	if final == "" {
		final = f.fallback
	}
	f.display = final
}

// revert restores the fallback after a skip.
func (f *fieldState) revert() {
	f.display = f.fallback
}

// typed reports whether an edit-end should count as the user naming the field.
// It reports true at most once.
func (f *fieldState) typed() bool {
	if f.typedSent || !f.edited {
		return false
	}
	if f.raw == "" || f.raw == f.fallback {
		return false
	}
	f.typedSent = true
	return true
}
