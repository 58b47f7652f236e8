package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
)

// TestParseBindingKeys verifies key parsing behavior for configured overrides.
func TestParseBindingKeys(t *testing.T) {
	t.Run("space aliases", func(t *testing.T) {
		keys, help := parseBindingKeys("space", "s")
		if len(keys) != 2 || keys[0] != " " || keys[1] != "space" {
			t.Fatalf("unexpected parsed space keys %#v", keys)
		}
		if help != "space" {
			t.Fatalf("unexpected space help text %q", help)
		}
	})

	t.Run("uppercase rune includes shift alias", func(t *testing.T) {
		keys, help := parseBindingKeys("G", "g")
		if len(keys) != 2 || keys[0] != "G" || keys[1] != "shift+g" {
			t.Fatalf("unexpected uppercase parsed keys %#v", keys)
		}
		if help != "G" {
			t.Fatalf("unexpected uppercase help text %q", help)
		}
	})

	t.Run("multi rune lowercases key matcher", func(t *testing.T) {
		keys, help := parseBindingKeys("Ctrl+N", "ctrl+s")
		if len(keys) != 1 || keys[0] != "ctrl+n" {
			t.Fatalf("unexpected multi-rune parsed keys %#v", keys)
		}
		if help != "Ctrl+N" {
			t.Fatalf("unexpected multi-rune help text %q", help)
		}
	})

	t.Run("blank uses fallback", func(t *testing.T) {
		keys, help := parseBindingKeys("  ", "s")
		if len(keys) != 1 || keys[0] != "s" {
			t.Fatalf("unexpected fallback parsed keys %#v", keys)
		}
		if help != "s" {
			t.Fatalf("unexpected fallback help text %q", help)
		}
	})
}

// TestConfigureBinding verifies binding override application behavior.
func TestConfigureBinding(t *testing.T) {
	b := key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "old"))
	configureBinding(&b, "x", "s", "skip step")
	keys := b.Keys()
	if len(keys) != 1 || keys[0] != "x" {
		t.Fatalf("unexpected configured keys %#v", keys)
	}
	if b.Help().Key != "x" || b.Help().Desc != "skip step" {
		t.Fatalf("unexpected configured help %#v", b.Help())
	}
}

// TestKeyMapApplyConfig verifies dynamic key map override behavior.
func TestKeyMapApplyConfig(t *testing.T) {
	k := newKeyMap()
	k.applyConfig(KeyConfig{
		OverlayGo:   "o",
		OverlaySkip: "x",
		RightNav:    "ctrl+n",
		SkipToBoard: "B",
	})

	assertKeys := func(name string, binding key.Binding, expected ...string) {
		t.Helper()
		got := binding.Keys()
		if len(got) != len(expected) {
			t.Fatalf("%s key count mismatch got=%#v expected=%#v", name, got, expected)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Fatalf("%s key mismatch got=%#v expected=%#v", name, got, expected)
			}
		}
	}

	assertKeys("overlay go", k.overlayGo, "enter", "o")
	assertKeys("overlay skip", k.overlaySkip, "x")
	assertKeys("right nav", k.rightNav, "ctrl+n")
	assertKeys("skip to board", k.skipToBoard, "B", "shift+b")
}

// TestKeyMapApplyEmptyConfigKeepsDefaults verifies blank overrides fall back.
func TestKeyMapApplyEmptyConfigKeepsDefaults(t *testing.T) {
	k := newKeyMap()
	k.applyConfig(KeyConfig{})
	if got := k.overlayGo.Keys(); len(got) != 2 || got[0] != "enter" || got[1] != "g" {
		t.Fatalf("unexpected overlay go keys %#v", got)
	}
	if got := k.rightNav.Keys(); len(got) != 1 || got[0] != "ctrl+s" {
		t.Fatalf("unexpected right nav keys %#v", got)
	}
}

// TestHelpMapsSwitchWhileEditing verifies the onboarding help follows the edit state.
func TestHelpMapsSwitchWhileEditing(t *testing.T) {
	k := newKeyMap()
	idle := onboardingHelp{k: k}.ShortHelp()
	editing := onboardingHelp{k: k, editing: true}.ShortHelp()
	if idle[0].Help().Desc != "go" {
		t.Fatalf("expected go first while idle, got %#v", idle[0].Help())
	}
	if editing[0].Help().Desc != "submit" {
		t.Fatalf("expected submit first while editing, got %#v", editing[0].Help())
	}
	if len(onboardingHelp{k: k}.FullHelp()) != 3 {
		t.Fatal("expected three full help columns")
	}
}
