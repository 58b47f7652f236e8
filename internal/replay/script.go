package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/evanschultz/kanstart/internal/onboarding"
	"github.com/evanschultz/kanstart/internal/template"
)

// ErrInvalidScript reports a script that cannot be replayed.
var ErrInvalidScript = errors.New("invalid replay script")

// Script is a recorded onboarding run.
type Script struct {
	Template    string       `yaml:"template"`
	Environment *Environment `yaml:"environment,omitempty"`
	Events      []Step       `yaml:"events"`
}

// Environment is the initial viewport state of a script.
type Environment struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Trait    string  `yaml:"trait"`
	Keyboard float64 `yaml:"keyboard"`
}

// Step is one scripted input.
type Step struct {
	Type    string  `yaml:"type"`
	Field   string  `yaml:"field,omitempty"`
	Index   int     `yaml:"index,omitempty"`
	Text    string  `yaml:"text,omitempty"`
	Overlay string  `yaml:"overlay,omitempty"`
	Width   float64 `yaml:"width,omitempty"`
	Height  float64 `yaml:"height,omitempty"`
	Trait   string  `yaml:"trait,omitempty"`
	Source  string  `yaml:"source,omitempty"`
	MS      int     `yaml:"ms,omitempty"`
}

// Load reads a script file.
func Load(path string) (Script, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read replay script: %w", err)
	}
	return Parse(bytes.NewReader(content))
}

// Parse decodes a YAML script and rejects unknown keys.
func Parse(r io.Reader) (Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Script{}, fmt.Errorf("%w: empty script", ErrInvalidScript)
		}
		return Script{}, fmt.Errorf("decode replay script: %w", err)
	}
	if _, err := template.ParseType(s.Template); err != nil {
		return Script{}, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	return s, nil
}

// environment converts the script environment to session options.
func (e *Environment) environment() (onboarding.Environment, error) {
	if e == nil {
		return onboarding.Environment{}, nil
	}
	trait, err := parseTrait(e.Trait)
	if err != nil {
		return onboarding.Environment{}, err
	}
	return onboarding.Environment{Width: e.Width, Height: e.Height, Trait: trait, Keyboard: e.Keyboard}, nil
}

// parseTrait resolves a size class name. Empty means regular.
func parseTrait(raw string) (onboarding.Trait, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "regular":
		return onboarding.Regular, nil
	case "compact":
		return onboarding.Compact, nil
	default:
		return onboarding.Regular, fmt.Errorf("%w: unknown trait %q", ErrInvalidScript, raw)
	}
}

// field resolves the step's field reference.
func (s Step) field() (onboarding.Field, error) {
	switch strings.ToLower(strings.TrimSpace(s.Field)) {
	case "board":
		return onboarding.BoardNameField(), nil
	case "list":
		return onboarding.ListNameField(s.Index), nil
	case "card":
		return onboarding.CardTitleField(s.Index), nil
	default:
		return onboarding.Field{}, fmt.Errorf("%w: unknown field %q", ErrInvalidScript, s.Field)
	}
}

// overlay resolves the step's overlay reference.
func (s Step) overlay() (onboarding.OverlayStep, error) {
	step, ok := onboarding.ParseOverlayStep(strings.TrimSpace(s.Overlay))
	if !ok {
		return 0, fmt.Errorf("%w: unknown overlay %q", ErrInvalidScript, s.Overlay)
	}
	return step, nil
}

// event converts a step into a session event. Wait steps return nil.
func (s Step) event() (onboarding.Event, error) {
	switch s.Type {
	case "edit_began", "edit_changed", "edit_ended", "edit_submitted":
		f, err := s.field()
		if err != nil {
			return nil, err
		}
		switch s.Type {
		case "edit_began":
			return onboarding.EditBegan{Field: f}, nil
		case "edit_changed":
			return onboarding.EditChanged{Field: f, Text: s.Text}, nil
		case "edit_ended":
			return onboarding.EditEnded{Field: f}, nil
		default:
			return onboarding.EditSubmitted{Field: f}, nil
		}
	case "go":
		o, err := s.overlay()
		if err != nil {
			return nil, err
		}
		return onboarding.GoTapped{Overlay: o}, nil
	case "skip":
		o, err := s.overlay()
		if err != nil {
			return nil, err
		}
		return onboarding.SkipTapped{Overlay: o}, nil
	case "right_nav_skip":
		return onboarding.RightNavSkipTapped{}, nil
	case "editing_button":
		return onboarding.EditingButtonTapped{}, nil
	case "resize":
		return onboarding.ViewportResized{Width: s.Width, Height: s.Height}, nil
	case "trait":
		trait, err := parseTrait(s.Trait)
		if err != nil {
			return nil, err
		}
		return onboarding.TraitChanged{Trait: trait}, nil
	case "keyboard":
		return onboarding.KeyboardChanged{Height: s.Height}, nil
	case "fail":
		switch onboarding.Source(s.Source) {
		case onboarding.SourceViewport, onboarding.SourceTrait, onboarding.SourceKeyboard, onboarding.SourceText:
			return onboarding.SourceFailed{Source: onboarding.Source(s.Source), Err: errors.New("replayed failure")}, nil
		}
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidScript, s.Source)
	case "wait":
		if s.MS < 0 {
			return nil, fmt.Errorf("%w: negative wait", ErrInvalidScript)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidScript, s.Type)
	}
}
