package tui

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/evanschultz/kanstart/internal/onboarding"
	"github.com/evanschultz/kanstart/internal/template"
)

// LayoutConfig holds terminal cell spacing for the onboarding screen.
type LayoutConfig struct {
	GridUnit            int
	OverlayRegularWidth int
	CompactBreakpoint   int
	KeyboardRows        int
}

// Option defines a functional option for model configuration.
type Option func(*Model)

// DefaultLayoutConfig returns the default terminal layout.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		GridUnit:            1,
		OverlayRegularWidth: 34,
		CompactBreakpoint:   100,
		KeyboardRows:        3,
	}
}

// sessionLayout converts cell spacing to session layout constants.
func (c LayoutConfig) sessionLayout() onboarding.Layout {
	return onboarding.Layout{
		GridUnit:            float64(c.GridUnit),
		OverlayRegularWidth: float64(c.OverlayRegularWidth),
	}
}

// WithLayout sets terminal spacing.
func WithLayout(cfg LayoutConfig) Option {
	return func(m *Model) {
		if cfg.OverlayRegularWidth > 0 {
			m.layout = cfg
		}
	}
}

// WithLimits sets validation and debounce limits.
func WithLimits(limits onboarding.Limits) Option {
	return func(m *Model) {
		m.limits = limits
	}
}

// WithProvider sets the template provider.
func WithProvider(p template.Provider) Option {
	return func(m *Model) {
		m.provider = p
	}
}

// WithTemplate skips the picker and starts onboarding for kind.
func WithTemplate(kind template.Type) Option {
	return func(m *Model) {
		m.startKind = kind
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorderFactory sets how analytics recorders are built per template.
func WithRecorderFactory(fn func(template.Type) onboarding.Recorder) Option {
	return func(m *Model) {
		m.recorderFor = fn
	}
}

// WithClock sets the time source used by sessions.
func WithClock(clock func() time.Time) Option {
	return func(m *Model) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithClipboard sets the paste source.
func WithClipboard(read func() (string, error)) Option {
	return func(m *Model) {
		if read != nil {
			m.readClipboard = read
		}
	}
}

// WithKeyConfig applies key overrides.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// systemClipboard reads the system clipboard.
func systemClipboard() (string, error) {
	return clipboard.ReadAll()
}
