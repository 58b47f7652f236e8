package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database     DatabaseConfig     `toml:"database"`
	Logging      LoggingConfig      `toml:"logging"`
	Onboarding   OnboardingConfig   `toml:"onboarding"`
	Layout       LayoutConfig       `toml:"layout"`
	Localization LocalizationConfig `toml:"localization"`
	Telemetry    TelemetryConfig    `toml:"telemetry"`
	Keys         KeysConfig         `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type OnboardingConfig struct {
	MaxChars   int `toml:"max_chars"`
	DebounceMS int `toml:"debounce_ms"`
}

// Debounce returns the debounce window as a duration.
func (o OnboardingConfig) Debounce() time.Duration {
	return time.Duration(o.DebounceMS) * time.Millisecond
}

type LayoutConfig struct {
	GridUnit            int `toml:"grid_unit"`
	OverlayRegularWidth int `toml:"overlay_regular_width"`
	CompactBreakpoint   int `toml:"compact_breakpoint"`
	KeyboardRows        int `toml:"keyboard_rows"`
}

type LocalizationConfig struct {
	Catalog string `toml:"catalog"`
}

type TelemetryConfig struct {
	Enabled    bool `toml:"enabled"`
	Stdout     bool `toml:"stdout"`
	IntervalMS int  `toml:"interval_ms"`
}

// Interval returns the metric export interval as a duration.
func (t TelemetryConfig) Interval() time.Duration {
	return time.Duration(t.IntervalMS) * time.Millisecond
}

// KeysConfig overrides onboarding key bindings. Blank values keep the built-in keys.
type KeysConfig struct {
	OverlayGo   string `toml:"overlay_go"`
	OverlaySkip string `toml:"overlay_skip"`
	RightNav    string `toml:"right_nav"`
	SkipToBoard string `toml:"skip_to_board"`
}

var validLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: false,
				Dir:     "",
			},
		},
		Onboarding: OnboardingConfig{
			MaxChars:   35,
			DebounceMS: 200,
		},
		Layout: LayoutConfig{
			GridUnit:            1,
			OverlayRegularWidth: 34,
			CompactBreakpoint:   100,
			KeyboardRows:        3,
		},
		Telemetry: TelemetryConfig{
			Enabled:    false,
			Stdout:     false,
			IntervalMS: 10000,
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if _, ok := validLevels[level]; !ok {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Onboarding.MaxChars <= 0 {
		return fmt.Errorf("onboarding.max_chars must be > 0")
	}
	if c.Onboarding.DebounceMS < 0 {
		return fmt.Errorf("onboarding.debounce_ms must be >= 0")
	}

	if c.Layout.GridUnit < 0 {
		return fmt.Errorf("layout.grid_unit must be >= 0")
	}
	if c.Layout.OverlayRegularWidth <= 0 {
		return fmt.Errorf("layout.overlay_regular_width must be > 0")
	}
	if c.Layout.CompactBreakpoint < 0 {
		return fmt.Errorf("layout.compact_breakpoint must be >= 0")
	}
	if c.Layout.KeyboardRows < 0 {
		return fmt.Errorf("layout.keyboard_rows must be >= 0")
	}

	if c.Telemetry.Enabled && c.Telemetry.IntervalMS <= 0 {
		return fmt.Errorf("telemetry.interval_ms must be > 0 when telemetry is enabled")
	}

	if err := c.Keys.validate(); err != nil {
		return err
	}

	return nil
}

// validate rejects duplicate key overrides.
func (k KeysConfig) validate() error {
	seen := map[string]string{}
	for _, entry := range []struct{ name, value string }{
		{"keys.overlay_go", k.OverlayGo},
		{"keys.overlay_skip", k.OverlaySkip},
		{"keys.right_nav", k.RightNav},
		{"keys.skip_to_board", k.SkipToBoard},
	} {
		v := strings.TrimSpace(entry.value)
		if v == "" {
			continue
		}
		if prev, ok := seen[v]; ok {
			return fmt.Errorf("%s duplicates %s (%q)", entry.name, prev, entry.value)
		}
		seen[v] = entry.name
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
