// Package prefs persists what the user last chose in the terminal UI.
// Preferences are stored in ~/.config/stag/prefs.toml unless configured
// otherwise. Broken or missing files never stop the application.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/divisio/stag/internal/jobs"
)

// Prefs holds user preferences. Unset toggles defer to the application config.
type Prefs struct {
	Theme          string `toml:"theme"`
	LastDir        string `toml:"last_dir,omitempty"`
	TagPrefix      string `toml:"tag_prefix,omitempty"`
	SkipTagged     *bool  `toml:"skip_tagged,omitempty"`
	Simulate       *bool  `toml:"simulate,omitempty"`
	ExactFilenames *bool  `toml:"exact_filenames,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/stag/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns preferences with nothing remembered.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), nil
	}

	prefs := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	prefs.TagPrefix = strings.TrimSpace(prefs.TagPrefix)

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// Remember stores the form values of a started job.
func (p *Prefs) Remember(cfg jobs.Config) {
	p.LastDir = cfg.TargetPath
	p.TagPrefix = cfg.TagPrefix
	p.SkipTagged = boolPtr(cfg.SkipTagged)
	p.Simulate = boolPtr(cfg.Simulate)
	p.ExactFilenames = boolPtr(cfg.ExactFilenames)
}

// Overlay returns base with the remembered values applied on top.
func (p Prefs) Overlay(base jobs.Config) jobs.Config {
	if p.LastDir != "" {
		base.TargetPath = p.LastDir
	}
	if p.TagPrefix != "" {
		base.TagPrefix = p.TagPrefix
	}
	base.SkipTagged = boolOr(p.SkipTagged, base.SkipTagged)
	base.Simulate = boolOr(p.Simulate, base.Simulate)
	base.ExactFilenames = boolOr(p.ExactFilenames, base.ExactFilenames)
	return base
}

func boolPtr(v bool) *bool { return &v }

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
