package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application settings. Values come from defaults, the
// TOML file and STAG_* environment variables, in increasing priority.
type Config struct {
	Path string // resolved config file location, present or not

	TagPrefix      string
	SkipTagged     bool
	Simulate       bool
	ExactFilenames bool
	ImageSize      int
	EventBuffer    int

	LogFile   string
	LogLevel  string
	PrefsFile string

	Model      ModelConfig
	Recognizer RecognizerConfig
}

// ModelConfig locates the recognition model on the hub and on disk.
type ModelConfig struct {
	RepoID   string
	Filename string
	Revision string
	CacheDir string // empty means the hub default
	Endpoint string
}

// RecognizerConfig names the external recognition program.
type RecognizerConfig struct {
	Command string
	Args    []string
}

const (
	envPrefix = "STAG"

	defaultConfigPath = "~/.config/stag/config.toml"
	defaultPrefsFile  = "~/.config/stag/prefs.toml"
	defaultLogFile    = "~/.local/state/stag/stag.log"
	defaultLogLevel   = "info"
	defaultTagPrefix  = "st"
	defaultImageSize  = 384
	defaultBuffer     = 256
	defaultRepoID     = "xinyu1205/recognize-anything-plus-model"
	defaultFilename   = "ram_plus_swin_large_14m.pth"
	defaultRevision   = "main"
	defaultEndpoint   = "https://huggingface.co"
	defaultRecognizer = "stag-recognize"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("tag_prefix", defaultTagPrefix)
	v.SetDefault("skip_tagged", true)
	v.SetDefault("simulate", false)
	v.SetDefault("exact_filenames", false)
	v.SetDefault("image_size", defaultImageSize)
	v.SetDefault("event_buffer", defaultBuffer)
	v.SetDefault("log_file", defaultLogFile)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("prefs_file", defaultPrefsFile)
	v.SetDefault("model.repo_id", defaultRepoID)
	v.SetDefault("model.filename", defaultFilename)
	v.SetDefault("model.revision", defaultRevision)
	v.SetDefault("model.cache_dir", "")
	v.SetDefault("model.endpoint", defaultEndpoint)
	v.SetDefault("recognizer.command", defaultRecognizer)
	v.SetDefault("recognizer.args", []string{})
}

// Load reads the config file at path (or the default location) and applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg := Config{
		Path:           resolved,
		TagPrefix:      orDefault(v.GetString("tag_prefix"), defaultTagPrefix),
		SkipTagged:     v.GetBool("skip_tagged"),
		Simulate:       v.GetBool("simulate"),
		ExactFilenames: v.GetBool("exact_filenames"),
		ImageSize:      v.GetInt("image_size"),
		EventBuffer:    v.GetInt("event_buffer"),
		LogFile:        mustExpand(orDefault(v.GetString("log_file"), defaultLogFile)),
		LogLevel:       strings.ToLower(orDefault(v.GetString("log_level"), defaultLogLevel)),
		PrefsFile:      mustExpand(orDefault(v.GetString("prefs_file"), defaultPrefsFile)),
		Model: ModelConfig{
			RepoID:   orDefault(v.GetString("model.repo_id"), defaultRepoID),
			Filename: orDefault(v.GetString("model.filename"), defaultFilename),
			Revision: orDefault(v.GetString("model.revision"), defaultRevision),
			Endpoint: orDefault(v.GetString("model.endpoint"), defaultEndpoint),
		},
		Recognizer: RecognizerConfig{
			Command: orDefault(v.GetString("recognizer.command"), defaultRecognizer),
			Args:    v.GetStringSlice("recognizer.args"),
		},
	}
	if dir := strings.TrimSpace(v.GetString("model.cache_dir")); dir != "" {
		cfg.Model.CacheDir = mustExpand(dir)
	}
	if cfg.ImageSize <= 0 {
		return Config{}, fmt.Errorf("image_size must be positive, got %d", cfg.ImageSize)
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultBuffer
	}
	return cfg, nil
}

// LogDir is the directory holding the application log.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
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
