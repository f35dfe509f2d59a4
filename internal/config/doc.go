// Package config loads STAG's application settings.
//
// # Overview
//
// Settings are resolved by viper from three layers, later layers winning:
//
//  1. Built-in defaults
//  2. The TOML file at the given path, or ~/.config/stag/config.toml
//  3. STAG_* environment variables (dots become underscores, so
//     model.cache_dir is STAG_MODEL_CACHE_DIR)
//
// A missing config file is not an error. STAG works out of the box and only
// needs a file when the defaults do not fit.
//
// # Default Values
//
//   - tag_prefix: "st"
//   - skip_tagged: true
//   - simulate, exact_filenames: false
//   - image_size: 384
//   - event_buffer: 256
//   - log_file: ~/.local/state/stag/stag.log
//   - log_level: info
//   - prefs_file: ~/.config/stag/prefs.toml
//   - model.repo_id: xinyu1205/recognize-anything-plus-model
//   - model.filename: ram_plus_swin_large_14m.pth
//   - model.revision: main
//   - model.cache_dir: empty (hub default, see package hub)
//   - model.endpoint: https://huggingface.co
//   - recognizer.command: stag-recognize
//   - recognizer.args: none
//
// # TOML Format
//
//	tag_prefix = "st"
//	log_level = "debug"
//
//	[model]
//	cache_dir = "~/models/hf"
//
//	[recognizer]
//	command = "/opt/ram/bin/stag-recognize"
//	args = ["--device", "cuda"]
//
// # Path Expansion
//
// Tilde expansion and conversion to absolute paths are applied to the config
// file location, log_file, prefs_file and model.cache_dir.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//   - A non-positive image_size
//
// Blank string values fall back to their defaults rather than failing.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//		log.Fatalf("failed to load config: %v", err)
//	}
//	logger, closeLog, err := logging.New(cfg.LogFile, cfg.LogLevel)
//
// Load uses its own viper instance, so there is no global state and tests
// can call it repeatedly.
package config
