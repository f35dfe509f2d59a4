package hub

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CacheRoot picks the hub cache directory. An explicit value wins, then
// HF_HUB_CACHE, then HF_HOME/hub, then ~/.cache/huggingface/hub.
func CacheRoot(configured string) (string, error) {
	if v := strings.TrimSpace(configured); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv("HF_HUB_CACHE")); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv("HF_HOME")); v != "" {
		return filepath.Join(v, "hub"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "huggingface", "hub"), nil
}
