package xmp

import (
	"os"
	"path/filepath"
	"strings"
)

// Locate returns the sidecar path for image. An existing NAME.EXT.xmp or
// NAME.xmp is reused regardless of case. Otherwise NAME.xmp is proposed, or
// NAME.EXT.xmp when exact is set.
func Locate(image string, exact bool) string {
	dir := filepath.Dir(image)
	base := filepath.Base(image)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	exactName := base + ".xmp"
	shortName := stem + ".xmp"

	if entries, err := os.ReadDir(dir); err == nil {
		var short string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch name := e.Name(); {
			case strings.EqualFold(name, exactName):
				return filepath.Join(dir, name)
			case strings.EqualFold(name, shortName) && short == "":
				short = name
			}
		}
		if short != "" {
			return filepath.Join(dir, short)
		}
	}
	if exact {
		return filepath.Join(dir, exactName)
	}
	return filepath.Join(dir, shortName)
}
