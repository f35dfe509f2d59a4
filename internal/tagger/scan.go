package tagger

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/divisio/stag/internal/jobs"
)

// DefaultImagePattern selects the file types the recognizer understands.
// Names are lowered before matching.
const DefaultImagePattern = "*.{jpg,jpeg,png,webp,bmp,tif,tiff,heic}"

// scan lists the images below root in lexical order. Hidden directories are
// not entered. canceled is polled for every directory.
func scan(root, pattern string, canceled jobs.Poll) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid image pattern %q", pattern)
	}
	var images []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if canceled() {
				return jobs.ErrCancelled
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ok, err := doublestar.Match(pattern, strings.ToLower(d.Name()))
		if err != nil {
			return err
		}
		if ok {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(images)
	return images, nil
}
