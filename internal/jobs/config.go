package jobs

import "strings"

// DefaultTagPrefix is used when the caller leaves the prefix blank.
const DefaultTagPrefix = "st"

// Config is the immutable description of one tagging job. It is captured when
// a job is started and passed by value to the worker.
type Config struct {
	TargetPath     string
	TagPrefix      string
	SkipTagged     bool
	Simulate       bool
	ExactFilenames bool
}

// NewConfig builds a Config, substituting DefaultTagPrefix for a blank prefix.
// The target path is forwarded untouched; the workflow decides whether it is usable.
func NewConfig(target, prefix string, skipTagged, simulate, exactFilenames bool) Config {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultTagPrefix
	}
	return Config{
		TargetPath:     target,
		TagPrefix:      prefix,
		SkipTagged:     skipTagged,
		Simulate:       simulate,
		ExactFilenames: exactFilenames,
	}
}
