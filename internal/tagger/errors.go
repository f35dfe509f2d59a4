package tagger

import (
	"errors"
	"fmt"
)

// Stages reported by ImageError.
const (
	StageScan      = "scan"
	StageLoad      = "load"
	StageRecognize = "recognize"
	StageSidecar   = "sidecar"
)

// ErrRecognizerExited is returned once the recognizer process is gone.
var ErrRecognizerExited = errors.New("recognizer exited")

// ImageError is a stage-aware error for one image or for the run as a whole.
type ImageError struct {
	Stage string
	Path  string
	Err   error
}

// Error formats the failure for logs and output.
func (e *ImageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ImageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
