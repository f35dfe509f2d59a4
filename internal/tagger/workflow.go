package tagger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/divisio/stag/internal/jobs"
	"github.com/divisio/stag/internal/xmp"
)

// DefaultImageSize is the input resolution passed to the recognizer.
const DefaultImageSize = 384

// Options configure a Workflow.
type Options struct {
	NewRecognizer RecognizerFactory
	ImageSize     int
	Pattern       string
	Logger        *zap.Logger
}

// Workflow tags a directory tree of images.
type Workflow struct {
	newRecognizer RecognizerFactory
	imageSize     int
	pattern       string
	logger        *zap.Logger
}

var _ jobs.Workflow = (*Workflow)(nil)

// New builds a Workflow with defaults applied.
func New(opts Options) *Workflow {
	size := opts.ImageSize
	if size <= 0 {
		size = DefaultImageSize
	}
	pattern := strings.TrimSpace(opts.Pattern)
	if pattern == "" {
		pattern = DefaultImagePattern
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{newRecognizer: opts.NewRecognizer, imageSize: size, pattern: pattern, logger: logger}
}

// Summary counts what happened to the images of one run.
type Summary struct {
	Found   int
	Tagged  int
	Skipped int
	Failed  int
}

func (s Summary) String() string {
	return fmt.Sprintf("Processed %d images: %d tagged, %d skipped, %d failed", s.Found, s.Tagged, s.Skipped, s.Failed)
}

// Process implements jobs.Workflow.
func (w *Workflow) Process(ctx context.Context, modelPath string, cfg jobs.Config, out *jobs.Output, canceled jobs.Poll) error {
	root := cfg.TargetPath
	info, err := os.Stat(root)
	if err != nil {
		return &ImageError{Stage: StageScan, Path: root, Err: err}
	}
	if !info.IsDir() {
		return &ImageError{Stage: StageScan, Path: root, Err: errors.New("not a directory")}
	}

	out.Printf("Scanning %s", root)
	images, err := scan(root, w.pattern, canceled)
	if errors.Is(err, jobs.ErrCancelled) {
		return err
	}
	if err != nil {
		return &ImageError{Stage: StageScan, Path: root, Err: err}
	}
	out.Printf("Found %d images", len(images))

	summary := Summary{Found: len(images)}
	if len(images) == 0 {
		out.Println(summary.String())
		return nil
	}
	if cfg.Simulate {
		out.Println("Simulation mode: no sidecar files will be written")
	}
	if w.newRecognizer == nil {
		return &ImageError{Stage: StageLoad, Err: errors.New("no recognizer configured")}
	}

	out.Println("Loading model...")
	stderr := out.Stderr()
	defer stderr.Flush()
	rec, err := w.newRecognizer(ctx, modelPath, w.imageSize, stderr)
	if err != nil {
		return &ImageError{Stage: StageLoad, Path: modelPath, Err: err}
	}
	defer func() {
		if err := rec.Close(); err != nil {
			w.logger.Warn("recognizer close failed", zap.Error(err))
		}
	}()

	started := time.Now()
	for i, image := range images {
		if canceled() {
			w.logger.Info("tagging cancelled", zap.Int("done", i), zap.Int("total", len(images)))
			out.Println(summary.String())
			return jobs.ErrCancelled
		}
		err := w.tagImage(ctx, rec, root, image, cfg, out, &summary)
		if err != nil {
			return err
		}
	}

	w.logger.Info("tagging finished",
		zap.Int("found", summary.Found),
		zap.Int("tagged", summary.Tagged),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", time.Since(started)),
	)
	out.Println(summary.String())
	return nil
}

// tagImage handles one image. Only errors that make further images pointless
// are returned; everything else is reported and counted.
func (w *Workflow) tagImage(ctx context.Context, rec Recognizer, root, image string, cfg jobs.Config, out *jobs.Output, summary *Summary) error {
	name := displayName(root, image)
	sidecarPath := xmp.Locate(image, cfg.ExactFilenames)

	if cfg.SkipTagged {
		sidecar, err := xmp.Read(sidecarPath)
		if err != nil {
			w.fail(out, summary, &ImageError{Stage: StageSidecar, Path: sidecarPath, Err: err},
				"Error reading sidecar for %s: %v", name, err)
			return nil
		}
		if sidecar.HasPrefix(cfg.TagPrefix) {
			summary.Skipped++
			out.Printf("Skipping %s (already tagged)", name)
			return nil
		}
	}

	labels, err := rec.Recognize(ctx, image)
	if errors.Is(err, ErrRecognizerExited) {
		return &ImageError{Stage: StageRecognize, Path: image, Err: err}
	}
	if err != nil {
		w.fail(out, summary, &ImageError{Stage: StageRecognize, Path: image, Err: err},
			"Error processing %s: %v", name, err)
		return nil
	}
	if len(labels) == 0 {
		out.Printf("%s: no labels", name)
		return nil
	}
	out.Printf("%s: %s", name, strings.Join(labels, ", "))
	if cfg.Simulate {
		summary.Tagged++
		return nil
	}

	if err := xmp.Write(sidecarPath, labels, Hierarchical(cfg.TagPrefix, labels)); err != nil {
		w.fail(out, summary, &ImageError{Stage: StageSidecar, Path: sidecarPath, Err: err},
			"Error writing %s: %v", filepath.Base(sidecarPath), err)
		return nil
	}
	summary.Tagged++
	return nil
}

// fail counts an image that could not be tagged and reports it.
func (w *Workflow) fail(out *jobs.Output, summary *Summary, ierr *ImageError, format string, args ...any) {
	summary.Failed++
	w.logger.Warn("image failed",
		zap.String("stage", ierr.Stage),
		zap.String("path", ierr.Path),
		zap.Error(ierr.Err),
	)
	out.Errorf(format, args...)
}

// Hierarchical places labels below prefix.
func Hierarchical(prefix string, labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, prefix+xmp.HierarchySeparator+l)
	}
	return out
}

func displayName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
