package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/divisio/stag/internal/hub"
	"github.com/divisio/stag/internal/jobs"
)

const (
	DefaultRepo     = "xinyu1205/recognize-anything-plus-model"
	DefaultFilename = "ram_plus_swin_large_14m.pth"

	defaultProgressEvery = 2 * time.Second
)

// WelcomeNotice is shown once before the first download.
const WelcomeNotice = "In order to be able to tag your images, STAG now needs to download " +
	"the recognize-anything model from huggingface. This might take a while " +
	"and is perfectly normal. The download is only done once, so the next " +
	"time you start STAG you will be ready to go in an instant."

// Options configure a Provisioner.
type Options struct {
	Repo          string
	Filename      string
	Revision      string
	CacheDir      string // empty resolves via hub.CacheRoot
	Client        hub.FileResolver
	Logger        *zap.Logger
	ProgressEvery time.Duration
}

// Provisioner keeps the recognition model in the local hub cache.
type Provisioner struct {
	layout        hub.CacheLayout
	file          string
	revision      string
	client        hub.FileResolver
	logger        *zap.Logger
	progressEvery time.Duration
}

var _ jobs.Provisioner = (*Provisioner)(nil)

// New validates opts and resolves the cache root.
func New(opts Options) (*Provisioner, error) {
	root, err := hub.CacheRoot(opts.CacheDir)
	if err != nil {
		return nil, err
	}
	repo := strings.TrimSpace(opts.Repo)
	if repo == "" {
		repo = DefaultRepo
	}
	file := strings.TrimSpace(opts.Filename)
	if file == "" {
		file = DefaultFilename
	}
	revision := strings.TrimSpace(opts.Revision)
	if revision == "" {
		revision = hub.DefaultRevision
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = defaultProgressEvery
	}
	return &Provisioner{
		layout:        hub.CacheLayout{Root: root, Repo: repo},
		file:          file,
		revision:      revision,
		client:        opts.Client,
		logger:        logger.With(zap.String("repo", repo), zap.String("file", file)),
		progressEvery: every,
	}, nil
}

// FirstRun reports whether nothing of the repository is cached yet.
func (p *Provisioner) FirstRun() bool {
	_, err := os.Stat(p.layout.RepoDir())
	return errors.Is(err, os.ErrNotExist)
}

// Cached returns the model path when the configured revision is fully cached.
func (p *Provisioner) Cached() (string, bool) {
	raw, err := os.ReadFile(p.layout.RefPath(p.revision))
	if err != nil {
		return "", false
	}
	commit := strings.TrimSpace(string(raw))
	if commit == "" {
		return "", false
	}
	path := p.layout.SnapshotPath(commit, p.file)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Ensure returns the local model path, downloading the file when needed.
// A cached model is returned without contacting the hub.
func (p *Provisioner) Ensure(ctx context.Context, out *jobs.Output, canceled jobs.Poll) (string, error) {
	if path, ok := p.Cached(); ok {
		p.logger.Debug("model cached", zap.String("path", path))
		return path, nil
	}
	if p.FirstRun() {
		out.Println("First run – now downloading the model file.")
		out.Println("This process can take a little while and is only executed once.")
	}
	if canceled() {
		return "", jobs.ErrCancelled
	}
	if p.client == nil {
		return "", fmt.Errorf("model %s is not cached and no hub client is configured", p.file)
	}

	info, err := p.client.Resolve(ctx, p.layout.Repo, p.file, p.revision)
	if err != nil {
		return "", fmt.Errorf("resolve model: %w", err)
	}
	p.logger.Info("model resolved",
		zap.String("commit", info.Commit),
		zap.String("etag", info.ETag),
		zap.Int64("size", info.Size),
	)

	snapshot := p.layout.SnapshotPath(info.Commit, p.file)
	if _, err := os.Stat(snapshot); err != nil {
		blob := p.layout.BlobPath(info.ETag)
		if _, err := os.Stat(blob); errors.Is(err, os.ErrNotExist) {
			if err := p.download(ctx, info, out, canceled); err != nil {
				return "", err
			}
		} else if err != nil {
			return "", fmt.Errorf("check blob: %w", err)
		}
		if err := linkSnapshot(blob, snapshot); err != nil {
			return "", err
		}
	}
	if err := writeRef(p.layout.RefPath(p.revision), info.Commit); err != nil {
		return "", err
	}
	out.Println("Model ready.")
	return snapshot, nil
}

func (p *Provisioner) download(ctx context.Context, info hub.FileInfo, out *jobs.Output, canceled jobs.Poll) error {
	blob := p.layout.BlobPath(info.ETag)
	tmpPath := p.layout.IncompletePath(info.ETag)
	if err := os.MkdirAll(filepath.Dir(blob), 0o755); err != nil {
		return fmt.Errorf("prepare cache directory: %w", err)
	}
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	if info.Size > 0 {
		out.Printf("Downloading %s (%s)", p.file, humanize.Bytes(uint64(info.Size)))
	} else {
		out.Printf("Downloading %s", p.file)
	}
	started := time.Now()
	report := rate.Sometimes{First: 1, Interval: p.progressEvery}
	n, copyErr := p.client.Download(ctx, p.layout.Repo, p.file, info.Commit, file, func(done, total int64) error {
		if canceled() {
			return jobs.ErrCancelled
		}
		report.Do(func() {
			out.Println(progressLine(done, total))
		})
		return nil
	})
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		if errors.Is(copyErr, jobs.ErrCancelled) {
			p.logger.Info("model download cancelled", zap.Int64("bytes", n))
			return jobs.ErrCancelled
		}
		return fmt.Errorf("download model: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temporary file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, blob); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move downloaded file into place: %w", err)
	}
	p.logger.Info("model downloaded", zap.Int64("bytes", n), zap.Duration("elapsed", time.Since(started)))
	out.Println(progressLine(n, n))
	return nil
}

func progressLine(done, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("Downloaded %s", humanize.Bytes(uint64(done)))
	}
	pct := float64(done) / float64(total) * 100
	return fmt.Sprintf("Downloaded %s of %s (%.0f%%)", humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)), pct)
}

// linkSnapshot exposes blob at snapshot, preferring a relative symlink and
// falling back to a copy where symlinks are unavailable.
func linkSnapshot(blob, snapshot string) error {
	if err := os.MkdirAll(filepath.Dir(snapshot), 0o755); err != nil {
		return fmt.Errorf("prepare snapshot directory: %w", err)
	}
	_ = os.Remove(snapshot)
	if rel, err := filepath.Rel(filepath.Dir(snapshot), blob); err == nil {
		if err := os.Symlink(rel, snapshot); err == nil {
			return nil
		}
	}
	return copyFile(blob, snapshot)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open blob: %w", err)
	}
	defer func() { _ = in.Close() }()
	outFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	if _, err := io.Copy(outFile, in); err != nil {
		_ = outFile.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy blob: %w", err)
	}
	return outFile.Close()
}

func writeRef(path, commit string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare refs directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(commit), 0o644); err != nil {
		return fmt.Errorf("write ref: %w", err)
	}
	return nil
}
