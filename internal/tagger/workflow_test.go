package tagger

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/divisio/stag/internal/jobs"
	"github.com/divisio/stag/internal/xmp"
)

type fakeRecognizer struct {
	mu     sync.Mutex
	labels map[string][]string
	errs   map[string]error
	seen   []string
	closed bool
	before func(image string)
}

func (f *fakeRecognizer) Recognize(_ context.Context, image string) ([]string, error) {
	if f.before != nil {
		f.before(image)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, filepath.Base(image))
	if err := f.errs[filepath.Base(image)]; err != nil {
		return nil, err
	}
	if labels, ok := f.labels[filepath.Base(image)]; ok {
		return labels, nil
	}
	return []string{"dog", "grass"}, nil
}

func (f *fakeRecognizer) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRecognizer) factory() RecognizerFactory {
	return func(context.Context, string, int, io.Writer) (Recognizer, error) {
		return f, nil
	}
}

type capture struct {
	mu        sync.Mutex
	fragments []jobs.Fragment
}

func (c *capture) Emit(fr jobs.Fragment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fragments = append(c.fragments, fr)
}

func (c *capture) texts(origin jobs.Origin) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, fr := range c.fragments {
		if fr.Origin == origin {
			out = append(out, fr.Text)
		}
	}
	return out
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
}

func never() bool { return false }

func TestProcess_TagsImagesAndWritesSidecars(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "sub", "B.PNG"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".cache", "hidden.jpg"))

	rec := &fakeRecognizer{labels: map[string][]string{"B.PNG": {"cat"}}}
	out := &capture{}
	wf := New(Options{NewRecognizer: rec.factory()})

	err := wf.Process(context.Background(), "/model", jobs.NewConfig(root, "st", true, false, false), jobs.NewOutput(out), never)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "B.PNG"}, rec.seen)
	assert.True(t, rec.closed)

	s, err := xmp.Read(filepath.Join(root, "a.xmp"))
	require.NoError(t, err)
	assert.Equal(t, []string{"dog", "grass"}, s.Subjects())
	assert.Equal(t, []string{"st|dog", "st|grass"}, s.Hierarchical())

	s, err = xmp.Read(filepath.Join(root, "sub", "B.xmp"))
	require.NoError(t, err)
	assert.Equal(t, []string{"st|cat"}, s.Hierarchical())

	normal := out.texts(jobs.OriginNormal)
	assert.Contains(t, normal, "Found 2 images")
	assert.Equal(t, "Processed 2 images: 2 tagged, 0 skipped, 0 failed", normal[len(normal)-1])
	assert.Empty(t, out.texts(jobs.OriginError))
}

func TestProcess_ExactFilenames(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "PICT0001.JPG"))
	wf := New(Options{NewRecognizer: (&fakeRecognizer{}).factory()})

	err := wf.Process(context.Background(), "", jobs.NewConfig(root, "", true, false, true), jobs.NewOutput(nil), never)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "PICT0001.JPG.xmp"))
}

func TestProcess_SkipsAlreadyTaggedImages(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "b.jpg"))
	require.NoError(t, xmp.Write(filepath.Join(root, "a.xmp"), []string{"old"}, []string{"st|old"}))

	rec := &fakeRecognizer{}
	out := &capture{}
	wf := New(Options{NewRecognizer: rec.factory()})
	require.NoError(t, wf.Process(context.Background(), "", jobs.NewConfig(root, "st", true, false, false), jobs.NewOutput(out), never))

	assert.Equal(t, []string{"b.jpg"}, rec.seen)
	assert.Contains(t, out.texts(jobs.OriginNormal), "Skipping a.jpg (already tagged)")

	// A different prefix does not count as tagged.
	rec = &fakeRecognizer{}
	wf = New(Options{NewRecognizer: rec.factory()})
	require.NoError(t, wf.Process(context.Background(), "", jobs.NewConfig(root, "auto", true, false, false), jobs.NewOutput(nil), never))
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, rec.seen)
}

func TestProcess_ForceRetagsWhenSkipDisabled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	require.NoError(t, xmp.Write(filepath.Join(root, "a.xmp"), []string{"old"}, []string{"st|old"}))

	rec := &fakeRecognizer{}
	wf := New(Options{NewRecognizer: rec.factory()})
	require.NoError(t, wf.Process(context.Background(), "", jobs.NewConfig(root, "st", false, false, false), jobs.NewOutput(nil), never))

	assert.Equal(t, []string{"a.jpg"}, rec.seen)
	s, err := xmp.Read(filepath.Join(root, "a.xmp"))
	require.NoError(t, err)
	assert.Equal(t, []string{"st|old", "st|dog", "st|grass"}, s.Hierarchical())
}

func TestProcess_SimulateWritesNothing(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	out := &capture{}
	wf := New(Options{NewRecognizer: (&fakeRecognizer{}).factory()})

	require.NoError(t, wf.Process(context.Background(), "", jobs.NewConfig(root, "st", true, true, false), jobs.NewOutput(out), never))

	assert.NoFileExists(t, filepath.Join(root, "a.xmp"))
	assert.Contains(t, out.texts(jobs.OriginNormal), "a.jpg: dog, grass")
}

func TestProcess_PerImageErrorsContinue(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "b.jpg"))
	rec := &fakeRecognizer{errs: map[string]error{"a.jpg": errors.New("cannot decode")}}
	out := &capture{}
	wf := New(Options{NewRecognizer: rec.factory()})

	require.NoError(t, wf.Process(context.Background(), "", jobs.NewConfig(root, "st", true, false, false), jobs.NewOutput(out), never))

	assert.Equal(t, []string{"Error processing a.jpg: cannot decode"}, out.texts(jobs.OriginError))
	assert.FileExists(t, filepath.Join(root, "b.xmp"))
	normal := out.texts(jobs.OriginNormal)
	assert.Equal(t, "Processed 2 images: 1 tagged, 0 skipped, 1 failed", normal[len(normal)-1])
}

func TestProcess_RecognizerExitFailsRun(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "b.jpg"))
	rec := &fakeRecognizer{errs: map[string]error{"a.jpg": ErrRecognizerExited}}
	wf := New(Options{NewRecognizer: rec.factory()})

	err := wf.Process(context.Background(), "", jobs.NewConfig(root, "st", true, false, false), jobs.NewOutput(nil), never)

	var imgErr *ImageError
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, StageRecognize, imgErr.Stage)
	assert.ErrorIs(t, err, ErrRecognizerExited)
	assert.Equal(t, []string{"a.jpg"}, rec.seen)
}

func TestProcess_CancelStopsBeforeNextImage(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		touch(t, filepath.Join(root, name))
	}
	var token jobs.Token
	rec := &fakeRecognizer{before: func(image string) {
		if strings.HasSuffix(image, "a.jpg") {
			token.Request()
		}
	}}
	wf := New(Options{NewRecognizer: rec.factory()})

	err := wf.Process(context.Background(), "", jobs.NewConfig(root, "st", true, false, false), jobs.NewOutput(nil), token.Poll())

	require.ErrorIs(t, err, jobs.ErrCancelled)
	assert.Equal(t, []string{"a.jpg"}, rec.seen)
	assert.FileExists(t, filepath.Join(root, "a.xmp"))
	assert.NoFileExists(t, filepath.Join(root, "b.xmp"))
	assert.True(t, rec.closed)
}

func TestProcess_InvalidTarget(t *testing.T) {
	wf := New(Options{NewRecognizer: (&fakeRecognizer{}).factory()})
	file := filepath.Join(t.TempDir(), "x.jpg")
	touch(t, file)

	for _, target := range []string{filepath.Join(t.TempDir(), "missing"), file} {
		err := wf.Process(context.Background(), "", jobs.NewConfig(target, "st", true, false, false), jobs.NewOutput(nil), never)
		var imgErr *ImageError
		require.ErrorAs(t, err, &imgErr)
		assert.Equal(t, StageScan, imgErr.Stage)
	}
}

func TestProcess_RecognizerStartFailure(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	wf := New(Options{NewRecognizer: func(context.Context, string, int, io.Writer) (Recognizer, error) {
		return nil, errors.New("model file corrupt")
	}})

	err := wf.Process(context.Background(), "/m", jobs.NewConfig(root, "st", true, false, false), jobs.NewOutput(nil), never)
	var imgErr *ImageError
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, StageLoad, imgErr.Stage)
	assert.Contains(t, err.Error(), "model file corrupt")
}

func TestProcess_EmptyDirectorySucceedsWithoutRecognizer(t *testing.T) {
	out := &capture{}
	wf := New(Options{})
	require.NoError(t, wf.Process(context.Background(), "", jobs.NewConfig(t.TempDir(), "st", true, false, false), jobs.NewOutput(out), never))
	assert.Contains(t, out.texts(jobs.OriginNormal), "Processed 0 images: 0 tagged, 0 skipped, 0 failed")
}

func TestHierarchical(t *testing.T) {
	assert.Equal(t, []string{"st|a", "st|b c"}, Hierarchical("st", []string{"a", "b c"}))
}

func TestProcess_SidecarWriteFailureIsCountedAndLogged(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "b.jpg"))
	// A directory where the sidecar should go cannot be written.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a.xmp"), 0o755))

	core, logs := observer.New(zap.WarnLevel)
	out := &capture{}
	wf := New(Options{NewRecognizer: (&fakeRecognizer{}).factory(), Logger: zap.New(core)})

	err := wf.Process(context.Background(), "", jobs.NewConfig(root, "st", false, false, false), jobs.NewOutput(out), never)
	require.NoError(t, err)

	errs := out.texts(jobs.OriginError)
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "Error writing a.xmp:"), errs[0])

	failed := logs.FilterMessage("image failed").FilterField(zap.String("stage", StageSidecar)).All()
	require.Len(t, failed, 1)
	assert.Equal(t, filepath.Join(root, "a.xmp"), failed[0].ContextMap()["path"])

	normal := out.texts(jobs.OriginNormal)
	assert.Equal(t, "Processed 2 images: 1 tagged, 0 skipped, 1 failed", normal[len(normal)-1])
	assert.FileExists(t, filepath.Join(root, "b.xmp"))
}
