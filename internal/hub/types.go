package hub

import (
	"path/filepath"
	"strings"
)

// DefaultRevision is the branch resolved when none is configured.
const DefaultRevision = "main"

// FileInfo describes one file of a hub repository at a resolved commit.
type FileInfo struct {
	Repo     string
	File     string
	Revision string
	Commit   string
	ETag     string
	Size     int64 // -1 when unknown
}

// RepoFolderName is the cache directory name of a model repository,
// e.g. "models--owner--name".
func RepoFolderName(repo string) string {
	parts := strings.Split(strings.Trim(repo, "/"), "/")
	return strings.Join(append([]string{"models"}, parts...), "--")
}

// CacheLayout locates the files of one repository inside a hub cache root.
type CacheLayout struct {
	Root string
	Repo string
}

// RepoDir is the repository folder below the cache root.
func (l CacheLayout) RepoDir() string {
	return filepath.Join(l.Root, RepoFolderName(l.Repo))
}

// RefPath is the file that records the commit a revision points at.
func (l CacheLayout) RefPath(revision string) string {
	return filepath.Join(l.RepoDir(), "refs", revision)
}

// SnapshotPath is where file lives for commit.
func (l CacheLayout) SnapshotPath(commit, file string) string {
	return filepath.Join(l.RepoDir(), "snapshots", commit, filepath.FromSlash(file))
}

// BlobPath is the content-addressed location for etag.
func (l CacheLayout) BlobPath(etag string) string {
	return filepath.Join(l.RepoDir(), "blobs", etag)
}

// IncompletePath is the download target used until a blob is complete.
func (l CacheLayout) IncompletePath(etag string) string {
	return l.BlobPath(etag) + ".incomplete"
}
