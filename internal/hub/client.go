package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FileResolver looks up and downloads files from a model hub.
// It is implemented by *Client and can be replaced in tests.
type FileResolver interface {
	Resolve(ctx context.Context, repo, file, revision string) (FileInfo, error)
	Download(ctx context.Context, repo, file, revision string, w io.Writer, progress ProgressFunc) (int64, error)
}

// Ensure Client implements FileResolver at compile time.
var _ FileResolver = (*Client)(nil)

// ProgressFunc is called after every chunk written by Download. total is -1
// when the server did not announce a length. Returning an error aborts the
// transfer with that error.
type ProgressFunc func(done, total int64) error

// Client talks to a Hugging Face compatible hub.
type Client struct {
	baseURL   *url.URL
	meta      *http.Client
	transfer  *http.Client
	userAgent string
}

const (
	DefaultEndpoint  = "https://huggingface.co"
	defaultUserAgent = "stag/dev"
	metadataTimeout  = 10 * time.Second
	chunkSize        = 1 << 20
)

// NewClient builds a Client for endpoint. An empty endpoint uses DefaultEndpoint.
// version ends up in the User-Agent header.
func NewClient(endpoint, version string) (*Client, error) {
	base, err := parseBaseURL(endpoint)
	if err != nil {
		return nil, err
	}
	ua := defaultUserAgent
	if v := strings.TrimSpace(version); v != "" {
		ua = "stag/" + v
	}
	return &Client{
		baseURL: base,
		meta: &http.Client{
			Timeout: metadataTimeout,
			// The redirect response carries the commit and linked etag headers.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		transfer:  &http.Client{},
		userAgent: ua,
	}, nil
}

// Resolve returns the commit, etag and size the hub reports for file at revision.
func (c *Client) Resolve(ctx context.Context, repo, file, revision string) (FileInfo, error) {
	if c == nil {
		return FileInfo{}, fmt.Errorf("client is nil")
	}
	rel, err := resolvePath(repo, file, revision)
	if err != nil {
		return FileInfo{}, err
	}
	resp, err := c.do(ctx, c.meta, http.MethodHead, rel)
	if err != nil {
		return FileInfo{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	info := FileInfo{
		Repo:     repo,
		File:     file,
		Revision: revision,
		Commit:   resp.Header.Get("X-Repo-Commit"),
		ETag:     normalizeETag(firstHeader(resp.Header, "X-Linked-Etag", "ETag")),
		Size:     -1,
	}
	if size := firstHeader(resp.Header, "X-Linked-Size", "Content-Length"); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil {
			info.Size = n
		}
	}
	if info.Commit == "" {
		return FileInfo{}, fmt.Errorf("hub %s: missing X-Repo-Commit header", rel.Path)
	}
	if info.ETag == "" {
		return FileInfo{}, fmt.Errorf("hub %s: missing ETag header", rel.Path)
	}
	return info, nil
}

// Download streams file at revision into w and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, repo, file, revision string, w io.Writer, progress ProgressFunc) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("client is nil")
	}
	rel, err := resolvePath(repo, file, revision)
	if err != nil {
		return 0, err
	}
	resp, err := c.do(ctx, c.transfer, http.MethodGet, rel)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	total := resp.ContentLength
	buf := make([]byte, chunkSize)
	var done int64
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return done, fmt.Errorf("write %s: %w", file, err)
			}
			done += int64(n)
			if progress != nil {
				if err := progress(done, total); err != nil {
					return done, err
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return done, fmt.Errorf("read %s: %w", file, readErr)
		}
	}
	if total >= 0 && done != total {
		return done, fmt.Errorf("download %s: got %d of %d bytes", file, done, total)
	}
	return done, nil
}

func (c *Client) do(ctx context.Context, client *http.Client, method string, rel *url.URL) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	// Keep ETag and Content-Length describing the stored bytes.
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("hub %s returned status %d", rel.Path, resp.StatusCode)
	}
	return resp, nil
}

func resolvePath(repo, file, revision string) (*url.URL, error) {
	repo = strings.Trim(strings.TrimSpace(repo), "/")
	file = strings.Trim(strings.TrimSpace(file), "/")
	if repo == "" || file == "" {
		return nil, fmt.Errorf("repo and file are required")
	}
	if revision = strings.TrimSpace(revision); revision == "" {
		revision = DefaultRevision
	}
	prefix := "/" + repo + "/resolve/"
	return &url.URL{
		Path:    prefix + revision + "/" + file,
		RawPath: prefix + url.PathEscape(revision) + "/" + file,
	}, nil
}

func parseBaseURL(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultEndpoint
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func firstHeader(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(h.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeETag(tag string) string {
	tag = strings.TrimPrefix(tag, "W/")
	return strings.Trim(tag, `"`)
}
