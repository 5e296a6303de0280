package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Asset is one object fetched from the asset origin. Header carries the
// origin's response headers so passthrough can relay them verbatim.
type Asset struct {
	Body   []byte
	Status int
	Header http.Header
}

// Fetcher retrieves asset bytes by request path from an origin. The
// redirect handler uses it both for static passthrough and to load the
// registry file on every request.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*Asset, error)
}

// OriginFetcher fetches assets from a remote origin over HTTP.
type OriginFetcher struct {
	base   *url.URL
	client *http.Client
}

// NewOriginFetcher returns a fetcher rooted at baseURL. A zero timeout
// defaults to 10 seconds.
func NewOriginFetcher(baseURL string, timeout time.Duration) (*OriginFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing assets origin %q: %w", baseURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("assets origin %q is not an absolute URL", baseURL)
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &OriginFetcher{
		base: u,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Fetch retrieves path from the origin. Cancellation follows ctx, so an
// aborted request abandons the in-flight fetch.
func (f *OriginFetcher) Fetch(ctx context.Context, path string) (*Asset, error) {
	target := f.base.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", target, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}

	return &Asset{
		Body:   body,
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
	}, nil
}

// DirFetcher serves assets from a local directory, for self-contained
// deployments where the registry file and static files sit on disk next
// to the server.
type DirFetcher struct {
	fsys fs.FS
}

// NewDirFetcher returns a fetcher over the given directory.
func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{fsys: os.DirFS(dir)}
}

// Fetch reads the file named by path. A missing file maps to a 404
// asset rather than an error, mirroring what a remote origin would
// answer.
func (f *DirFetcher) Fetch(_ context.Context, path string) (*Asset, error) {
	name := strings.TrimPrefix(path, "/")
	if name == "" || !fs.ValidPath(name) {
		return &Asset{Status: http.StatusNotFound, Body: []byte("Not Found")}, nil
	}

	data, err := fs.ReadFile(f.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return &Asset{Status: http.StatusNotFound, Body: []byte("Not Found")}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading asset %s: %w", name, err)
	}

	header := http.Header{}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		header.Set("Content-Type", ct)
	}

	return &Asset{
		Body:   data,
		Status: http.StatusOK,
		Header: header,
	}, nil
}
