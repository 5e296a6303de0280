package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const registryText = "shop\thttps://example.com/store\t2024-01-01T00:00:00.000Z\tMy shop\n" +
	"plain\thttps://example.com/plain\t2024-01-01T00:00:00.000Z\t"

// stubFetcher serves canned assets by path.
type stubFetcher struct {
	assets map[string]*Asset
	err    error
	calls  int
}

func (f *stubFetcher) Fetch(_ context.Context, path string) (*Asset, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.assets[path]; ok {
		return a, nil
	}
	return &Asset{Status: http.StatusNotFound, Body: []byte("Not Found")}, nil
}

func newTestHandler(t *testing.T) (*Handler, *stubFetcher) {
	t.Helper()
	fetcher := &stubFetcher{assets: map[string]*Asset{
		"/_links.txt": {Status: http.StatusOK, Body: []byte(registryText), Header: http.Header{"Content-Type": {"text/plain"}}},
		"/index.html": {Status: http.StatusOK, Body: []byte("<html>links</html>"), Header: http.Header{"Content-Type": {"text/html"}}},
		"/styles.css": {Status: http.StatusOK, Body: []byte("body{}"), Header: http.Header{"Content-Type": {"text/css"}}},
	}}
	return NewHandler(HandlerConfig{Assets: fetcher}), fetcher
}

func doRequest(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestResolve_KnownID_Redirects(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, "/shop")

	require.Equal(t, http.StatusPermanentRedirect, rec.Code)
	require.Equal(t, "https://example.com/store", rec.Header().Get("Location"))
	require.Equal(t, "Mon, 01 Jan 2024 00:00:00 GMT", rec.Header().Get("Last-Modified"))
	body, _ := io.ReadAll(rec.Body)
	require.Equal(t, "My shop", string(body))
}

func TestResolve_NoCommentMeansEmptyBody(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, "/plain")

	require.Equal(t, http.StatusPermanentRedirect, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestResolve_MissingID_Returns400(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, "/doesnotexist")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid ID", rec.Body.String())
}

func TestResolve_InvalidID_Returns400WithoutFetch(t *testing.T) {
	h, fetcher := newTestHandler(t)

	rec := doRequest(t, h, "/bad%20id")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid ID", rec.Body.String())
	require.Zero(t, fetcher.calls, "validation rejects before any I/O")
}

func TestResolve_CaseInsensitiveID(t *testing.T) {
	h, _ := newTestHandler(t)

	// "SHOP" passes the validator but the registry has no such key.
	rec := doRequest(t, h, "/SHOP")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolve_Root_ServesIndex(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<html>links</html>", rec.Body.String())
	require.Equal(t, "text/html", rec.Header().Get("Content-Type"))
}

func TestResolve_StaticPath_PassesThrough(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, "/styles.css")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
}

func TestResolve_StaticPath_RelaysOriginStatus(t *testing.T) {
	fetcher := &stubFetcher{assets: map[string]*Asset{}}
	h := NewHandler(HandlerConfig{Assets: fetcher})

	rec := doRequest(t, h, "/favicon.ico")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolve_StaticPath_RelaysOriginHeaders(t *testing.T) {
	fetcher := &stubFetcher{assets: map[string]*Asset{
		"/styles.css": {
			Status: http.StatusOK,
			Body:   []byte("body{}"),
			Header: http.Header{
				"Content-Type":  {"text/css"},
				"Cache-Control": {"public, max-age=3600"},
			},
		},
	}}
	h := NewHandler(HandlerConfig{Assets: fetcher})

	rec := doRequest(t, h, "/styles.css")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/css", rec.Header().Get("Content-Type"))
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestResolve_RegistryFetchError_Returns502(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("origin down")}
	h := NewHandler(HandlerConfig{Assets: fetcher})

	rec := doRequest(t, h, "/shop")

	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestResolve_RegistryNon200_Returns502(t *testing.T) {
	fetcher := &stubFetcher{assets: map[string]*Asset{
		"/_links.txt": {Status: http.StatusInternalServerError, Body: []byte("boom")},
	}}
	h := NewHandler(HandlerConfig{Assets: fetcher})

	rec := doRequest(t, h, "/shop")

	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestResolve_FreshParsePerRequest(t *testing.T) {
	h, fetcher := newTestHandler(t)

	doRequest(t, h, "/shop")
	doRequest(t, h, "/shop")

	require.Equal(t, 2, fetcher.calls, "each request re-fetches the registry")
}

func TestResolve_ExtraStaticPaths(t *testing.T) {
	fetcher := &stubFetcher{assets: map[string]*Asset{
		"/app.js":     {Status: http.StatusOK, Body: []byte("js")},
		"/styles.css": {Status: http.StatusOK, Body: []byte("body{}")},
		"/_links.txt": {Status: http.StatusOK, Body: []byte(registryText)},
	}}
	h := NewHandler(HandlerConfig{
		Assets:      fetcher,
		StaticPaths: []string{"/app.js"},
	})

	rec := doRequest(t, h, "/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "js", rec.Body.String())

	// Extra paths extend the built-in allow-list, they don't replace it.
	rec = doRequest(t, h, "/styles.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())

	// Paths not on the allow-list are treated as candidate ids.
	rec = doRequest(t, h, "/shop")
	require.Equal(t, http.StatusPermanentRedirect, rec.Code)
}

func TestResolve_CustomLinksPathIsStatic(t *testing.T) {
	fetcher := &stubFetcher{assets: map[string]*Asset{
		"/links.tsv": {Status: http.StatusOK, Body: []byte(registryText)},
	}}
	h := NewHandler(HandlerConfig{
		Assets:    fetcher,
		LinksPath: "/links.tsv",
	})

	// The configured registry path joins the allow-list automatically.
	rec := doRequest(t, h, "/links.tsv")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, "/shop")
	require.Equal(t, http.StatusPermanentRedirect, rec.Code)
}
