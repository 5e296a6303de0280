// Package server implements the edge-facing redirect resolver: it
// classifies each request path as the root document, a static asset or
// a candidate link id, and answers with a passthrough, a 308 redirect
// or a plain-text error.
package server

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/madc/lnk/internal/log"
	"github.com/madc/lnk/internal/registry"
)

// Default asset locations, matching the published file layout.
const (
	DefaultLinksPath = "/_links.txt"
	DefaultIndexPath = "/index.html"
)

// DefaultStaticPaths is the built-in passthrough allow-list.
var DefaultStaticPaths = []string{
	DefaultLinksPath,
	DefaultIndexPath,
	"/styles.css",
	"/favicon.ico",
}

// HandlerConfig configures the redirect handler.
type HandlerConfig struct {
	// Assets retrieves origin bytes (required).
	Assets Fetcher
	// LinksPath is the origin path of the registry file.
	// Default: /_links.txt
	LinksPath string
	// IndexPath is the document served for "/".
	// Default: /index.html
	IndexPath string
	// StaticPaths lists extra passthrough paths, merged with
	// DefaultStaticPaths and the resolved links/index paths.
	StaticPaths []string
	// Tracer records a span per resolved request (optional).
	Tracer trace.Tracer
}

// Handler is the stateless per-request redirect resolver. Each request
// re-fetches and re-parses the registry; there is no shared mutable
// state between requests.
type Handler struct {
	assets    Fetcher
	codec     *registry.Codec
	linksPath string
	indexPath string
	static    map[string]struct{}
	tracer    trace.Tracer
}

// NewHandler creates a redirect handler from cfg, filling in defaults
// for unset fields.
func NewHandler(cfg HandlerConfig) *Handler {
	linksPath := cfg.LinksPath
	if linksPath == "" {
		linksPath = DefaultLinksPath
	}
	indexPath := cfg.IndexPath
	if indexPath == "" {
		indexPath = DefaultIndexPath
	}
	static := make(map[string]struct{}, len(DefaultStaticPaths)+len(cfg.StaticPaths)+2)
	static[linksPath] = struct{}{}
	static[indexPath] = struct{}{}
	for _, p := range DefaultStaticPaths {
		static[p] = struct{}{}
	}
	for _, p := range cfg.StaticPaths {
		static[p] = struct{}{}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}

	return &Handler{
		assets:    cfg.Assets,
		codec:     registry.NewCodec(),
		linksPath: linksPath,
		indexPath: indexPath,
		static:    static,
		tracer:    tracer,
	}
}

// Routes returns an http.Handler with the resolver registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Resolve)
	return mux
}

// Resolve implements the resolution algorithm: root document first,
// then the static allow-list, then candidate-id lookup.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	ctx, span := h.tracer.Start(r.Context(), "redirect.resolve",
		trace.WithAttributes(attribute.String("http.path", r.URL.Path)))
	defer span.End()

	path := r.URL.Path
	if path == "/" {
		span.SetAttributes(attribute.String("redirect.outcome", "index"))
		h.passthrough(ctx, w, h.indexPath, reqID)
		return
	}
	if _, ok := h.static[path]; ok {
		span.SetAttributes(attribute.String("redirect.outcome", "static"))
		h.passthrough(ctx, w, path, reqID)
		return
	}

	id := strings.TrimPrefix(path, "/")
	if !registry.IsValidID(id) {
		log.Warn(log.CatHTTP, "invalid id", "request_id", reqID, "path", path)
		span.SetAttributes(attribute.String("redirect.outcome", "invalid_id"))
		h.invalidID(w)
		return
	}

	asset, err := h.assets.Fetch(ctx, h.linksPath)
	if err != nil || asset.Status != http.StatusOK {
		status := 0
		if asset != nil {
			status = asset.Status
		}
		log.ErrorErr(log.CatHTTP, "registry fetch failed", err,
			"request_id", reqID, "status", status)
		span.SetAttributes(attribute.String("redirect.outcome", "registry_unavailable"))
		http.Error(w, "Registry Unavailable", http.StatusBadGateway)
		return
	}

	links := h.codec.Parse(asset.Body)
	rec, ok := links[id]
	if !ok {
		log.Warn(log.CatHTTP, "unknown id", "request_id", reqID, "id", id)
		span.SetAttributes(attribute.String("redirect.outcome", "missing"))
		h.invalidID(w)
		return
	}

	log.Info(log.CatHTTP, "redirect", "request_id", reqID, "id", id, "location", rec.URL)
	span.SetAttributes(
		attribute.String("redirect.outcome", "redirect"),
		attribute.String("redirect.id", id),
	)

	w.Header().Set("Location", rec.URL)
	w.Header().Set("Last-Modified", rec.UpdatedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusPermanentRedirect)
	if rec.Comment != "" {
		// Informational only; clients follow Location, humans get the comment.
		_, _ = io.WriteString(w, rec.Comment)
	}
}

// passthrough relays an origin asset verbatim: origin status, origin
// headers, origin body, no decoding.
func (h *Handler) passthrough(ctx context.Context, w http.ResponseWriter, path, reqID string) {
	asset, err := h.assets.Fetch(ctx, path)
	if err != nil {
		log.ErrorErr(log.CatHTTP, "asset fetch failed", err, "request_id", reqID, "path", path)
		http.Error(w, "Asset Unavailable", http.StatusBadGateway)
		return
	}

	for key, values := range asset.Header {
		w.Header()[key] = values
	}
	w.WriteHeader(asset.Status)
	_, _ = w.Write(asset.Body)
}

func (h *Handler) invalidID(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = io.WriteString(w, "Invalid ID")
}
