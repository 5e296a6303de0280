// Package config provides configuration types and defaults for lnk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/madc/lnk/internal/log"
)

// Config holds all configuration options for lnk.
type Config struct {
	// File is the registry file edited by add/rm/import/fmt.
	File string `mapstructure:"file"`
	// BaseURL is the public base used to compose full short links,
	// e.g. "https://go.example.com/".
	BaseURL string `mapstructure:"base_url"`
	Server  ServerConfig  `mapstructure:"server"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ServerConfig holds redirect server configuration.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `mapstructure:"addr"`
	// AssetsDir serves assets from a local directory when set.
	AssetsDir string `mapstructure:"assets_dir"`
	// AssetsOrigin serves assets from a remote origin when set.
	// Exactly one of AssetsDir / AssetsOrigin must be configured.
	AssetsOrigin string `mapstructure:"assets_origin"`
	// LinksPath is the origin path of the registry file.
	LinksPath string `mapstructure:"links_path"`
	// IndexPath is the document served for "/".
	IndexPath string `mapstructure:"index_path"`
	// StaticPaths lists extra passthrough paths, merged with the
	// built-in allow-list.
	StaticPaths []string `mapstructure:"static_paths"`
	// CacheTTL enables the asset cache when greater than zero. Zero
	// keeps the always-fresh behavior: fetch and parse per request.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// Watch purges the asset cache when files under AssetsDir change.
	Watch bool `mapstructure:"watch"`
	// FetchTimeout bounds a single origin fetch.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// TracingConfig holds trace export configuration.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"` // "none", "stdout", "otlp"
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		File:    "",
		BaseURL: "",
		Server: ServerConfig{
			Addr:         "localhost:8080",
			LinksPath:    "/_links.txt",
			IndexPath:    "/index.html",
			CacheTTL:     0,
			Watch:        false,
			FetchTimeout: 10 * time.Second,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "none",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// ValidateServer checks the server section before `lnk serve` starts.
func ValidateServer(s ServerConfig) error {
	hasDir := s.AssetsDir != ""
	hasOrigin := s.AssetsOrigin != ""
	switch {
	case hasDir && hasOrigin:
		return fmt.Errorf("assets_dir and assets_origin are mutually exclusive")
	case !hasDir && !hasOrigin:
		return fmt.Errorf("one of assets_dir or assets_origin is required")
	}
	if !strings.HasPrefix(s.LinksPath, "/") {
		return fmt.Errorf("links_path must start with '/': %q", s.LinksPath)
	}
	if !strings.HasPrefix(s.IndexPath, "/") {
		return fmt.Errorf("index_path must start with '/': %q", s.IndexPath)
	}
	for _, p := range s.StaticPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("static path must start with '/': %q", p)
		}
	}
	if s.Watch && !hasDir {
		return fmt.Errorf("watch requires assets_dir")
	}
	return nil
}

// DefaultConfigTemplate returns the commented config file written on
// first run.
func DefaultConfigTemplate() string {
	return `# lnk configuration
#
# Registry file edited by add/rm/import/fmt. Redirects are served from
# the copy under the assets dir/origin, so point both at the same file
# when serving locally.
# file: public/_links.txt

# Public base for composed short links (lnk list --full-urls).
# base_url: https://go.example.com/

server:
  # Listen address for lnk serve.
  addr: localhost:8080

  # Where assets (index.html, styles.css, _links.txt) come from.
  # Exactly one of the two:
  # assets_dir: public
  # assets_origin: https://assets.example.com/

  # Origin path of the registry file.
  links_path: /_links.txt

  # Document served for "/".
  index_path: /index.html

  # Extra passthrough paths beyond the built-in defaults.
  # static_paths:
  #   - /app.js

  # Cache fetched assets for this long. 0 disables caching, which keeps
  # every redirect answered from a fresh parse of the registry.
  cache_ttl: 0s

  # Purge the cache when files under assets_dir change (assets_dir only).
  watch: false

  fetch_timeout: 10s

tracing:
  enabled: false
  # exporter: stdout | otlp | none
  exporter: none
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
