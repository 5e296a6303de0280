package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/madc/lnk/internal/config"
	"github.com/madc/lnk/internal/log"
	"github.com/madc/lnk/internal/server"
	"github.com/madc/lnk/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the redirect server",
	Long: `Run the redirect server. Assets (the registry file, index page and
static files) come from either a local directory or a remote origin,
configured via server.assets_dir / server.assets_origin.

Every request path is resolved against the registry: "/" serves the
index page, allow-listed static paths pass through, and anything else
is treated as a link id and answered with a 308 redirect.

Example:
  lnk serve                        # Use address from config
  lnk serve --addr :8080           # Listen on port 8080
  lnk serve --assets-dir public    # Serve assets from ./public`,
	RunE: runServe,
}

var (
	serveAddr      string
	serveAssetsDir string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveAssetsDir, "assets-dir", "", "Serve assets from this directory (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	srvCfg := cfg.Server
	if serveAddr != "" {
		srvCfg.Addr = serveAddr
	}
	if serveAssetsDir != "" {
		srvCfg.AssetsDir = serveAssetsDir
		srvCfg.AssetsOrigin = ""
	}

	if err := config.ValidateServer(srvCfg); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	fetcher, err := buildFetcher(srvCfg)
	if err != nil {
		return err
	}

	// Optional TTL cache, with a watcher purging it on local edits.
	var watcher *server.Watcher
	if srvCfg.CacheTTL > 0 {
		cached := server.NewCachedFetcher(fetcher, srvCfg.CacheTTL)
		fetcher = cached
		if srvCfg.Watch {
			watcher, err = server.NewWatcher(srvCfg.AssetsDir, func(string) { cached.Purge() })
			if err != nil {
				return fmt.Errorf("watching %s: %w", srvCfg.AssetsDir, err)
			}
			defer func() { _ = watcher.Close() }()
		}
	}

	tracerProvider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	handler := server.NewHandler(server.HandlerConfig{
		Assets:      fetcher,
		LinksPath:   srvCfg.LinksPath,
		IndexPath:   srvCfg.IndexPath,
		StaticPaths: srvCfg.StaticPaths,
		Tracer:      tracerProvider.Tracer(),
	})

	srv, err := server.NewServer(server.ServerConfig{
		Addr:    srvCfg.Addr,
		Handler: handler,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	cmd.Printf("lnk serving redirects on port %d\n", srv.Port())
	cmd.Println("Press Ctrl+C to stop")

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		cmd.Printf("\nReceived %s, shutting down...\n", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.ErrorErr(log.CatHTTP, "Error stopping server", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.ErrorErr(log.CatHTTP, "Error shutting down tracing", err)
	}

	cmd.Println("Server stopped")
	return nil
}

func buildFetcher(srvCfg config.ServerConfig) (server.Fetcher, error) {
	if srvCfg.AssetsDir != "" {
		return server.NewDirFetcher(srvCfg.AssetsDir), nil
	}
	f, err := server.NewOriginFetcher(srvCfg.AssetsOrigin, srvCfg.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid assets origin: %w", err)
	}
	return f, nil
}
