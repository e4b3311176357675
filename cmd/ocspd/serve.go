package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspresponder/internal/cache"
	"github.com/remiblancher/ocspresponder/internal/config"
	"github.com/remiblancher/ocspresponder/internal/httpapi"
	"github.com/remiblancher/ocspresponder/internal/metrics"
	"github.com/remiblancher/ocspresponder/internal/registry"
	"github.com/remiblancher/ocspresponder/internal/status"
	"github.com/remiblancher/ocspresponder/internal/store"
)

var (
	serveConfigPath     string
	serveShutdownTimeout time.Duration
	serveMetricsAddr    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the OCSP responder HTTP server",
	Long: `Loads the responder configuration, builds the issuer registry, and
serves RFC 6960 OCSP requests over HTTP until interrupted.`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVarP(&serveConfigPath, "config", "c", "", "path to responder config (required)")
	flags.DurationVar(&serveShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	flags.StringVar(&serveMetricsAddr, "metrics-listen", "", "address to serve /metrics on (empty disables metrics)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	sources, err := loadRegistrySources(cfg)
	if err != nil {
		return err
	}

	reg, err := registry.Build(sources)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	revStore := store.Open(cfg.CADatabasePath)
	if err := revStore.Init(); err != nil {
		return fmt.Errorf("init revocation store: %w", err)
	}
	resolver := httpapi.NewStoreResolver(statusStore{revStore})

	scope := metrics.NewNoopScope()
	var promRegisterer *prometheus.Registry
	if serveMetricsAddr != "" {
		promRegisterer = prometheus.NewRegistry()
		scope = metrics.NewPromScope(promRegisterer, "ocspd")
	}

	handler := httpapi.New(httpapi.Config{
		Version:     rootVersion,
		Registry:    reg,
		Resolver:    resolver,
		CachePolicy: cache.Policy{MaxAge: cfg.MaxAgeSeconds},
		DefaultTTL:  time.Duration(cfg.DefaultTTL()) * time.Second,
		Scope:       scope,
	})

	servers := []*http.Server{{
		Addr:    cfg.Listen,
		Handler: handler,
	}}
	if serveMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promRegisterer, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{Addr: serveMetricsAddr, Handler: mux})
	}

	log.Printf("ocspd: listening on %s (%d issuers)", cfg.Listen, len(sources))
	return runServers(servers, serveShutdownTimeout)
}

// statusStore adapts *store.Store to status.Store so httpapi.NewStoreResolver
// doesn't need to depend on internal/store directly.
type statusStore struct{ s *store.Store }

func (r statusStore) Fetch(serialHexUpper string) (store.Record, error) {
	return r.s.Fetch(serialHexUpper)
}

var _ status.Store = statusStore{}

// runServers starts every server, then blocks until either one exits with
// an error or a shutdown signal arrives, at which point it gracefully
// shuts all of them down. Grounded on internal/api/server.Server's
// runServers/shutdownAll pattern.
func runServers(servers []*http.Server, shutdownTimeout time.Duration) error {
	errChan := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			errChan <- srv.ListenAndServe()
		}(srv)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		log.Printf("ocspd: received signal %v, shutting down", sig)
		return shutdownAll(servers, shutdownTimeout)
	}
	return nil
}

func shutdownAll(servers []*http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, len(servers))
	for _, srv := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				errChan <- err
			}
		}(srv)
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}
	log.Println("ocspd: all servers stopped gracefully")
	return nil
}
