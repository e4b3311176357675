package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/remiblancher/ocspresponder/internal/cache"
	"github.com/remiblancher/ocspresponder/internal/metrics"
	"github.com/remiblancher/ocspresponder/internal/registry"
)

// Config configures the router New builds, grounded on
// internal/api/router.Config's shape.
type Config struct {
	Version     string
	Registry    *registry.Registry
	Resolver    Resolver
	CachePolicy cache.Policy
	DefaultTTL  time.Duration
	Scope       metrics.Scope
}

// New builds the chi router serving both the OCSP wire endpoint and the
// operational health endpoints, completing the notImplementedRFC stub
// this responder's teacher left for /ocsp.
func New(cfg Config) http.Handler {
	scope := cfg.Scope
	if scope == nil {
		scope = metrics.NewNoopScope()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(func(next http.Handler) http.Handler { return Metrics(scope, next) })

	health := &HealthHandler{Version: cfg.Version}
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	ocspHandler := &OCSPHandler{
		Registry:    cfg.Registry,
		Resolver:    cfg.Resolver,
		CachePolicy: cfg.CachePolicy,
		DefaultTTL:  cfg.DefaultTTL,
	}
	r.Method(http.MethodPost, "/", ocspHandler)
	r.Method(http.MethodPost, "/ocsp", ocspHandler)
	r.Get("/ocsp/*", ocspHandler.ServeHTTP)
	r.Get("/*", ocspHandler.ServeHTTP)

	return r
}
