package httpapi

import (
	"net/http"
	"time"

	"github.com/remiblancher/ocspresponder/internal/metrics"
)

// Metrics wraps a handler, recording request counts and latency under the
// given scope, grounded on letsencrypt-boulder's measured_http pattern of
// wrapping the outermost handler rather than instrumenting each route.
func Metrics(scope metrics.Scope, next http.Handler) http.Handler {
	requests := scope.NewScope("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		requests.Inc("requests_total", 1)
		requests.TimingDuration("request_duration", time.Since(start))
	})
}
