package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/asset-audit/internal/metrics"
)

// unmatchedRoute labels requests no route answered, so stray paths cannot
// grow the label set.
const unmatchedRoute = "unmatched"

// Prometheus records request duration and count per chi route pattern.
// Scrapes of /metrics are served without being counted.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		statusW := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(statusW, r)
		metrics.RecordRequest(r.Method, routeLabel(r), statusW.status, time.Since(start).Seconds())
	})
}

// routeLabel prefers the matched pattern ("/v1/runs/latest") over the raw path.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
		return unmatchedRoute
	}
	return r.URL.Path
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
