package middleware

import (
	"net/http"
	"strings"
)

// The audit API only reads summaries and triggers runs.
var (
	CORSAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	CORSAllowedHeaders = []string{"Accept", "Authorization"}
)

// CORS lets dashboards on the listed origins call the API. With no origins it
// does nothing.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSpace(o)] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(CORSAllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(CORSAllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
			w.Header().Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
