package util

import (
	"net/http"
	"slices"
	"strings"
)

// WithCORS answers preflight requests and sets CORS headers for the mobile
// and web clients. An empty allowlist or a "*" entry allows any origin.
func WithCORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAny := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		switch {
		case allowAny:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(allowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
