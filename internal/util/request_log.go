package util

import (
	"net/http"
	"strings"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RequestObserver receives one call per finished request. route is the
// matched ServeMux pattern, or "unmatched".
type RequestObserver func(method, route string, status int, elapsed time.Duration)

// WithRequestLog emits one structured "http_request" record per request and
// forwards the outcome to observers.
func WithRequestLog(service string, next http.Handler, observers ...RequestObserver) http.Handler {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "unknown"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		LoggerFromContext(r.Context()).Info(
			"http_request",
			"service", service,
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", rec.bytes,
			"duration_ms", elapsed.Milliseconds(),
		)
		for _, observe := range observers {
			if observe != nil {
				observe(r.Method, route, status, elapsed)
			}
		}
	})
}
