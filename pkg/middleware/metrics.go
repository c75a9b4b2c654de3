package middleware

import (
	"net/http"
	"time"
)

// HTTPObserver receives one observation per served request.
type HTTPObserver interface {
	ObserveHTTP(route, method string, status int, seconds float64)
}

// unmatchedRoute labels requests no route pattern matched, keeping raw
// paths out of metric labels.
const unmatchedRoute = "unmatched"

// Metrics returns middleware that reports request counts and latency. It must
// wrap the ServeMux directly: the mux records the matched pattern on the
// request it is given.
func Metrics(observer HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if observer == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			observer.ObserveHTTP(route, r.Method, wrapped.statusCode, time.Since(start).Seconds())
		})
	}
}
