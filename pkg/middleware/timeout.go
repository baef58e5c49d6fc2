package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds each request with http.TimeoutHandler and answers 504
// with a JSON error body once the deadline passes.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		th := http.TimeoutHandler(next, timeout, `{"error":"request timeout"}`)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			th.ServeHTTP(&timeoutStatus{ResponseWriter: w}, r)
		})
	}
}

// timeoutStatus rewrites the 503 that http.TimeoutHandler emits to 504 and
// marks the body as JSON.
type timeoutStatus struct {
	http.ResponseWriter
}

func (t *timeoutStatus) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable && t.Header().Get("Content-Type") == "" {
		t.Header().Set("Content-Type", "application/json")
		code = http.StatusGatewayTimeout
	}
	t.ResponseWriter.WriteHeader(code)
}
