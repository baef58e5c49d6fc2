// Package middleware provides the HTTP middleware chain shared by the
// services: request IDs, CORS, Prometheus metrics and request timeouts.
package middleware

import "net/http"

// Chain wraps h so that the first middleware is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
