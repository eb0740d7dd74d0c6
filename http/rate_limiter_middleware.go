package http

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// RateLimitMiddleware rejects requests over the client's budget with 429.
// rejected may be nil.
func RateLimitMiddleware(
	limiter *RateLimiter,
	rejected prometheus.Counter,
	next http.Handler,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			client = r.RemoteAddr
		}

		if !limiter.Allow(client) {
			if rejected != nil {
				rejected.Inc()
			}
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
