package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the API routes. Calculation routes share limiter; /metrics
// and /healthz are not rate limited.
func NewRouter(
	handler *WaterNormHandler,
	limiter *RateLimiter,
	reg *prometheus.Registry,
) http.Handler {
	rejected := promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "water_norm_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	mux := http.NewServeMux()
	mux.Handle(
		"/water-norm/calculate",
		RateLimitMiddleware(limiter, rejected, http.HandlerFunc(handler.CalculateWaterNorm)),
	)
	mux.Handle(
		"/water-norm/batch",
		RateLimitMiddleware(limiter, rejected, http.HandlerFunc(handler.CalculateBatch)),
	)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", Health)

	return mux
}
