package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK              = "ok"
	outcomeTypeValidation  = "type_validation"
	outcomeRangeValidation = "range_validation"
	outcomeProviderFailure = "provider_failure"
)

// Metrics collects calculator counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Calculations      *prometheus.CounterVec
	HeatUplifts       prometheus.Counter
	TemperatureLookup prometheus.Histogram
}

// NewMetrics registers the calculator metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "water_norm_calculations_total",
			Help: "Total number of water norm calculations by outcome",
		}, []string{"outcome"}),

		HeatUplifts: factory.NewCounter(prometheus.CounterOpts{
			Name: "water_norm_heat_uplifts_total",
			Help: "Number of results that received the heat uplift",
		}),

		TemperatureLookup: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "water_norm_temperature_lookup_seconds",
			Help:    "Time spent waiting on the temperature provider",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeLookup(seconds float64) {
	if m == nil {
		return
	}
	m.TemperatureLookup.Observe(seconds)
}

func (m *Metrics) countOutcome(outcome string, uplift bool) {
	if m == nil {
		return
	}
	m.Calculations.WithLabelValues(outcome).Inc()
	if uplift {
		m.HeatUplifts.Inc()
	}
}
