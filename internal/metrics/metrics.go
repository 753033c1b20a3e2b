// Package metrics exposes Prometheus counters for the weather service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics implements weather.Recorder and also counts durable store errors.
type Metrics struct {
	CacheLookups *prometheus.CounterVec
	Fetches      *prometheus.CounterVec
	StoreErrors  *prometheus.CounterVec
}

// New registers the counters on reg. Pass a fresh prometheus.NewRegistry()
// in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "circuit_weather_cache_lookups_total",
			Help: "Cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "circuit_weather_provider_fetches_total",
			Help: "Provider fetches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "circuit_weather_store_errors_total",
			Help: "Durable store failures by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.CacheLookups, m.Fetches, m.StoreErrors)
	return m
}

// NewRegistry returns a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (m *Metrics) CacheLookup(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) Fetch(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Fetches.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) StoreError(op string) {
	m.StoreErrors.WithLabelValues(op).Inc()
}
