// Package metrics exposes Prometheus instruments for builds and the
// manifest cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache results used as the "result" label.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Metrics holds the instruments. Create one per process with New.
type Metrics struct {
	// Builds counts build requests by service and cache result.
	Builds *prometheus.CounterVec

	// BuildErrors counts failed builds by service and error kind.
	BuildErrors *prometheus.CounterVec

	// BuildSeconds tracks build latency by service.
	BuildSeconds *prometheus.HistogramVec

	// Segments tracks how many segment keys each build selected.
	Segments *prometheus.HistogramVec

	// RegistryReloads counts registry reloads by outcome.
	RegistryReloads *prometheus.CounterVec

	// RegistrySegments is the annotation count of the active registry.
	RegistrySegments prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers every instrument with reg. Pass prometheus.NewRegistry()
// in tests to keep them isolated.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siddur_builds_total",
				Help: "Build requests by service and cache result",
			},
			[]string{"service", "result"},
		),
		BuildErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siddur_build_errors_total",
				Help: "Failed builds by service and error kind",
			},
			[]string{"service", "kind"},
		),
		BuildSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "siddur_build_seconds",
				Help:    "Build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		Segments: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "siddur_build_segments",
				Help:    "Segment keys selected per build",
				Buckets: prometheus.LinearBuckets(0, 4, 10),
			},
			[]string{"service"},
		),
		RegistryReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siddur_registry_reloads_total",
				Help: "Registry reloads by outcome",
			},
			[]string{"outcome"},
		),
		RegistrySegments: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "siddur_registry_segments",
				Help: "Annotations in the active registry",
			},
		),
		gatherer: reg,
	}
}

// NewServer serves the registered instruments on /metrics.
func (m *Metrics) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}
