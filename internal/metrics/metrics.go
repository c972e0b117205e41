package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docserve",
			Subsystem: "lifecycle",
			Name:      "starts_total",
			Help:      "Number of successful service starts.",
		},
	)
	serviceStartFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docserve",
			Subsystem: "lifecycle",
			Name:      "start_failures_total",
			Help:      "Number of starts that never bound the service port.",
		},
	)
	serviceStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docserve",
			Subsystem: "lifecycle",
			Name:      "stops_total",
			Help:      "Number of stops (graceful or kill).",
		},
	)
	parseRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docserve",
			Subsystem: "parse",
			Name:      "requests_total",
			Help:      "Number of parse requests by outcome.",
		}, []string{"outcome"},
	)
	parseDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docserve",
			Subsystem: "parse",
			Name:      "duration_seconds",
			Help:      "Observed wall time of document parsing.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docserve",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Number of parse results served from the cache.",
		},
	)
	cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docserve",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Number of cache lookups that required a parse.",
		},
	)
	pagesParsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docserve",
			Subsystem: "parse",
			Name:      "pages_total",
			Help:      "Total pages run through the parsing backend.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		serviceStarts, serviceStartFailures, serviceStops,
		parseRequests, parseDuration, cacheHits, cacheMisses, pagesParsed,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart() {
	if regOK.Load() {
		serviceStarts.Inc()
	}
}

func IncStartFailure() {
	if regOK.Load() {
		serviceStartFailures.Inc()
	}
}

func IncStop() {
	if regOK.Load() {
		serviceStops.Inc()
	}
}

func IncParse(outcome string) {
	if regOK.Load() {
		parseRequests.WithLabelValues(outcome).Inc()
	}
}

func ObserveParseDuration(seconds float64) {
	if regOK.Load() {
		parseDuration.Observe(seconds)
	}
}

func IncCacheHit() {
	if regOK.Load() {
		cacheHits.Inc()
	}
}

func IncCacheMiss() {
	if regOK.Load() {
		cacheMisses.Inc()
	}
}

func AddPages(n int) {
	if regOK.Load() && n > 0 {
		pagesParsed.Add(float64(n))
	}
}
