// Package metrics defines the Prometheus instruments for egress analyses.
//
// Metrics live on their own registry, created by New, so tests and embedded
// uses never collide on the global default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "egress"

// Metrics holds every instrument. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// AnalysesTotal counts analyses by outcome (ok, error).
	AnalysesTotal *prometheus.CounterVec

	// RoutesFoundTotal counts room-to-exit searches that found a route.
	RoutesFoundTotal prometheus.Counter

	// RoutesUnreachableTotal counts searches where the exit was unreachable.
	RoutesUnreachableTotal prometheus.Counter

	// DoorFailuresTotal counts doors narrower than their required width.
	DoorFailuresTotal prometheus.Counter

	// BuildSeconds measures network construction.
	BuildSeconds prometheus.Histogram

	// RouteSearchSeconds measures the search phase of an analysis.
	RouteSearchSeconds prometheus.Histogram
}

// New registers all instruments on a fresh registry. When withRuntime is
// set the Go and process collectors are registered too.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		AnalysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses run, by outcome",
		}, []string{"outcome"}),
		RoutesFoundTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_found_total",
			Help:      "Room to exit searches that found a route",
		}),
		RoutesUnreachableTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_unreachable_total",
			Help:      "Room to exit searches with no route",
		}),
		DoorFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "door_failures_total",
			Help:      "Doors narrower than their required clear width",
		}),
		BuildSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_seconds",
			Help:      "Time to build the egress network",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		RouteSearchSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_search_seconds",
			Help:      "Time to search routes for every room",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}),
	}
}

// ObserveAnalysis records the outcome of one analysis.
func (m *Metrics) ObserveAnalysis(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
}

// ObserveSearch records one room-to-exit search.
func (m *Metrics) ObserveSearch(found bool) {
	if m == nil {
		return
	}
	if found {
		m.RoutesFoundTotal.Inc()
	} else {
		m.RoutesUnreachableTotal.Inc()
	}
}

// ObserveBuild records network construction time.
func (m *Metrics) ObserveBuild(seconds float64) {
	if m != nil {
		m.BuildSeconds.Observe(seconds)
	}
}

// ObserveRouteSearch records the duration of the search phase.
func (m *Metrics) ObserveRouteSearch(seconds float64) {
	if m != nil {
		m.RouteSearchSeconds.Observe(seconds)
	}
}

// AddDoorFailures records failing doors.
func (m *Metrics) AddDoorFailures(n int) {
	if m != nil && n > 0 {
		m.DoorFailuresTotal.Add(float64(n))
	}
}
