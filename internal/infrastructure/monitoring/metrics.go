package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics of the cache pipeline.
type Metrics struct {
	EventsConsumed *prometheus.CounterVec
	Invalidations  *prometheus.CounterVec
	Renewals       *prometheus.CounterVec
	PurgeRequests  prometheus.Counter
	FlushURLs      *prometheus.CounterVec
	FlushDuration  prometheus.Histogram
}

// NewMetrics creates and registers the Prometheus metrics on the given
// registerer. Pass prometheus.DefaultRegisterer in production and a fresh
// registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staleweb_events_consumed_total",
				Help: "Total number of content events consumed, by classification outcome.",
			},
			[]string{"outcome"},
		),
		Invalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staleweb_cache_invalidations_total",
				Help: "Total number of URL invalidation chains, by result.",
			},
			[]string{"result"},
		),
		Renewals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staleweb_cache_renewals_total",
				Help: "Total number of URL renewals, by result.",
			},
			[]string{"result"},
		),
		PurgeRequests: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "staleweb_purge_requests_total",
				Help: "Total number of operator-initiated purge requests.",
			},
		),
		FlushURLs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staleweb_flush_urls_total",
				Help: "Total number of URLs handed to the cache driver at transaction end.",
			},
			[]string{"kind"},
		),
		FlushDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "staleweb_flush_duration_seconds",
				Help:    "Duration of the transaction-end flush, scheduling only.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordEventConsumed records one classified content event.
func (m *Metrics) RecordEventConsumed(outcome string) {
	m.EventsConsumed.WithLabelValues(outcome).Inc()
}

// RecordFlush records one transaction-end handoff to the cache driver.
func (m *Metrics) RecordFlush(toUpdate, toRemove int, duration time.Duration) {
	m.FlushURLs.WithLabelValues("update").Add(float64(toUpdate))
	m.FlushURLs.WithLabelValues("remove").Add(float64(toRemove))
	m.FlushDuration.Observe(duration.Seconds())
}

// RecordInvalidation records the outcome of one URL invalidation chain.
func (m *Metrics) RecordInvalidation(success bool) {
	m.Invalidations.WithLabelValues(resultLabel(success)).Inc()
}

// RecordRenewal records the outcome of one URL renewal.
func (m *Metrics) RecordRenewal(success bool) {
	m.Renewals.WithLabelValues(resultLabel(success)).Inc()
}

// RecordPurgeRequest records one operator-initiated purge request.
func (m *Metrics) RecordPurgeRequest(urls int) {
	m.PurgeRequests.Inc()
	m.FlushURLs.WithLabelValues("purge").Add(float64(urls))
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
