// Package metrics exposes Prometheus counters for sync passes, deliveries and feed polls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the pipeline, fan-out and watcher report to.
type Recorder interface {
	RecordPass(strategy, outcome string, duration time.Duration)
	RecordChaptersAdded(strategy string, count int)
	RecordDelivery(ok bool)
	RecordPublish(ok bool)
	RecordFeedPoll(ok bool)
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector records to Prometheus metrics.
type Collector struct {
	passes        *prometheus.CounterVec
	passLatency   *prometheus.HistogramVec
	chaptersAdded *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	publishes     *prometheus.CounterVec
	feedPolls     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waeleaks_sync_passes_total",
			Help: "Synchronization passes by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		passLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waeleaks_sync_pass_seconds",
			Help:    "Duration of synchronization passes.",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"strategy"}),
		chaptersAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waeleaks_chapters_added_total",
			Help: "Chapters added to the catalog by strategy.",
		}, []string{"strategy"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waeleaks_notification_deliveries_total",
			Help: "Per-recipient notification attempts by result.",
		}, []string{"result"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waeleaks_event_publishes_total",
			Help: "Downstream event publish attempts by result.",
		}, []string{"result"}),
		feedPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waeleaks_feed_polls_total",
			Help: "Feed polls by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.passes,
		c.passLatency,
		c.chaptersAdded,
		c.deliveries,
		c.publishes,
		c.feedPolls,
	)

	return c
}

func (c *Collector) RecordPass(strategy, outcome string, duration time.Duration) {
	c.passes.WithLabelValues(strategy, outcome).Inc()
	c.passLatency.WithLabelValues(strategy).Observe(duration.Seconds())
}

func (c *Collector) RecordChaptersAdded(strategy string, count int) {
	if count <= 0 {
		return
	}
	c.chaptersAdded.WithLabelValues(strategy).Add(float64(count))
}

func (c *Collector) RecordDelivery(ok bool) { c.deliveries.WithLabelValues(result(ok)).Inc() }
func (c *Collector) RecordPublish(ok bool)  { c.publishes.WithLabelValues(result(ok)).Inc() }
func (c *Collector) RecordFeedPoll(ok bool) { c.feedPolls.WithLabelValues(result(ok)).Inc() }

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordPass(string, string, time.Duration) {}
func (Nop) RecordChaptersAdded(string, int)          {}
func (Nop) RecordDelivery(bool)                      {}
func (Nop) RecordPublish(bool)                       {}
func (Nop) RecordFeedPoll(bool)                      {}

// Ensure returns r, or Nop when r is nil.
func Ensure(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns a mux serving /metrics.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
