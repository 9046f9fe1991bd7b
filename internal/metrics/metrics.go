// Package metrics exposes Prometheus metrics for repositories and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guestbook"

// Recorder collects metrics on its own registry. It implements
// live.Observer.
type Recorder struct {
	registry *prometheus.Registry

	snapshots     *prometheus.CounterVec
	documents     *prometheus.GaugeVec
	subscriptions *prometheus.CounterVec
	commands      *prometheus.CounterVec
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// New creates a Recorder with Go runtime and process collectors attached.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Snapshots applied to repository caches.",
		}, []string{"collection"}),
		documents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents",
			Help:      "Documents in the latest snapshot.",
		}, []string{"collection"}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_errors_total",
			Help:      "Live query failures.",
		}, []string{"collection"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Repository commands by outcome.",
		}, []string{"collection", "op", "result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.snapshots, r.documents, r.subscriptions, r.commands, r.requests, r.duration,
	)
	return r
}

// SnapshotApplied implements live.Observer.
func (r *Recorder) SnapshotApplied(collection string, count int) {
	r.snapshots.WithLabelValues(collection).Inc()
	r.documents.WithLabelValues(collection).Set(float64(count))
}

// SubscriptionFailed implements live.Observer.
func (r *Recorder) SubscriptionFailed(collection string) {
	r.subscriptions.WithLabelValues(collection).Inc()
}

// CommandFinished implements live.Observer.
func (r *Recorder) CommandFinished(collection, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.commands.WithLabelValues(collection, op, result).Inc()
}

// ObserveRequest records one HTTP request.
func (r *Recorder) ObserveRequest(route string, code int, elapsed time.Duration) {
	r.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
