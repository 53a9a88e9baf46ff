// Package metrics exposes flosweep's Prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzbill/flosweep/internal/expiry"
)

const namespace = "flosweep"

var subscriptionLabels = []string{"namespace", "topic", "partition", "subscription"}

// Registry owns every flosweep collector.
type Registry struct {
	reg *prometheus.Registry

	expiryRate    *prometheus.GaugeVec     // messages/s over the last rate window
	backlog       *prometheus.GaugeVec     // entries after the mark-delete position
	sweeps        *prometheus.CounterVec   // finished sweeps by result
	skipped       *prometheus.CounterVec   // triggers dropped while a sweep was running
	expired       *prometheus.CounterVec   // messages removed by expiry
	decodeErrors  *prometheus.CounterVec   // entries whose header could not be read
	anomalies     *prometheus.CounterVec   // timeouts, late finds, negative deletions
	sweepDuration *prometheus.HistogramVec // trigger to finalizer
	readBytes     prometheus.Counter       // bytes returned by point reads
	batchCommit   prometheus.Histogram     // batch commit latency
	batchBytes    prometheus.Counter       // bytes committed in batches
}

// New creates a registry with the process and Go runtime collectors
// pre-registered.
func New() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r.expiryRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "expiry_rate",
		Help:      "Messages expired per second over the last rate window.",
	}, subscriptionLabels)
	r.backlog = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backlog_messages",
		Help:      "Unacknowledged messages after the subscription's mark-delete position.",
	}, subscriptionLabels)
	r.sweeps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweeps_total",
		Help:      "Expiry sweeps finished, by result.",
	}, append(append([]string{}, subscriptionLabels...), "result"))
	r.skipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweeps_skipped_total",
		Help:      "Expiry triggers ignored because a sweep was already running.",
	}, subscriptionLabels)
	r.expired = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_expired_total",
		Help:      "Messages mark-deleted by expiry sweeps.",
	}, subscriptionLabels)
	r.decodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_errors_total",
		Help:      "Entries whose header could not be decoded during an expiry check.",
	}, subscriptionLabels)
	r.anomalies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "anomalies_total",
		Help:      "Unexpected sweep conditions, by kind.",
	}, append(append([]string{}, subscriptionLabels...), "kind"))
	r.sweepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Time from trigger to the end of an expiry sweep.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	}, subscriptionLabels)
	r.readBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "read_bytes_total",
		Help:      "Bytes returned by storage point reads.",
	})
	r.batchCommit = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "batch_commit_seconds",
		Help:      "Storage batch commit latency.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	r.batchBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "batch_bytes_total",
		Help:      "Bytes committed in storage batches.",
	})

	r.reg.MustRegister(
		r.expiryRate, r.backlog, r.sweeps, r.skipped, r.expired,
		r.decodeErrors, r.anomalies, r.sweepDuration,
		r.readBytes, r.batchCommit, r.batchBytes,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Gatherer exposes the underlying registry for tests and embedding.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func labelValues(k expiry.Key) []string {
	return []string{k.Namespace, k.Topic, strconv.FormatUint(uint64(k.Partition), 10), k.Subscription}
}

// Forget drops every series for k, after its subscription is removed.
func (r *Registry) Forget(k expiry.Key) {
	labels := prometheus.Labels{
		"namespace":    k.Namespace,
		"topic":        k.Topic,
		"partition":    strconv.FormatUint(uint64(k.Partition), 10),
		"subscription": k.Subscription,
	}
	for _, v := range []interface{ DeletePartialMatch(prometheus.Labels) int }{
		r.expiryRate, r.backlog, r.sweeps, r.skipped, r.expired, r.decodeErrors, r.anomalies, r.sweepDuration,
	} {
		v.DeletePartialMatch(labels)
	}
}

// StorageHook reports storage observations into the registry.
func (r *Registry) StorageHook() *StorageHook { return &StorageHook{r: r} }

// StorageHook implements the storage layer's MetricsHook.
type StorageHook struct{ r *Registry }

func (h *StorageHook) ObserveRead(_ time.Duration, bytes int) {
	h.r.readBytes.Add(float64(bytes))
}

func (h *StorageHook) ObserveBatchCommit(elapsed time.Duration, bytes int) {
	h.r.batchCommit.Observe(elapsed.Seconds())
	h.r.batchBytes.Add(float64(bytes))
}
