package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rzbill/flosweep/internal/expiry"
)

// SubscriptionObserver feeds one monitor's events into the registry.
type SubscriptionObserver struct {
	labels []string

	expiryRate    prometheus.Gauge
	backlog       prometheus.Gauge
	skipped       prometheus.Counter
	expired       prometheus.Counter
	decodeErrors  prometheus.Counter
	sweepDuration prometheus.Observer
	// sweeps and anomalies are bound up front so events arriving after
	// Forget update detached children instead of re-creating series.
	sweeps    map[expiry.Outcome]prometheus.Counter
	anomalies map[string]prometheus.Counter
}

var (
	outcomes     = []expiry.Outcome{expiry.OutcomeExpired, expiry.OutcomeNone, expiry.OutcomeFindFailed, expiry.OutcomeDeleteFailed, expiry.OutcomeTimeout}
	anomalyKinds = []string{expiry.AnomalyNegativeDeletions, expiry.AnomalySweepTimeout, expiry.AnomalyLateFind}
)

// otherKind labels anomalies outside anomalyKinds.
const otherKind = "other"

var _ expiry.Observer = (*SubscriptionObserver)(nil)

// Observer binds the per-subscription series for k.
func (r *Registry) Observer(k expiry.Key) *SubscriptionObserver {
	lv := labelValues(k)
	o := &SubscriptionObserver{
		labels:        lv,
		expiryRate:    r.expiryRate.WithLabelValues(lv...),
		backlog:       r.backlog.WithLabelValues(lv...),
		skipped:       r.skipped.WithLabelValues(lv...),
		expired:       r.expired.WithLabelValues(lv...),
		decodeErrors:  r.decodeErrors.WithLabelValues(lv...),
		sweepDuration: r.sweepDuration.WithLabelValues(lv...),
		sweeps:        make(map[expiry.Outcome]prometheus.Counter, len(outcomes)),
		anomalies:     make(map[string]prometheus.Counter, len(anomalyKinds)+1),
	}
	for _, oc := range outcomes {
		o.sweeps[oc] = r.sweeps.WithLabelValues(o.with(oc.String())...)
	}
	for _, kind := range append(anomalyKinds, otherKind) {
		o.anomalies[kind] = r.anomalies.WithLabelValues(o.with(kind)...)
	}
	return o
}

func (o *SubscriptionObserver) with(extra string) []string {
	return append(append(make([]string, 0, len(o.labels)+1), o.labels...), extra)
}

func (o *SubscriptionObserver) SweepSkipped() { o.skipped.Inc() }

func (o *SubscriptionObserver) SweepFinished(outcome expiry.Outcome, elapsed time.Duration) {
	if c, ok := o.sweeps[outcome]; ok {
		c.Inc()
	}
	o.sweepDuration.Observe(elapsed.Seconds())
}

func (o *SubscriptionObserver) MessagesExpired(n int64) {
	if n > 0 {
		o.expired.Add(float64(n))
	}
}

func (o *SubscriptionObserver) DecodeError() { o.decodeErrors.Inc() }

func (o *SubscriptionObserver) Anomaly(kind string) {
	c, ok := o.anomalies[kind]
	if !ok {
		c = o.anomalies[otherKind]
	}
	c.Inc()
}

func (o *SubscriptionObserver) RatesUpdated(rate float64, backlog int64) {
	o.expiryRate.Set(rate)
	o.backlog.Set(float64(backlog))
}
