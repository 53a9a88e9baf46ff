package expiry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/flosweep/internal/eventlog"
	"github.com/rzbill/flosweep/internal/message"
	"github.com/rzbill/flosweep/internal/stats"
	"github.com/rzbill/flosweep/pkg/log"
)

// Cursor is the slice of a subscription cursor the monitor drives.
// *eventlog.Cursor satisfies it.
type Cursor interface {
	FindNewestMatching(constraint eventlog.FindConstraint, pred eventlog.EntryPredicate, done eventlog.FindCallback)
	MarkDelete(pos eventlog.Position, done eventlog.MarkDeleteCallback)
	BacklogCount() int64
}

// ExpiredFunc decides whether an entry has outlived ttlSeconds at now.
type ExpiredFunc func(e *eventlog.Entry, ttlSeconds int, now time.Time) (bool, error)

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l log.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver receives sweep events (metrics).
func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithSweepTimeout force-finishes a sweep that has not completed within d.
// Zero disables the timeout.
func WithSweepTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.sweepTimeout = d }
}

// WithExpiryPredicate overrides message.EntryExpiredAt.
func WithExpiryPredicate(fn ExpiredFunc) Option {
	return func(m *Monitor) {
		if fn != nil {
			m.expired = fn
		}
	}
}

// WithClock overrides time.Now for entry ages and rate windows.
func WithClock(clock func() time.Time) Option {
	return func(m *Monitor) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// Monitor runs expiry sweeps for one subscription.
type Monitor struct {
	key          Key
	cursor       Cursor
	logger       log.Logger
	observer     Observer
	sweepTimeout time.Duration
	expired      ExpiredFunc
	clock        func() time.Time
	rate         *stats.Rate

	inProgress atomic.Bool
	sweepSeq   atomic.Uint64

	mu   sync.Mutex
	last Stats
}

// Stats is a point-in-time view of a monitor.
type Stats struct {
	Key          Key       `json:"-"`
	InProgress   bool      `json:"in_progress"`
	ExpiryRate   float64   `json:"expiry_rate"`
	Backlog      int64     `json:"backlog"`
	Sweeps       uint64    `json:"sweeps"`
	Skipped      uint64    `json:"skipped"`
	Expired      int64     `json:"expired_total"`
	DecodeErrors uint64    `json:"decode_errors"`
	Anomalies    uint64    `json:"anomalies"`
	LastOutcome  string    `json:"last_outcome,omitempty"`
	LastSweepAt  time.Time `json:"last_sweep_at,omitempty"`
}

// NewMonitor builds a monitor over cursor.
func NewMonitor(key Key, cursor Cursor, opts ...Option) *Monitor {
	m := &Monitor{
		key:      key,
		cursor:   cursor,
		logger:   log.NewNop(),
		observer: nopObserver{},
		expired:  message.EntryExpiredAt,
		clock:    time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.logger = m.logger.With(
		log.Str("namespace", key.Namespace),
		log.Str("topic", key.Topic),
		log.Int64("partition", int64(key.Partition)),
		log.Str("subscription", key.Subscription),
	)
	m.rate = stats.NewRate(stats.WithClock(m.clock))
	return m
}

// Key returns the subscription the monitor sweeps.
func (m *Monitor) Key() Key { return m.key }

// InProgress reports whether a sweep is running.
func (m *Monitor) InProgress() bool { return m.inProgress.Load() }

// TriggerExpiry starts a sweep that expires messages older than ttlSeconds.
// It returns false without doing anything when a sweep is already running
// or ttlSeconds is not positive. It never blocks on the log.
func (m *Monitor) TriggerExpiry(ttlSeconds int) bool {
	if ttlSeconds <= 0 {
		m.logger.Warn("Ignoring expiry trigger with non-positive ttl", log.Int("ttl_seconds", ttlSeconds))
		return false
	}
	if !m.inProgress.CompareAndSwap(false, true) {
		m.logger.Debug("Ignore expiry trigger, last check is still running")
		m.mu.Lock()
		m.last.Skipped++
		m.mu.Unlock()
		m.observer.SweepSkipped()
		return false
	}

	s := &sweep{
		id:      m.sweepSeq.Add(1),
		monitor: m,
		ttl:     ttlSeconds,
		started: m.clock(),
	}
	s.logger = m.logger.With(log.Uint64("sweep", s.id))
	s.logger.Info("Starting message expiry check", log.Int("ttl_seconds", ttlSeconds))

	if m.sweepTimeout > 0 {
		s.timer.Store(time.AfterFunc(m.sweepTimeout, s.onTimeout))
	}
	m.cursor.FindNewestMatching(eventlog.SearchActiveEntries, s.isExpired, s.onFindComplete)
	return true
}

// UpdateRates closes the current rate window and publishes the result.
func (m *Monitor) UpdateRates() {
	r := m.rate.CalculateRate()
	m.observer.RatesUpdated(r, m.cursor.BacklogCount())
}

// ExpiryRate returns the rate computed at the last flush, in messages per
// second.
func (m *Monitor) ExpiryRate() float64 { return m.rate.Rate() }

// Stats returns a snapshot of the monitor's counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	st := m.last
	m.mu.Unlock()
	st.Key = m.key
	st.InProgress = m.inProgress.Load()
	st.ExpiryRate = m.rate.Rate()
	st.Backlog = m.cursor.BacklogCount()
	st.Expired = m.rate.Total()
	return st
}

func (m *Monitor) countDecodeError() {
	m.mu.Lock()
	m.last.DecodeErrors++
	m.mu.Unlock()
	m.observer.DecodeError()
}

func (m *Monitor) countAnomaly(kind string) {
	m.mu.Lock()
	m.last.Anomalies++
	m.mu.Unlock()
	m.observer.Anomaly(kind)
}
