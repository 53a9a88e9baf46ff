// Package stats holds small in-process counters used by the expiry monitor.
package stats

import (
	"sync"
	"time"
)

// minElapsed floors the window length so a flush right after the previous
// one cannot divide by zero.
const minElapsed = time.Millisecond

// Rate counts events over a window and converts them to events per second on
// each CalculateRate call. It is safe for concurrent use.
type Rate struct {
	clock func() time.Time

	mu          sync.Mutex
	count       int64
	windowStart time.Time
	rate        float64
	total       int64
}

// RateOption configures a Rate.
type RateOption func(*Rate)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) RateOption {
	return func(r *Rate) { r.clock = clock }
}

// NewRate returns a Rate whose first window starts now.
func NewRate(opts ...RateOption) *Rate {
	r := &Rate{clock: time.Now}
	for _, o := range opts {
		o(r)
	}
	r.windowStart = r.clock()
	return r
}

// RecordEvents adds count events to the current window. Negative counts are
// ignored.
func (r *Rate) RecordEvents(count int64) {
	if count <= 0 {
		return
	}
	r.mu.Lock()
	r.count += count
	r.total += count
	r.mu.Unlock()
}

// CalculateRate closes the current window, stores and returns its rate, and
// opens a new window.
func (r *Rate) CalculateRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock()
	elapsed := now.Sub(r.windowStart)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	r.rate = float64(r.count) / elapsed.Seconds()
	r.count = 0
	r.windowStart = now
	return r.rate
}

// Rate returns the rate computed by the last CalculateRate.
func (r *Rate) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rate
}

// Pending returns the events recorded since the last flush.
func (r *Rate) Pending() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Total returns every event ever recorded.
func (r *Rate) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
