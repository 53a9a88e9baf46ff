package expiry

import (
	"sync"
	"time"

	"github.com/rzbill/flosweep/internal/eventlog"
)

// fakeCursor records requests and lets tests complete them by hand.
type fakeCursor struct {
	mu      sync.Mutex
	backlog int64

	// autoNotFound completes every find synchronously with "not found".
	autoNotFound bool
	// rejectFind completes every find synchronously with this error.
	rejectFind error

	findCalls   int
	deleteCalls int
	deletedTo   []eventlog.Position
	constraint  eventlog.FindConstraint

	pred      eventlog.EntryPredicate
	findDone  eventlog.FindCallback
	delDone   eventlog.MarkDeleteCallback
	afterFind chan struct{}
}

func newFakeCursor(backlog int64) *fakeCursor {
	return &fakeCursor{backlog: backlog, afterFind: make(chan struct{}, 16)}
}

func (c *fakeCursor) FindNewestMatching(constraint eventlog.FindConstraint, pred eventlog.EntryPredicate, done eventlog.FindCallback) {
	c.mu.Lock()
	c.findCalls++
	c.constraint = constraint
	c.pred = pred
	c.findDone = done
	auto, reject := c.autoNotFound, c.rejectFind
	c.mu.Unlock()

	switch {
	case reject != nil:
		done(eventlog.Position{}, false, reject)
	case auto:
		done(eventlog.Position{}, false, nil)
	}
	select {
	case c.afterFind <- struct{}{}:
	default:
	}
}

func (c *fakeCursor) MarkDelete(pos eventlog.Position, done eventlog.MarkDeleteCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteCalls++
	c.deletedTo = append(c.deletedTo, pos)
	c.delDone = done
}

func (c *fakeCursor) BacklogCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backlog
}

func (c *fakeCursor) setBacklog(n int64) {
	c.mu.Lock()
	c.backlog = n
	c.mu.Unlock()
}

// completeFind delivers the pending find result, as the executor would.
func (c *fakeCursor) completeFind(pos eventlog.Position, found bool, err error) {
	c.mu.Lock()
	done := c.findDone
	c.findDone = nil
	c.mu.Unlock()
	done(pos, found, err)
}

// completeDelete applies backlogAfter and delivers the pending delete result.
func (c *fakeCursor) completeDelete(backlogAfter int64, err error) {
	c.mu.Lock()
	done := c.delDone
	c.delDone = nil
	if err == nil {
		c.backlog = backlogAfter
	}
	c.mu.Unlock()
	done(err)
}

func (c *fakeCursor) predicate() eventlog.EntryPredicate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pred
}

func (c *fakeCursor) calls() (find, del int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findCalls, c.deleteCalls
}

// observed is what a recordingObserver has seen.
type observed struct {
	skipped   int
	outcomes  []Outcome
	expired   int64
	decodeErr int
	anomalies []string
	rates     []float64
}

// recordingObserver captures observer calls.
type recordingObserver struct {
	mu sync.Mutex
	observed
}

func (o *recordingObserver) SweepSkipped() {
	o.mu.Lock()
	o.skipped++
	o.mu.Unlock()
}

func (o *recordingObserver) SweepFinished(outcome Outcome, _ time.Duration) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, outcome)
	o.mu.Unlock()
}

func (o *recordingObserver) MessagesExpired(n int64) {
	o.mu.Lock()
	o.expired += n
	o.mu.Unlock()
}

func (o *recordingObserver) DecodeError() {
	o.mu.Lock()
	o.decodeErr++
	o.mu.Unlock()
}

func (o *recordingObserver) Anomaly(kind string) {
	o.mu.Lock()
	o.anomalies = append(o.anomalies, kind)
	o.mu.Unlock()
}

func (o *recordingObserver) RatesUpdated(rate float64, _ int64) {
	o.mu.Lock()
	o.rates = append(o.rates, rate)
	o.mu.Unlock()
}

func (o *recordingObserver) snapshot() observed {
	o.mu.Lock()
	defer o.mu.Unlock()
	return observed{
		skipped:   o.skipped,
		outcomes:  append([]Outcome(nil), o.outcomes...),
		expired:   o.expired,
		decodeErr: o.decodeErr,
		anomalies: append([]string(nil), o.anomalies...),
		rates:     append([]float64(nil), o.rates...),
	}
}
