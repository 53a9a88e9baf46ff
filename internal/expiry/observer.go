package expiry

import "time"

// Outcome is how a sweep ended.
type Outcome int

const (
	// OutcomeExpired: messages were found and mark-deleted.
	OutcomeExpired Outcome = iota
	// OutcomeNone: nothing in the backlog had outlived the TTL.
	OutcomeNone
	// OutcomeFindFailed: the cursor could not complete the search.
	OutcomeFindFailed
	// OutcomeDeleteFailed: the mark-delete was rejected.
	OutcomeDeleteFailed
	// OutcomeTimeout: the sweep timeout fired before the sweep finished.
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExpired:
		return "expired"
	case OutcomeNone:
		return "none"
	case OutcomeFindFailed:
		return "find_failed"
	case OutcomeDeleteFailed:
		return "delete_failed"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Anomaly kinds reported to observers.
const (
	AnomalyNegativeDeletions = "negative_deletions"
	AnomalySweepTimeout      = "sweep_timeout"
	AnomalyLateFind          = "late_find"
)

// Observer receives sweep events. Calls arrive from executor goroutines and
// from TriggerExpiry callers; implementations must be safe for concurrent use.
type Observer interface {
	SweepSkipped()
	SweepFinished(outcome Outcome, elapsed time.Duration)
	MessagesExpired(n int64)
	DecodeError()
	Anomaly(kind string)
	RatesUpdated(rate float64, backlog int64)
}

type nopObserver struct{}

func (nopObserver) SweepSkipped()                        {}
func (nopObserver) SweepFinished(Outcome, time.Duration) {}
func (nopObserver) MessagesExpired(int64)                {}
func (nopObserver) DecodeError()                         {}
func (nopObserver) Anomaly(string)                       {}
func (nopObserver) RatesUpdated(float64, int64)          {}
