package expiry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/flosweep/internal/eventlog"
	"github.com/rzbill/flosweep/pkg/log"
)

// sweep states. scanning and deleting are live; done and timedOut are
// terminal and reached exactly once.
const (
	stateScanning int32 = iota
	stateDeleting
	stateDone
	stateTimedOut
)

// sweep is one find-then-delete pass.
type sweep struct {
	id      uint64
	monitor *Monitor
	ttl     int
	started time.Time
	logger  log.Logger

	state atomic.Int32
	timer atomic.Pointer[time.Timer]
	once  sync.Once
}

// isExpired is the find predicate. It always releases the entry. A message
// that cannot be decoded is treated as not expired, which ends the search.
func (s *sweep) isExpired(e *eventlog.Entry) bool {
	defer e.Release()
	m := s.monitor
	expired, err := m.expired(e, s.ttl, m.clock())
	if err != nil {
		s.logger.Error("Error decoding message for expiry check",
			log.Str("position", e.Position().String()),
			log.Err(err),
		)
		m.countDecodeError()
		return false
	}
	return expired
}

func (s *sweep) onFindComplete(pos eventlog.Position, found bool, err error) {
	switch {
	case err != nil:
		if !s.state.CompareAndSwap(stateScanning, stateDone) {
			s.logger.Debug("Late find failure after sweep ended", log.Err(err))
			return
		}
		s.logger.Debug("Finding expired entry operation failed", log.Err(err))
		s.finish(OutcomeFindFailed)

	case !found:
		if !s.state.CompareAndSwap(stateScanning, stateDone) {
			return
		}
		s.logger.Debug("No messages to expire")
		s.finish(OutcomeNone)

	default:
		if !s.state.CompareAndSwap(stateScanning, stateDeleting) {
			s.logger.Warn("Discarding find result that arrived after the sweep timed out",
				log.Str("position", pos.String()),
			)
			s.monitor.countAnomaly(AnomalyLateFind)
			return
		}
		m := s.monitor
		before := m.cursor.BacklogCount()
		s.logger.Info("Expiring all messages until position", log.Str("position", pos.String()))
		m.cursor.MarkDelete(pos, func(err error) { s.onMarkDeleteComplete(before, err) })
	}
}

func (s *sweep) onMarkDeleteComplete(before int64, err error) {
	m := s.monitor
	if err != nil {
		if !s.state.CompareAndSwap(stateDeleting, stateDone) {
			s.logger.Warn("Late mark delete failure after sweep timed out", log.Err(err))
			return
		}
		s.logger.Warn("Message expiry failed - mark delete failed", log.Err(err))
		s.finish(OutcomeDeleteFailed)
		return
	}

	n := before - m.cursor.BacklogCount()
	if n < 0 {
		s.logger.Warn("Backlog grew across mark delete, counting zero expired",
			log.Int64("backlog_before", before),
			log.Int64("deleted", n),
		)
		m.countAnomaly(AnomalyNegativeDeletions)
		n = 0
	}
	// A delete that lands after a timeout still removed messages.
	m.rate.RecordEvents(n)
	m.observer.MessagesExpired(n)
	s.logger.Debug("Mark deleted messages", log.Int64("count", n))

	if !s.state.CompareAndSwap(stateDeleting, stateDone) {
		return
	}
	s.finish(OutcomeExpired)
}

func (s *sweep) onTimeout() {
	if !s.state.CompareAndSwap(stateScanning, stateTimedOut) && !s.state.CompareAndSwap(stateDeleting, stateTimedOut) {
		return
	}
	s.logger.Warn("Expiry sweep timed out, releasing guard", log.Dur("timeout", s.monitor.sweepTimeout))
	s.monitor.countAnomaly(AnomalySweepTimeout)
	s.finish(OutcomeTimeout)
}

// finish is the single exit of a sweep: it flushes the rate, records the
// outcome and clears the guard.
func (s *sweep) finish(outcome Outcome) {
	s.once.Do(func() {
		if t := s.timer.Load(); t != nil {
			t.Stop()
		}
		m := s.monitor
		m.UpdateRates()
		elapsed := m.clock().Sub(s.started)

		m.mu.Lock()
		m.last.Sweeps++
		m.last.LastOutcome = outcome.String()
		m.last.LastSweepAt = s.started
		m.mu.Unlock()

		m.observer.SweepFinished(outcome, elapsed)
		m.inProgress.Store(false)
	})
}
