package expiry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rzbill/flosweep/pkg/log"
)

// SchedulerConfig configures the sweep loop.
type SchedulerConfig struct {
	SweepInterval time.Duration // How often to trigger sweeps (default: 5s)
	RateInterval  time.Duration // How often to flush rates (default: 60s)
}

// Scheduler periodically triggers expiry on every registered monitor.
type Scheduler struct {
	sweepInterval time.Duration
	rateInterval  time.Duration
	logger        log.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	entries map[Key]*scheduled
}

type scheduled struct {
	monitor *Monitor
	ttl     int
}

// NewScheduler creates a scheduler. It does nothing until Start.
func NewScheduler(cfg SchedulerConfig, logger log.Logger) *Scheduler {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Second
	}
	if cfg.RateInterval <= 0 {
		cfg.RateInterval = 60 * time.Second
	}
	if logger == nil {
		logger = log.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sweepInterval: cfg.SweepInterval,
		rateInterval:  cfg.RateInterval,
		logger:        logger.WithComponent("expiry-scheduler"),
		ctx:           ctx,
		cancel:        cancel,
		entries:       make(map[Key]*scheduled),
	}
}

// Start begins the scheduling loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop ends the loop and waits for it. Sweeps already in flight finish on
// their cursor's executor.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Register adds m, swept with ttlSeconds. Registering the same key again
// replaces the monitor and TTL.
func (s *Scheduler) Register(m *Monitor, ttlSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[m.Key()] = &scheduled{monitor: m, ttl: ttlSeconds}
}

// Unregister stops sweeping key.
func (s *Scheduler) Unregister(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Monitor returns the monitor registered under key.
func (s *Scheduler) Monitor(key Key) (*Monitor, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, 0, false
	}
	return e.monitor, e.ttl, true
}

// Monitors returns every registered monitor ordered by key.
func (s *Scheduler) Monitors() []*Monitor {
	s.mu.RLock()
	out := make([]*Monitor, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.monitor)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	sweepTicker := time.NewTicker(s.sweepInterval)
	defer sweepTicker.Stop()
	rateTicker := time.NewTicker(s.rateInterval)
	defer rateTicker.Stop()

	s.logger.Info("Expiry scheduler started",
		log.Dur("sweep_interval", s.sweepInterval),
		log.Dur("rate_interval", s.rateInterval),
	)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Expiry scheduler stopped")
			return
		case <-sweepTicker.C:
			s.SweepAll()
		case <-rateTicker.C:
			s.UpdateAllRates()
		}
	}
}

func (s *Scheduler) snapshot() []scheduled {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scheduled, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out
}

// SweepAll triggers one sweep on every registered monitor and returns how
// many started.
func (s *Scheduler) SweepAll() int {
	started := 0
	for _, e := range s.snapshot() {
		if e.monitor.TriggerExpiry(e.ttl) {
			started++
		}
	}
	return started
}

// UpdateAllRates flushes every registered monitor's rate.
func (s *Scheduler) UpdateAllRates() {
	for _, e := range s.snapshot() {
		e.monitor.UpdateRates()
	}
}
