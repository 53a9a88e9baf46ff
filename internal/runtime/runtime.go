package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rzbill/flosweep/internal/catalog"
	cfgpkg "github.com/rzbill/flosweep/internal/config"
	"github.com/rzbill/flosweep/internal/eventlog"
	"github.com/rzbill/flosweep/internal/expiry"
	"github.com/rzbill/flosweep/internal/message"
	"github.com/rzbill/flosweep/internal/metrics"
	pebblestore "github.com/rzbill/flosweep/internal/storage/pebble"
	"github.com/rzbill/flosweep/pkg/log"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("runtime: closed")
	// ErrUnknownSubscription is returned for keys with no registered subscription.
	ErrUnknownSubscription = errors.New("runtime: unknown subscription")
	// ErrSubscriptionExists is returned when adding a key twice.
	ErrSubscriptionExists = errors.New("runtime: subscription already exists")
	// ErrInvalidTTL is returned when adding a subscription without a positive TTL.
	ErrInvalidTTL = errors.New("runtime: invalid ttl")
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Logger defaults to a no-op logger.
	Logger log.Logger
	// Metrics defaults to a fresh registry.
	Metrics *metrics.Registry
}

// Subscription is one swept cursor.
type Subscription struct {
	Key        expiry.Key
	TTLSeconds int
	Cursor     *eventlog.Cursor
	Monitor    *expiry.Monitor
}

type logKey struct {
	namespace string
	topic     string
	partition uint32
}

// Runtime wires storage, cursors and expiry monitors for a single-node
// instance.
type Runtime struct {
	db        *pebblestore.DB
	config    cfgpkg.Config
	logger    log.Logger
	metrics   *metrics.Registry
	exec      *eventlog.Executor
	scheduler *expiry.Scheduler

	mu     sync.Mutex
	logs map[logKey]*eventlog.Log
	// cursors outlive removal so a re-added subscription resumes on the
	// same in-memory mark-delete position as any sweep still in flight.
	cursors map[expiry.Key]*eventlog.Cursor
	subs    map[expiry.Key]*Subscription
	closed  bool
}

// Open initializes the underlying storage, opens every configured
// subscription and returns a Runtime. Call Start to begin sweeping.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	reg := opts.Metrics
	if reg == nil {
		reg = metrics.New()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       reg.StorageHook(),
	})
	if err != nil {
		return nil, err
	}

	cfg := opts.Config
	rt := &Runtime{
		db:      db,
		config:  cfg,
		logger:  logger.WithComponent("runtime"),
		metrics: reg,
		exec:    eventlog.NewExecutor(cfg.Expiry.Workers, 0),
		scheduler: expiry.NewScheduler(expiry.SchedulerConfig{
			SweepInterval: cfg.Expiry.SweepInterval(),
			RateInterval:  cfg.Expiry.RateInterval(),
		}, logger),
		logs:    make(map[logKey]*eventlog.Log),
		cursors: make(map[expiry.Key]*eventlog.Cursor),
		subs:    make(map[expiry.Key]*Subscription),
	}
	if err := rt.openSubscriptions(); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// openSubscriptions registers the configured subscriptions, then those
// recorded in the catalog.
func (r *Runtime) openSubscriptions() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.config.Subscriptions {
		key := expiry.Key{Namespace: s.Namespace, Topic: s.Topic, Partition: s.Partition, Subscription: s.Name}
		if _, err := r.addLocked(key, r.config.TTLFor(s)); err != nil {
			return fmt.Errorf("runtime: open subscription %s: %w", key, err)
		}
	}
	return r.restoreLocked()
}

// restoreLocked reopens subscriptions recorded in the catalog. Keys also
// present in the configuration keep their configured TTL.
func (r *Runtime) restoreLocked() error {
	recs, err := catalog.List(r.db)
	if err != nil {
		// keep the readable records
		r.logger.Warn("catalog contains unreadable records", log.Err(err))
	}
	for _, rec := range recs {
		key, perr := expiry.ParseKey(rec.Key)
		if perr != nil {
			r.logger.Warn("skipping catalog record", log.Str("key", rec.Key), log.Err(perr))
			continue
		}
		if _, ok := r.subs[key]; ok {
			continue
		}
		if _, err := r.addLocked(key, rec.TTLSeconds); err != nil {
			return fmt.Errorf("runtime: restore subscription %s: %w", key, err)
		}
	}
	return nil
}

// Start begins the expiry scheduler.
func (r *Runtime) Start() { r.scheduler.Start() }

// Close stops sweeping, drains in-flight cursor work and closes storage.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.scheduler.Stop()
	r.exec.Close()
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// OpenLog returns the shared event log for namespace/topic/partition. Every
// caller gets the same *eventlog.Log so appends and cursors agree on the
// last sequence.
func (r *Runtime) OpenLog(ns, topic string, partition uint32) (*eventlog.Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openLogLocked(ns, topic, partition)
}

func (r *Runtime) openLogLocked(ns, topic string, partition uint32) (*eventlog.Log, error) {
	if r.closed {
		return nil, ErrClosed
	}
	k := logKey{namespace: ns, topic: topic, partition: partition}
	if l, ok := r.logs[k]; ok {
		return l, nil
	}
	l, err := eventlog.OpenLog(r.db, ns, topic, partition)
	if err != nil {
		return nil, err
	}
	r.logs[k] = l
	return l, nil
}

// AddSubscription opens the cursor for key, builds its monitor, registers it
// with the scheduler and records it in the catalog so it is reopened on the
// next start.
func (r *Runtime) AddSubscription(key expiry.Key, ttlSeconds int) (*Subscription, error) {
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrInvalidTTL)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	sub, err := r.addLocked(key, ttlSeconds)
	if err != nil {
		return nil, err
	}
	if _, err := catalog.Ensure(r.db, key, ttlSeconds); err != nil {
		r.removeLocked(key)
		return nil, fmt.Errorf("runtime: record subscription %s: %w", key, err)
	}
	return sub, nil
}

func (r *Runtime) addLocked(key expiry.Key, ttlSeconds int) (*Subscription, error) {
	if _, ok := r.subs[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSubscriptionExists, key)
	}
	cur, err := r.openCursorLocked(key)
	if err != nil {
		return nil, err
	}
	mon := expiry.NewMonitor(key, cur,
		expiry.WithLogger(r.logger.WithComponent("expiry")),
		expiry.WithObserver(r.metrics.Observer(key)),
		expiry.WithSweepTimeout(r.config.Expiry.SweepTimeout()),
	)
	sub := &Subscription{Key: key, TTLSeconds: ttlSeconds, Cursor: cur, Monitor: mon}
	r.subs[key] = sub
	r.scheduler.Register(mon, ttlSeconds)
	r.logger.Info("subscription opened",
		log.Str("key", key.String()),
		log.Int("ttl_seconds", ttlSeconds),
		log.Int64("backlog", cur.BacklogCount()),
	)
	return sub, nil
}

func (r *Runtime) openCursorLocked(key expiry.Key) (*eventlog.Cursor, error) {
	if c, ok := r.cursors[key]; ok {
		return c, nil
	}
	l, err := r.openLogLocked(key.Namespace, key.Topic, key.Partition)
	if err != nil {
		return nil, err
	}
	c, err := l.OpenCursor(key.Subscription, r.exec)
	if err != nil {
		return nil, err
	}
	r.cursors[key] = c
	return c, nil
}

// RemoveSubscription stops sweeping key, drops its metric series and its
// catalog record. The durable cursor is kept. A configured subscription
// returns on the next start.
func (r *Runtime) RemoveSubscription(key expiry.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubscription, key)
	}
	r.removeLocked(key)
	if r.closed {
		return nil
	}
	return catalog.Remove(r.db, key)
}

func (r *Runtime) removeLocked(key expiry.Key) {
	delete(r.subs, key)
	r.scheduler.Unregister(key)
	r.metrics.Forget(key)
}

// Subscription returns the subscription registered under key.
func (r *Runtime) Subscription(key expiry.Key) (*Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[key]
	return s, ok
}

// Subscriptions returns every subscription ordered by key.
func (r *Runtime) Subscriptions() []*Subscription {
	r.mu.Lock()
	out := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		out = append(out, s)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// Publish appends one message stamped with the current time and returns its
// sequence.
func (r *Runtime) Publish(ctx context.Context, ns, topic string, partition uint32, payload []byte, props map[string]string) (uint64, error) {
	l, err := r.OpenLog(ns, topic, partition)
	if err != nil {
		return 0, err
	}
	hdr, err := message.EncodeHeader(time.Now(), props)
	if err != nil {
		return 0, err
	}
	seqs, err := l.Append(ctx, []eventlog.AppendRecord{{Header: hdr, Payload: payload}})
	if err != nil {
		return 0, err
	}
	return seqs[0], nil
}

// Acknowledge advances key's mark-delete position to seq, as a consumer
// acknowledging everything up to seq would.
func (r *Runtime) Acknowledge(ctx context.Context, key expiry.Key, seq uint64) error {
	s, ok := r.Subscription(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubscription, key)
	}
	return s.Cursor.Acknowledge(ctx, eventlog.PositionFromSeq(seq))
}

// Metrics returns the metrics registry.
func (r *Runtime) Metrics() *metrics.Registry { return r.metrics }

// Scheduler returns the expiry scheduler.
func (r *Runtime) Scheduler() *expiry.Scheduler { return r.scheduler }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
