package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidPosition is returned when marking past the newest appended entry.
	ErrInvalidPosition = errors.New("eventlog: position beyond end of log")
	// ErrEmptyCursorName is returned when opening a cursor without a name.
	ErrEmptyCursorName = errors.New("eventlog: cursor name is required")
)

// FindConstraint selects the region a find scans.
type FindConstraint int

const (
	// SearchActiveEntries scans entries after the cursor's mark-delete position.
	SearchActiveEntries FindConstraint = iota
	// SearchAllAvailableEntries scans from the first stored entry.
	SearchAllAvailableEntries
)

func (c FindConstraint) String() string {
	if c == SearchAllAvailableEntries {
		return "all"
	}
	return "active"
}

// EntryPredicate decides whether an entry matches. It owns the entry for the
// duration of the call and should Release it before returning.
type EntryPredicate func(e *Entry) bool

// FindCallback receives the newest matching position, or found=false.
type FindCallback func(pos Position, found bool, err error)

// MarkDeleteCallback receives the outcome of an asynchronous mark-delete.
type MarkDeleteCallback func(err error)

// Cursor is a subscription's durable mark-delete position into a Log. Entries
// at or before the mark are acknowledged; entries after it are the backlog.
// Asynchronous operations and their callbacks run on the cursor's Executor.
type Cursor struct {
	log  *Log
	name string
	exec *Executor

	mu          sync.Mutex
	markDeleted uint64
}

// OpenCursor loads (or starts) the named subscription cursor on l.
func (l *Log) OpenCursor(name string, exec *Executor) (*Cursor, error) {
	if name == "" {
		return nil, ErrEmptyCursorName
	}
	c := &Cursor{log: l, name: name, exec: exec}
	seq, err := loadSeq(l.db, KeyCursor(l.namespace, l.topic, name, l.part))
	if err != nil {
		return nil, fmt.Errorf("load cursor %s: %w", name, err)
	}
	c.markDeleted = seq
	return c, nil
}

// Name returns the subscription name.
func (c *Cursor) Name() string { return c.name }

// Log returns the log the cursor reads.
func (c *Cursor) Log() *Log { return c.log }

// MarkDeletedPosition returns the current mark-delete position.
func (c *Cursor) MarkDeletedPosition() Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return PositionFromSeq(c.markDeleted)
}

// BacklogCount returns the number of entries after the mark-delete position.
// It is a point-in-time snapshot; appends and other mark-deletes move it.
func (c *Cursor) BacklogCount() int64 {
	last := c.log.LastSeq()
	c.mu.Lock()
	md := c.markDeleted
	c.mu.Unlock()
	if last <= md {
		return 0
	}
	return int64(last - md)
}

// FindNewestMatching scans the constrained region oldest-first and reports the
// last position of the leading run of entries for which pred returns true.
// done runs on an executor worker, or on the caller's goroutine if the
// executor rejects the job.
func (c *Cursor) FindNewestMatching(constraint FindConstraint, pred EntryPredicate, done FindCallback) {
	err := c.exec.Submit(func() {
		pos, found, err := c.findNewestMatching(context.Background(), constraint, pred)
		done(pos, found, err)
	})
	if err != nil {
		done(Position{}, false, fmt.Errorf("find %s/%s: %w", c.log.topic, c.name, err))
	}
}

// MarkDelete asynchronously advances the mark-delete position to pos.
// done runs on an executor worker, or on the caller's goroutine if the
// executor rejects the job.
func (c *Cursor) MarkDelete(pos Position, done MarkDeleteCallback) {
	err := c.exec.Submit(func() {
		done(c.Acknowledge(context.Background(), pos))
	})
	if err != nil {
		done(fmt.Errorf("mark-delete %s/%s: %w", c.log.topic, c.name, err))
	}
}

// Acknowledge synchronously advances the mark-delete position to pos. Marking
// at or before the current position is a no-op; the cursor never regresses.
func (c *Cursor) Acknowledge(ctx context.Context, pos Position) error {
	seq := pos.Seq()
	if seq > c.log.LastSeq() {
		return fmt.Errorf("%w: %d > %d", ErrInvalidPosition, seq, c.log.LastSeq())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.markDeleted {
		return nil
	}
	b := c.log.db.NewBatch()
	defer b.Close()
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], seq)
	if err := b.Set(KeyCursor(c.log.namespace, c.log.topic, c.name, c.log.part), v[:], nil); err != nil {
		return err
	}
	if err := c.log.db.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("mark-delete %s/%s at %d: %w", c.log.topic, c.name, seq, err)
	}
	c.markDeleted = seq
	return nil
}
