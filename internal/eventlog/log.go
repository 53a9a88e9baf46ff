package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/rzbill/flosweep/internal/storage/pebble"
)

// AppendRecord represents a single appendable message.
type AppendRecord struct {
	Header  []byte
	Payload []byte
}

// Log provides append-only operations for a namespace/topic/partition.
// Sequences start at 1 and are contiguous; nothing in this package removes
// entries, so lastSeq minus a cursor's mark-delete sequence is its backlog.
type Log struct {
	db        *pebblestore.DB
	namespace string
	topic     string
	part      uint32

	mu       sync.Mutex
	lastSeq  uint64
	notifyCh chan struct{}
}

var (
	// ErrEmptyTopic is returned when opening a log without a topic name.
	ErrEmptyTopic = errors.New("eventlog: topic is required")
	// ErrCorruptMeta is returned when a stored sequence value is shorter than 8 bytes.
	ErrCorruptMeta = errors.New("eventlog: corrupt metadata value")
)

// loadSeq reads a big-endian sequence stored at key. A missing key is zero.
func loadSeq(db *pebblestore.DB, key []byte) (uint64, error) {
	v, err := db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(v) < 8 {
		return 0, fmt.Errorf("%w: %d bytes at %q", ErrCorruptMeta, len(v), key)
	}
	return binary.BigEndian.Uint64(v[:8]), nil
}

// OpenLog initializes a Log and loads the last sequence from metadata (if any).
func OpenLog(db *pebblestore.DB, namespace, topic string, partition uint32) (*Log, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	l := &Log{db: db, namespace: namespace, topic: topic, part: partition, notifyCh: make(chan struct{})}
	seq, err := loadSeq(db, KeyLogMeta(namespace, topic, partition))
	if err != nil {
		return nil, fmt.Errorf("load log meta %s/%s/%d: %w", namespace, topic, partition, err)
	}
	l.lastSeq = seq
	return l, nil
}

// Namespace returns the namespace the log belongs to.
func (l *Log) Namespace() string { return l.namespace }

// Topic returns the topic name.
func (l *Log) Topic() string { return l.topic }

// Partition returns the partition index.
func (l *Log) Partition() uint32 { return l.part }

// LastSeq returns the sequence of the newest appended entry (0 when empty).
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// Append appends the provided records as a single atomic batch. Returns assigned seq numbers.
func (l *Log) Append(ctx context.Context, recs []AppendRecord) ([]uint64, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.db.NewBatch()
	defer b.Close()

	next := l.lastSeq
	seqs := make([]uint64, len(recs))
	for i, r := range recs {
		next++
		if err := b.Set(KeyLogEntry(l.namespace, l.topic, l.part, next), EncodeRecord(r.Header, r.Payload), nil); err != nil {
			return nil, err
		}
		seqs[i] = next
	}

	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], next)
	if err := b.Set(KeyLogMeta(l.namespace, l.topic, l.part), meta[:], nil); err != nil {
		return nil, err
	}

	if err := l.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	l.lastSeq = next
	// notify waiters
	close(l.notifyCh)
	l.notifyCh = make(chan struct{})
	return seqs, nil
}

func (l *Log) entryBounds(fromSeq uint64) (low, high []byte) {
	low = KeyLogEntry(l.namespace, l.topic, l.part, fromSeq)
	high = append(KeyLogEntry(l.namespace, l.topic, l.part, ^uint64(0)), 0x00)
	return low, high
}
