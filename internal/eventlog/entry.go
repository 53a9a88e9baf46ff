package eventlog

import "sync"

var entryBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512)
		return &b
	},
}

// Entry is a log record handed to a find predicate. Its Header and Payload
// alias a pooled buffer: they are valid only until Release is called, and
// must not be retained past the predicate call.
type Entry struct {
	pos     Position
	buf     *[]byte
	header  []byte
	payload []byte
	err     error

	released bool
}

// NewEntry builds an unpooled Entry, for callers that synthesize entries.
func NewEntry(pos Position, header, payload []byte) *Entry {
	return &Entry{pos: pos, header: header, payload: payload}
}

// newPooledEntry copies a stored record value into a pooled buffer and decodes
// it in place. A corrupt record yields an Entry whose Err is ErrCorruptRecord.
func newPooledEntry(seq uint64, value []byte) *Entry {
	buf := entryBufPool.Get().(*[]byte)
	*buf = append((*buf)[:0], value...)
	e := &Entry{pos: PositionFromSeq(seq), buf: buf}
	e.header, e.payload, e.err = decodeView(*buf)
	return e
}

// Position returns the entry's log position.
func (e *Entry) Position() Position { return e.pos }

// Header returns the record header bytes.
func (e *Entry) Header() []byte { return e.header }

// Payload returns the record payload bytes.
func (e *Entry) Payload() []byte { return e.payload }

// Err reports a storage-level decode failure for the record, if any.
func (e *Entry) Err() error { return e.err }

// Released reports whether Release has been called.
func (e *Entry) Released() bool { return e.released }

// Release returns the entry's buffer to the pool. Safe to call more than once.
func (e *Entry) Release() {
	if e.buf != nil {
		*e.buf = (*e.buf)[:0]
		entryBufPool.Put(e.buf)
		e.buf = nil
	}
	e.header = nil
	e.payload = nil
	e.released = true
}
