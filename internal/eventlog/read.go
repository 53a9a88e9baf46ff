package eventlog

import (
	"github.com/cockroachdb/pebble"
)

type ReadOptions struct {
	Start   Position // if zero, begin from the first (or, reversed, last) entry
	Limit   int
	Reverse bool
}

type Item struct {
	Seq     uint64
	Header  []byte
	Payload []byte
}

// Read returns up to Limit items starting at Start (inclusive). Reverse scans
// descending from the entry before Start. Corrupt records are skipped. The
// returned Position is where a follow-up read should resume (zero when done).
func (l *Log) Read(opts ReadOptions) ([]Item, Position, error) {
	low, hi := l.entryBounds(0)
	items := make([]Item, 0, max(1, opts.Limit))
	var next Position

	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil, next, err
	}
	defer iter.Close()

	startKey := KeyLogEntry(l.namespace, l.topic, l.part, opts.Start.Seq())
	var valid bool
	switch {
	case opts.Reverse && opts.Start.IsZero():
		valid = iter.Last()
	case opts.Reverse:
		valid = iter.SeekLT(startKey)
	case opts.Start.IsZero():
		valid = iter.First()
	default:
		valid = iter.SeekGE(startKey)
	}

	for ; valid && (opts.Limit == 0 || len(items) < opts.Limit); valid = step(iter, opts.Reverse) {
		dec, err := DecodeRecord(iter.Value())
		if err != nil {
			continue
		}
		items = append(items, Item{Seq: seqFromEntryKey(iter.Key()), Header: dec.Header, Payload: dec.Payload})
	}
	if valid {
		next = PositionFromSeq(seqFromEntryKey(iter.Key()))
	}
	return items, next, iter.Error()
}

func step(iter *pebble.Iterator, reverse bool) bool {
	if reverse {
		return iter.Prev()
	}
	return iter.Next()
}
