package eventlog

import (
	"context"

	"github.com/cockroachdb/pebble"
)

// findNewestMatching walks entries from the start of the constrained region and
// stops at the first entry pred rejects. Every entry is handed to pred exactly
// once; entries that pred does not release are reclaimed by the GC.
func (c *Cursor) findNewestMatching(ctx context.Context, constraint FindConstraint, pred EntryPredicate) (Position, bool, error) {
	var from uint64
	if constraint == SearchActiveEntries {
		from = c.MarkDeletedPosition().Seq() + 1
	}
	low, hi := c.log.entryBounds(from)
	iter, err := c.log.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return Position{}, false, err
	}
	defer iter.Close()

	var last uint64
	found := false
	for ok := iter.First(); ok; ok = iter.Next() {
		if err := ctx.Err(); err != nil {
			return Position{}, false, err
		}
		seq := seqFromEntryKey(iter.Key())
		if !pred(newPooledEntry(seq, iter.Value())) {
			break
		}
		last = seq
		found = true
	}
	if err := iter.Error(); err != nil {
		return Position{}, false, err
	}
	if !found {
		return Position{}, false, nil
	}
	return PositionFromSeq(last), true, nil
}
