package eventlog

import (
	"context"
	"errors"
	"testing"
	"time"
)

type findResult struct {
	pos   Position
	found bool
	err   error
}

func findSync(t *testing.T, c *Cursor, constraint FindConstraint, pred EntryPredicate) findResult {
	t.Helper()
	ch := make(chan findResult, 1)
	c.FindNewestMatching(constraint, pred, func(pos Position, found bool, err error) {
		ch <- findResult{pos, found, err}
	})
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("find callback never arrived")
		return findResult{}
	}
}

// payloadBelow matches entries whose single payload byte is < n.
func payloadBelow(n byte, released *int) EntryPredicate {
	return func(e *Entry) bool {
		defer func() {
			e.Release()
			*released++
		}()
		return e.Err() == nil && len(e.Payload()) == 1 && e.Payload()[0] < n
	}
}

func TestFindNewestMatchingLeadingRun(t *testing.T) {
	l, seqs := seedLog(t, 5) // payloads 0..4
	c := newTestCursor(t, l, "g1")
	released := 0
	r := findSync(t, c, SearchActiveEntries, payloadBelow(3, &released))
	if r.err != nil || !r.found {
		t.Fatalf("find: found=%v err=%v", r.found, r.err)
	}
	if r.pos.Seq() != seqs[2] {
		t.Fatalf("pos=%s want %d", r.pos, seqs[2])
	}
	// three matches plus the first rejection
	if released != 4 {
		t.Fatalf("released %d entries, want 4", released)
	}
}

func TestFindStopsAtFirstMismatch(t *testing.T) {
	l := newTestLog(t)
	seqs, err := l.Append(context.Background(), []AppendRecord{
		{Payload: []byte{0}}, {Payload: []byte{9}}, {Payload: []byte{0}},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	c := newTestCursor(t, l, "g1")
	released := 0
	r := findSync(t, c, SearchActiveEntries, payloadBelow(3, &released))
	if !r.found || r.pos.Seq() != seqs[0] {
		t.Fatalf("want only the first entry, got found=%v pos=%s", r.found, r.pos)
	}
}

func TestFindNotFound(t *testing.T) {
	l, _ := seedLog(t, 3)
	c := newTestCursor(t, l, "g1")
	released := 0
	r := findSync(t, c, SearchActiveEntries, payloadBelow(0, &released))
	if r.err != nil || r.found {
		t.Fatalf("expected not found, got found=%v err=%v", r.found, r.err)
	}
}

func TestFindActiveSkipsMarkDeleted(t *testing.T) {
	l, seqs := seedLog(t, 5)
	c := newTestCursor(t, l, "g1")
	if err := c.Acknowledge(context.Background(), PositionFromSeq(seqs[1])); err != nil {
		t.Fatalf("ack: %v", err)
	}
	var seen []uint64
	pred := func(e *Entry) bool {
		defer e.Release()
		seen = append(seen, e.Position().Seq())
		return true
	}
	r := findSync(t, c, SearchActiveEntries, pred)
	if !r.found || r.pos.Seq() != seqs[4] {
		t.Fatalf("expected newest entry, got %s", r.pos)
	}
	if len(seen) != 3 || seen[0] != seqs[2] {
		t.Fatalf("active scan visited %v", seen)
	}

	seen = nil
	r = findSync(t, c, SearchAllAvailableEntries, pred)
	if !r.found || len(seen) != 5 {
		t.Fatalf("full scan visited %v", seen)
	}
}

func TestFindEmptyLog(t *testing.T) {
	l := newTestLog(t)
	c := newTestCursor(t, l, "g1")
	r := findSync(t, c, SearchActiveEntries, func(e *Entry) bool { e.Release(); return true })
	if r.found || r.err != nil {
		t.Fatalf("expected not found on empty log")
	}
}

func TestFindOnClosedExecutor(t *testing.T) {
	l, _ := seedLog(t, 1)
	exec := NewExecutor(1, 1)
	c, err := l.OpenCursor("g1", exec)
	if err != nil {
		t.Fatalf("open cursor: %v", err)
	}
	exec.Close()
	r := findSync(t, c, SearchActiveEntries, func(e *Entry) bool { e.Release(); return true })
	if !errors.Is(r.err, ErrExecutorClosed) {
		t.Fatalf("expected ErrExecutorClosed, got %v", r.err)
	}
}

func TestEntryReleaseIdempotent(t *testing.T) {
	e := newPooledEntry(7, EncodeRecord([]byte("h"), []byte("p")))
	if e.Err() != nil || string(e.Payload()) != "p" || e.Position().Seq() != 7 {
		t.Fatalf("unexpected entry: err=%v payload=%q", e.Err(), e.Payload())
	}
	e.Release()
	e.Release()
	if !e.Released() || e.Payload() != nil {
		t.Fatalf("release did not clear entry")
	}
	bad := newPooledEntry(8, []byte{1, 2})
	if !errors.Is(bad.Err(), ErrCorruptRecord) {
		t.Fatalf("expected corrupt entry, got %v", bad.Err())
	}
	bad.Release()
}
