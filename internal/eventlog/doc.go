// Package eventlog implements the append-only message log and the durable
// subscription cursors the expiry sweep operates on.
//
// # Overview
//
// The log is partitioned by namespace/topic/partition and persisted in Pebble.
// Keys are lexicographically ordered for efficient range scans:
//   - ns/{ns}/log/{topic}/{part_be4}/m           (partition metadata: lastSeq)
//   - ns/{ns}/log/{topic}/{part_be4}/e/{seq_be8} (entries)
//   - ns/{ns}/cursor/{topic}/{sub}/{part_be4}    (mark-delete sequence)
//
// Records are stored as: uvarint(headerLen) | header | payload | crc32c(header|payload).
//
// API surface (internal)
//
//	l, _ := OpenLog(db, ns, topic, part)
//	seqs, _ := l.Append(ctx, []AppendRecord{{Header: h, Payload: p}})
//	items, next, _ := l.Read(ReadOptions{Start: PositionFromSeq(seqs[0]), Limit: 100})
//
//	exec := NewExecutor(4, 1024)
//	c, _ := l.OpenCursor("billing", exec)
//	n := c.BacklogCount()
//	c.FindNewestMatching(SearchActiveEntries, pred, func(pos Position, found bool, err error) {
//	    if found {
//	        c.MarkDelete(pos, func(err error) { /* ... */ })
//	    }
//	})
//
// Finds and mark-deletes are asynchronous: the work and its callback run on
// the Executor. Entries handed to predicates borrow pooled buffers and must
// be released before the predicate returns.
package eventlog
