package eventlog

import (
	"bytes"
	"testing"
)

func TestEntryKeysSortBySequence(t *testing.T) {
	a := KeyLogEntry("ns", "t", 1, 9)
	b := KeyLogEntry("ns", "t", 1, 10)
	if bytes.Compare(a, b) >= 0 {
		t.Fatalf("expected key for seq 9 < key for seq 10")
	}
	if got := seqFromEntryKey(b); got != 10 {
		t.Fatalf("seqFromEntryKey=%d want 10", got)
	}
}

func TestKeysArePartitionScoped(t *testing.T) {
	p1 := KeyLogEntry("ns", "t", 1, ^uint64(0))
	p2 := KeyLogEntry("ns", "t", 2, 0)
	if bytes.Compare(p1, p2) >= 0 {
		t.Fatalf("partition 1 entries must sort before partition 2 entries")
	}
	if bytes.Equal(KeyCursor("ns", "t", "a", 1), KeyCursor("ns", "t", "b", 1)) {
		t.Fatalf("cursor keys must differ per subscription")
	}
}
