package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/flosweep/internal/eventlog"
	"github.com/rzbill/flosweep/internal/message"
	pebblestore "github.com/rzbill/flosweep/internal/storage/pebble"
)

func openLogCursor(t *testing.T) (*eventlog.Log, *eventlog.Cursor) {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l, err := eventlog.OpenLog(db, testKey.Namespace, testKey.Topic, testKey.Partition)
	require.NoError(t, err)
	exec := eventlog.NewExecutor(2, 64)
	t.Cleanup(exec.Close)
	c, err := l.OpenCursor(testKey.Subscription, exec)
	require.NoError(t, err)
	return l, c
}

func publishAt(t *testing.T, l *eventlog.Log, at time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		h, err := message.EncodeHeader(at, nil)
		require.NoError(t, err)
		_, err = l.Append(context.Background(), []eventlog.AppendRecord{{Header: h, Payload: []byte("m")}})
		require.NoError(t, err)
	}
}

func TestExpireOldestRunOnRealLog(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	l, c := openLogCursor(t)
	publishAt(t, l, base.Add(-2*time.Minute), 3)
	publishAt(t, l, base.Add(-5*time.Second), 2)
	require.Equal(t, int64(5), c.BacklogCount())

	m, obs := newTestMonitor(c, WithClock(func() time.Time { return base }))
	require.True(t, m.TriggerExpiry(60))
	require.Eventually(t, func() bool { return !m.InProgress() }, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(2), c.BacklogCount())
	assert.Equal(t, uint64(3), c.MarkDeletedPosition().Seq())
	assert.Equal(t, int64(3), m.Stats().Expired)
	assert.Greater(t, m.ExpiryRate(), 0.0)
	assert.Equal(t, []Outcome{OutcomeExpired}, obs.snapshot().outcomes)

	// nothing else has outlived the ttl
	require.True(t, m.TriggerExpiry(60))
	require.Eventually(t, func() bool { return !m.InProgress() }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), c.BacklogCount())
	assert.Equal(t, []Outcome{OutcomeExpired, OutcomeNone}, obs.snapshot().outcomes)
	assert.Zero(t, m.ExpiryRate())
}

func TestCorruptHeaderStopsSweep(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	l, c := openLogCursor(t)
	publishAt(t, l, base.Add(-time.Hour), 2)
	_, err := l.Append(context.Background(), []eventlog.AppendRecord{{Header: []byte{1, 2}, Payload: []byte("bad")}})
	require.NoError(t, err)
	publishAt(t, l, base.Add(-time.Hour), 1)

	m, obs := newTestMonitor(c, WithClock(func() time.Time { return base }))
	require.True(t, m.TriggerExpiry(60))
	require.Eventually(t, func() bool { return !m.InProgress() }, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, uint64(2), c.MarkDeletedPosition().Seq())
	assert.Equal(t, int64(2), c.BacklogCount())
	assert.Equal(t, 1, obs.snapshot().decodeErr)
}
