package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateOverWindow(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	r := NewRate(WithClock(clk.Now))

	r.RecordEvents(30)
	clk.Advance(10 * time.Second)

	assert.InDelta(t, 3.0, r.CalculateRate(), 1e-9)
	assert.InDelta(t, 3.0, r.Rate(), 1e-9)
	assert.Zero(t, r.Pending())
	assert.Equal(t, int64(30), r.Total())
}

func TestRateResetsWindow(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	r := NewRate(WithClock(clk.Now))

	r.RecordEvents(10)
	clk.Advance(time.Second)
	require.InDelta(t, 10.0, r.CalculateRate(), 1e-9)

	clk.Advance(time.Second)
	assert.Zero(t, r.CalculateRate())
	assert.Equal(t, int64(10), r.Total())
}

func TestRateIgnoresNegative(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	r := NewRate(WithClock(clk.Now))

	r.RecordEvents(-5)
	r.RecordEvents(0)
	clk.Advance(time.Second)
	assert.Zero(t, r.CalculateRate())
	assert.Zero(t, r.Total())
}

func TestRateElapsedFloor(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	r := NewRate(WithClock(clk.Now))

	r.RecordEvents(1)
	// no time passes; the floor keeps the result finite
	assert.InDelta(t, 1000.0, r.CalculateRate(), 1e-6)
}

func TestRateReadDoesNotFlush(t *testing.T) {
	r := NewRate()
	r.RecordEvents(4)
	assert.Zero(t, r.Rate())
	assert.Equal(t, int64(4), r.Pending())
}

func TestRateConcurrentRecord(t *testing.T) {
	r := NewRate()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				r.RecordEvents(1)
				if j%100 == 0 {
					_ = r.Rate()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(8000), r.Total())
	assert.Equal(t, int64(8000), r.Pending())
	assert.GreaterOrEqual(t, r.CalculateRate(), 0.0)
}

func TestRateConcurrentRecordAndFlush(t *testing.T) {
	r := NewRate()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		negative int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				r.RecordEvents(1)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if v := r.CalculateRate(); v < 0 {
					mu.Lock()
					negative++
					mu.Unlock()
				}
				_ = r.Rate()
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, negative)
	assert.Equal(t, int64(8000), r.Total())
	assert.GreaterOrEqual(t, r.CalculateRate(), 0.0)
	assert.Zero(t, r.Pending())
}
