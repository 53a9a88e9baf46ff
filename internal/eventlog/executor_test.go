package eventlog

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestExecutorRunsAndDrains(t *testing.T) {
	e := NewExecutor(2, 16)
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		if err := e.Submit(func() { n.Add(1) }); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	e.Close()
	if n.Load() != 10 {
		t.Fatalf("ran %d jobs, want 10", n.Load())
	}
	if err := e.Submit(func() {}); !errors.Is(err, ErrExecutorClosed) {
		t.Fatalf("expected ErrExecutorClosed, got %v", err)
	}
	e.Close()
}

func TestExecutorBusy(t *testing.T) {
	e := NewExecutor(1, 1)
	block := make(chan struct{})
	started := make(chan struct{})
	if err := e.Submit(func() { close(started); <-block }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-started
	if err := e.Submit(func() {}); err != nil {
		t.Fatalf("queued submit: %v", err)
	}
	if err := e.Submit(func() {}); !errors.Is(err, ErrExecutorBusy) {
		t.Fatalf("expected ErrExecutorBusy, got %v", err)
	}
	close(block)
	e.Close()
}
