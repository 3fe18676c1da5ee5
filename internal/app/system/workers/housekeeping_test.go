package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingEvictor struct {
	calls atomic.Int32
	idle  atomic.Int64
}

func (c *countingEvictor) EvictIdle(idle time.Duration) int {
	c.calls.Add(1)
	c.idle.Store(int64(idle))
	return 2
}

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep(time.Duration) int {
	c.calls.Add(1)
	return 0
}

type failingCleaner struct{ calls atomic.Int32 }

func (c *failingCleaner) CleanupExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, errors.New("mongo unavailable")
}

func TestHousekeeping_RunOnce(t *testing.T) {
	feeds := &countingEvictor{}
	lim := &countingSweeper{}
	states := &failingCleaner{}
	w := NewHousekeeping(feeds, lim, states, zap.NewNop(), time.Minute, 15*time.Minute)

	w.RunOnce()

	if feeds.calls.Load() != 1 || lim.calls.Load() != 1 || states.calls.Load() != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1", feeds.calls.Load(), lim.calls.Load(), states.calls.Load())
	}
	if time.Duration(feeds.idle.Load()) != 15*time.Minute {
		t.Errorf("idle = %v", time.Duration(feeds.idle.Load()))
	}
}

func TestHousekeeping_NilDependencies(t *testing.T) {
	w := NewHousekeeping(nil, nil, nil, zap.NewNop(), time.Minute, time.Minute)
	w.RunOnce()
}

func TestHousekeeping_StartStop(t *testing.T) {
	feeds := &countingEvictor{}
	w := NewHousekeeping(feeds, nil, nil, zap.NewNop(), 5*time.Millisecond, time.Minute)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for feeds.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if feeds.calls.Load() == 0 {
		t.Fatal("worker never ran")
	}
	after := feeds.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if feeds.calls.Load() != after {
		t.Error("worker ran after Stop")
	}
}
