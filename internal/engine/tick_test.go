package engine

import (
	"context"
	"testing"
	"time"
)

func TestStepRunsGrowthBeforeTick(t *testing.T) {
	e := NewEngine()
	e.GrowthInterval = 3
	var calls []string
	e.OnGrow = func(tick uint64) { calls = append(calls, "grow") }
	e.OnTick = func(tick uint64) { calls = append(calls, "tick") }

	for i := 0; i < 6; i++ {
		e.step()
	}
	want := []string{"tick", "tick", "grow", "tick", "tick", "tick", "grow", "tick"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestRunStopsAtMaxTicks(t *testing.T) {
	e := NewEngine()
	e.MaxTicks = 25
	ticks := 0
	e.OnTick = func(uint64) { ticks++ }
	e.Run(context.Background())
	if ticks != 25 || e.Tick != 25 {
		t.Fatalf("ran %d ticks (counter %d), want 25", ticks, e.Tick)
	}
	if e.Running() {
		t.Fatal("engine still marked running")
	}
}

func TestRunStopsWhenDone(t *testing.T) {
	e := NewEngine()
	e.Done = func() bool { return e.Tick >= 4 }
	e.Run(context.Background())
	if e.Tick != 4 {
		t.Fatalf("tick = %d, want 4", e.Tick)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	e.OnTick = func(tick uint64) {
		if tick == 3 {
			cancel()
		}
	}
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop after cancellation")
	}
	if e.Tick < 3 {
		t.Fatalf("tick = %d", e.Tick)
	}
}
