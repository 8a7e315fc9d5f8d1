// Package engine provides the tick-based simulation loop and the world it
// drives: hazard, leader, follower, and exit phases run in a fixed order each
// tick, with removals applied at the tick boundary.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultGrowthInterval is how often the hazard spreads, in ticks.
const DefaultGrowthInterval = 10

// Engine drives the simulation forward.
type Engine struct {
	Tick           uint64        // Current tick counter (monotonic, never resets)
	Interval       time.Duration // Wall-clock pause between ticks; 0 runs headless
	GrowthInterval uint64        // Ticks between OnGrow calls
	MaxTicks       uint64        // Stop after this tick; 0 means no limit

	// Callbacks, populated during setup. OnGrow runs before OnTick on the
	// ticks it is due so the hazard phase sees this tick's growth.
	OnTick func(tick uint64) // Every tick
	OnGrow func(tick uint64) // Every GrowthInterval ticks
	Done   func() bool       // Termination predicate, checked after each tick

	running atomic.Bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval:       0,
		GrowthInterval: DefaultGrowthInterval,
	}
}

// Running reports whether Run is in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the simulation loop. Blocks until Stop is called, ctx is
// cancelled, Done reports true, or MaxTicks is reached.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.Tick, "interval", e.Interval)

	var ticker *time.Ticker
	if e.Interval > 0 {
		ticker = time.NewTicker(e.Interval)
		defer ticker.Stop()
	}

	for e.running.Load() {
		if ticker != nil {
			select {
			case <-ctx.Done():
				e.running.Store(false)
				continue
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			break
		}

		e.step()

		if e.Done != nil && e.Done() {
			slog.Info("simulation finished", "tick", e.Tick)
			break
		}
		if e.MaxTicks > 0 && e.Tick >= e.MaxTicks {
			slog.Info("tick limit reached", "tick", e.Tick)
			break
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop after the current tick.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.GrowthInterval > 0 && e.Tick%e.GrowthInterval == 0 && e.OnGrow != nil {
		e.OnGrow(e.Tick)
	}

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
}
