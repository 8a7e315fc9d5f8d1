package persistence

import (
	"fmt"
	"log/slog"

	"github.com/talgya/evacsim/internal/engine"
)

// Source is the part of a running simulation the recorder reads.
type Source interface {
	Stats() engine.TickStats
	RecentEvents(limit int) []engine.Event
	Outcomes() []engine.Outcome
}

// Recorder buffers a run's history and flushes it every few ticks.
type Recorder struct {
	db    *DB
	runID string
	every uint64

	pending      []engine.TickStats
	savedThrough uint64 // Events up to this tick are stored
}

// NewRecorder creates a recorder for runID flushing every `every` ticks.
// An interval of 0 flushes only on Flush and Finish.
func NewRecorder(db *DB, runID string, every uint64) *Recorder {
	return &Recorder{db: db, runID: runID, every: every}
}

// RunID returns the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// Record buffers the latest tick's statistics, flushing when due.
func (r *Recorder) Record(src Source) error {
	st := src.Stats()
	r.pending = append(r.pending, st)
	if r.every > 0 && st.Tick%r.every == 0 {
		return r.Flush(src)
	}
	return nil
}

// Flush writes buffered statistics and any events from completed ticks.
func (r *Recorder) Flush(src Source) error {
	if err := r.db.SaveTickStats(r.runID, r.pending); err != nil {
		return fmt.Errorf("save tick stats: %w", err)
	}
	r.pending = r.pending[:0]

	through := src.Stats().Tick
	var fresh []engine.Event
	for _, e := range src.RecentEvents(0) {
		if e.Tick > r.savedThrough && e.Tick <= through {
			fresh = append(fresh, e)
		}
	}
	if err := r.db.SaveEvents(r.runID, fresh); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	r.savedThrough = through

	slog.Debug("run history flushed", "run", r.runID, "tick", through, "events", len(fresh))
	return nil
}

// Finish flushes what is left, stores every agent's fate, and stamps the
// run with its final statistics.
func (r *Recorder) Finish(src Source) error {
	if err := r.Flush(src); err != nil {
		return err
	}
	if err := r.db.SaveOutcomes(r.runID, src.Outcomes()); err != nil {
		return fmt.Errorf("save outcomes: %w", err)
	}
	if err := r.db.FinishRun(r.runID, src.Stats()); err != nil {
		return err
	}
	slog.Info("run saved", "run", r.runID, "tick", src.Stats().Tick)
	return nil
}
