package persistence

import (
	"testing"

	"github.com/talgya/evacsim/internal/engine"
)

type fakeSource struct {
	stats    engine.TickStats
	events   []engine.Event
	outcomes []engine.Outcome
}

func (f *fakeSource) Stats() engine.TickStats         { return f.stats }
func (f *fakeSource) RecentEvents(int) []engine.Event { return f.events }
func (f *fakeSource) Outcomes() []engine.Outcome      { return f.outcomes }

func TestRecorderFlushesOnInterval(t *testing.T) {
	db := openTestDB(t)
	run := NewRun(1, 10, 10, 1, 2, "{}")
	if err := db.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	rec := NewRecorder(db, run.ID, 5)
	src := &fakeSource{}

	for tick := uint64(1); tick <= 7; tick++ {
		src.stats = engine.TickStats{Tick: tick, FollowersAlive: 2}
		src.events = append(src.events, engine.Event{Tick: tick, Description: "spread", Category: "hazard"})
		if err := rec.Record(src); err != nil {
			t.Fatalf("Record(%d) failed: %v", tick, err)
		}
	}

	hist, _ := db.TickHistory(run.ID, 0)
	if len(hist) != 5 {
		t.Fatalf("after 7 ticks with interval 5: %d rows stored, want 5", len(hist))
	}
	events, _ := db.RunEvents(run.ID, 100)
	if len(events) != 5 {
		t.Fatalf("stored %d events, want 5", len(events))
	}

	src.stats.Terminated = true
	src.outcomes = []engine.Outcome{{ID: 1, Kind: "leader", Fate: "evacuated", FateTick: 7}}
	if err := rec.Finish(src); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	hist, _ = db.TickHistory(run.ID, 0)
	events, _ = db.RunEvents(run.ID, 100)
	if len(hist) != 7 || len(events) != 7 {
		t.Fatalf("after finish: %d ticks, %d events; want 7, 7", len(hist), len(events))
	}
	got, _ := db.GetRun(run.ID)
	if got.FinalTick != 7 || !got.Terminated {
		t.Fatalf("run not finished: %+v", got)
	}
}
