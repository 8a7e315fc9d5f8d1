package engine

import (
	"testing"

	"github.com/talgya/evacsim/internal/agents"
	"github.com/talgya/evacsim/internal/entropy"
	"github.com/talgya/evacsim/internal/exits"
	"github.com/talgya/evacsim/internal/world"
)

func wantLeaderMode(t *testing.T, l *agents.Agent, want agents.LeaderMode) {
	t.Helper()
	if !l.Alive {
		t.Fatalf("%s died: %s", l.Label(), agents.FateName(l.Fate))
	}
	if l.Leader.Mode != want {
		t.Fatalf("%s mode = %s, want %s", l.Label(),
			agents.LeaderModeName(l.Leader.Mode), agents.LeaderModeName(want))
	}
}

func TestLeaderFleesWhenOneExitIsLeftOpen(t *testing.T) {
	// Both exits sit at Chebyshev 15 from the leader; the markers around
	// the first block it without coming within flee range of the leader.
	blocked := testExit(1, 5, 5)
	open := testExit(2, 35, 35)
	markers := []world.Cell{{X: 5, Y: 6}, {X: 6, Y: 5}, {X: 6, Y: 6}}
	l := agents.NewLeader(1, world.Cell{X: 20, Y: 20}, 0.5)
	src, _ := entropy.New(1)
	_, e := newTestSim(t, src, markers, []*exits.Exit{blocked, open}, l)

	steps(e, 1)
	if o, ok := l.Leader.Knowledge.Lookup(blocked.Cell); !ok || o.Status != exits.StatusBlocked {
		t.Fatalf("blocked exit observation = %+v ok=%v", o, ok)
	}
	if l.Leader.Knowledge.Unblocked() != 1 {
		t.Fatalf("unblocked = %d, want 1", l.Leader.Knowledge.Unblocked())
	}
	wantLeaderMode(t, l, agents.LeaderFlee)
}

func TestLeaderFleesWithHazardAndExitClose(t *testing.T) {
	near := testExit(1, 28, 20)
	far := testExit(2, 20, 34)
	l := agents.NewLeader(1, world.Cell{X: 20, Y: 20}, 0.5)
	src, _ := entropy.New(1)
	_, e := newTestSim(t, src, []world.Cell{{X: 12, Y: 20}}, []*exits.Exit{near, far}, l)

	steps(e, 1)
	if l.Leader.Knowledge.Unblocked() != 2 {
		t.Fatalf("unblocked = %d, want 2", l.Leader.Knowledge.Unblocked())
	}
	wantLeaderMode(t, l, agents.LeaderFlee)
}

func TestLeaderKeepsSeekingWithManyExitsAndNoHazard(t *testing.T) {
	ex := []*exits.Exit{testExit(1, 20, 34), testExit(2, 34, 20), testExit(3, 6, 20)}
	l := agents.NewLeader(1, world.Cell{X: 20, Y: 20}, 0.5)
	src, _ := entropy.New(1)
	_, e := newTestSim(t, src, nil, ex, l)

	steps(e, 3)
	if l.Leader.Knowledge.Unblocked() != 3 {
		t.Fatalf("unblocked = %d, want 3", l.Leader.Knowledge.Unblocked())
	}
	wantLeaderMode(t, l, agents.LeaderSeekExit)
}

func TestLeaderArrivingAtExitSeeksFollowers(t *testing.T) {
	ex := []*exits.Exit{testExit(1, 23, 20), testExit(2, 20, 34)}
	l := agents.NewLeader(1, world.Cell{X: 20, Y: 20}, 0.5)
	src, _ := entropy.New(1)
	_, e := newTestSim(t, src, nil, ex, l)

	steps(e, 1)
	if l.Cell != (world.Cell{X: 21, Y: 20}) {
		t.Fatalf("leader at %v, want one step toward the exit", l.Cell)
	}
	wantLeaderMode(t, l, agents.LeaderSeekFollowers)
}

func TestLeaderArrivingNextToHazardFlees(t *testing.T) {
	ex := []*exits.Exit{testExit(1, 23, 20), testExit(2, 20, 34)}
	l := agents.NewLeader(1, world.Cell{X: 20, Y: 20}, 0.5)
	src, _ := entropy.New(1)
	sim, e := newTestSim(t, src, []world.Cell{{X: 17, Y: 20}}, ex, l)
	// Keep the hazard outside flee range so only the arrival check sees it.
	sim.Params.FleeRadius = 2

	steps(e, 1)
	if l.Cell != (world.Cell{X: 21, Y: 20}) {
		t.Fatalf("leader at %v, want one step toward the exit", l.Cell)
	}
	wantLeaderMode(t, l, agents.LeaderFlee)
}

func TestWalkTargetPersistence(t *testing.T) {
	src := &entropy.Fixed{Floats: []float64{0.84, 0.85}, Ints: []int{2, 0}}
	l := agents.NewLeader(1, world.Cell{X: 20, Y: 20}, 0.5)
	l.Leader.Mode = agents.LeaderSeekFollowers
	held := world.Cell{X: 30, Y: 20}
	l.Leader.WalkTarget = &held
	sim, _ := newTestSim(t, src, nil, nil, l)

	if got := sim.walkTarget(l); got != held {
		t.Fatalf("draw below persistence: target = %v, want %v kept", got, held)
	}
	got := sim.walkTarget(l)
	want := world.Cell{X: 35, Y: 5}
	if got != want {
		t.Fatalf("draw at persistence: target = %v, want %v", got, want)
	}
	if l.Leader.WalkTarget == nil || *l.Leader.WalkTarget != want {
		t.Fatalf("stored walk target = %v, want %v", l.Leader.WalkTarget, want)
	}
}

func TestWalkTargetClampsToGrid(t *testing.T) {
	src := &entropy.Fixed{Ints: []int{0, 0}}
	l := agents.NewLeader(1, world.Cell{X: 5, Y: 5}, 0.5)
	l.Leader.Mode = agents.LeaderSeekFollowers
	sim, _ := newTestSim(t, src, nil, nil, l)

	if got := sim.walkTarget(l); got != (world.Cell{X: 0, Y: 0}) {
		t.Fatalf("target = %v, want clamped to the origin", got)
	}
}

func TestWalkTargetWithinOneCellIsReached(t *testing.T) {
	// A persistence draw of 0 would keep any target that is still away.
	src := &entropy.Fixed{Floats: []float64{0}, Ints: []int{1, 2}}
	l := agents.NewLeader(1, world.Cell{X: 20, Y: 20}, 0.5)
	l.Leader.Mode = agents.LeaderSeekFollowers
	adjacent := world.Cell{X: 21, Y: 21}
	l.Leader.WalkTarget = &adjacent
	sim, _ := newTestSim(t, src, nil, nil, l)

	got := sim.walkTarget(l)
	if want := (world.Cell{X: 20, Y: 35}); got != want {
		t.Fatalf("target = %v, want a fresh target %v", got, want)
	}
}
