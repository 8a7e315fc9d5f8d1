package engine

import (
	"fmt"

	"github.com/talgya/evacsim/internal/agents"
	"github.com/talgya/evacsim/internal/exits"
	"github.com/talgya/evacsim/internal/world"
)

// leaderPhase runs every active leader: knowledge refresh, gossip, mode
// decision, then one steering step.
func (s *Simulation) leaderPhase(tick uint64) {
	for _, l := range s.Leaders {
		if !l.Active() {
			continue
		}
		s.observeExits(l, tick)
		s.gossip(l)
		s.decideFlee(l, tick)
		s.steerLeader(l, tick)
	}
}

// observeExits records the status of every exit in the leader's radius.
func (s *Simulation) observeExits(l *agents.Agent, tick uint64) {
	for _, e := range s.exitsWithin(l.Cell, s.Params.LeaderRadius) {
		l.Leader.Knowledge.Observe(e.Cell, exits.Assess(e, s), float64(tick))
	}
}

// gossip merges the stores of every living leader in range into l's.
func (s *Simulation) gossip(l *agents.Agent) {
	for _, peer := range s.agentsWithin(l.Cell, world.KindLeader, s.Params.LeaderRadius, l) {
		l.Leader.Knowledge.Merge(peer.Leader.Knowledge)
	}
}

// shouldFlee reports whether l must head out: only one known exit is still
// passable, or hazard and a known exit are both close by.
func (s *Simulation) shouldFlee(l *agents.Agent) bool {
	k := l.Leader.Knowledge
	if k.Unblocked() == 1 {
		return true
	}
	r := s.Params.FleeRadius
	return s.Hazard.CountWithin(l.Cell, r) > 0 && k.AnyWithin(l.Cell, r)
}

func (s *Simulation) decideFlee(l *agents.Agent, tick uint64) {
	if l.Leader.Mode == agents.LeaderFlee || !s.shouldFlee(l) {
		return
	}
	s.setLeaderMode(l, agents.LeaderFlee, tick)
}

func (s *Simulation) setLeaderMode(l *agents.Agent, mode agents.LeaderMode, tick uint64) {
	if l.Leader.Mode == mode {
		return
	}
	s.emit(tick, "mode", fmt.Sprintf("%s %s -> %s", l.Label(),
		agents.LeaderModeName(l.Leader.Mode), agents.LeaderModeName(mode)))
	l.Leader.Mode = mode
}

// exitTarget picks the nearest available exit, falling back to the nearest
// overcrowded one.
func exitTarget(l *agents.Agent) (world.Cell, bool) {
	k := l.Leader.Knowledge
	if at, _, ok := k.Nearest(l.Cell, exits.StatusAvailable); ok {
		return at, true
	}
	at, _, ok := k.Nearest(l.Cell, exits.StatusOvercrowded)
	return at, ok
}

func (s *Simulation) steerLeader(l *agents.Agent, tick uint64) {
	if l.Leader.Mode == agents.LeaderSeekFollowers {
		s.move(l, s.walkTarget(l))
		return
	}

	target, ok := exitTarget(l)
	if !ok {
		s.kill(l, tick, "no usable exit known")
		return
	}
	s.move(l, target)

	if l.Leader.Mode == agents.LeaderSeekExit && world.Distance(l.Cell, target) < s.Params.ArrivalDistance {
		next := agents.LeaderSeekFollowers
		if s.Hazard.CountWithin(l.Cell, s.Params.ArrivalHazardRadius) > 0 {
			next = agents.LeaderFlee
		}
		s.setLeaderMode(l, next, tick)
	}
}

// walkTarget returns the wandering leader's destination, keeping the last
// one with probability WalkPersistence and otherwise striding WalkOffset
// cells along a random axis combination. A target within one cell counts as
// reached.
func (s *Simulation) walkTarget(l *agents.Agent) world.Cell {
	st := l.Leader
	if st.WalkTarget != nil && world.Chebyshev(*st.WalkTarget, l.Cell) > 1 && s.rng.Float64() < s.Params.WalkPersistence {
		return *st.WalkTarget
	}
	step := s.Params.WalkOffset
	dx := (s.rng.Intn(3) - 1) * step
	dy := (s.rng.Intn(3) - 1) * step
	target := s.clampCell(l.Cell.Add(dx, dy))
	st.WalkTarget = &target
	return target
}

func (s *Simulation) clampCell(c world.Cell) world.Cell {
	g := s.Params.Grid
	c.X = min(max(c.X, 0), g.Width-1)
	c.Y = min(max(c.Y, 0), g.Height-1)
	return c
}
