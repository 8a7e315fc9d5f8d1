package engine

import (
	"fmt"
	"slices"

	"github.com/talgya/evacsim/internal/agents"
	"github.com/talgya/evacsim/internal/entropy"
	"github.com/talgya/evacsim/internal/exits"
	"github.com/talgya/evacsim/internal/world"
)

// followerPhase runs every active follower: stress update, leader adoption,
// exit lock, then one steering step.
func (s *Simulation) followerPhase(tick uint64) {
	worst := agents.WorstCase(s.Params.FollowerRadius)
	for _, f := range s.Followers {
		if !f.Active() {
			continue
		}
		f.Follower.Stress = agents.Stress(s.Params.StressWeights, s.stressInputs(f), worst)

		s.checkProgress(f, tick)
		visible := s.nearestVisibleExit(f)
		if visible == nil && f.Follower.Mode == agents.FollowerAvoidHazard {
			s.tryAdopt(f, tick)
		}
		if visible != nil && f.Follower.Mode != agents.FollowerApproachExit {
			s.lockExit(f, visible, tick)
		}
		s.steerFollower(f, tick)
	}
}

// stressInputs gathers what f senses within its knowledge radius.
func (s *Simulation) stressInputs(f *agents.Agent) agents.StressInputs {
	r := s.Params.FollowerRadius
	in := agents.StressInputs{Base: f.Follower.BaseStress}
	for _, peer := range s.agentsWithin(f.Cell, world.KindFollower, r, f) {
		in.Peers = append(in.Peers, agents.PeerStress{
			Stress:   peer.Follower.Stress,
			Distance: world.Distance(f.Cell, peer.Cell),
		})
	}
	for _, h := range s.Hazard.Within(f.Cell, r) {
		in.HazardDistances = append(in.HazardDistances, world.Distance(f.Cell, h))
	}
	return in
}

// checkProgress drops a follower's commitment when it can no longer lead
// anywhere: the followed leader is gone, or the locked exit became blocked.
// A blocked exit is shunned for the rest of the run.
func (s *Simulation) checkProgress(f *agents.Agent, tick uint64) {
	st := f.Follower
	switch st.Mode {
	case agents.FollowerFollowLeader:
		if l := s.agent(*st.Leader); l == nil || !l.Living() {
			agents.Release(f, l)
		}
	case agents.FollowerApproachExit:
		e := s.exitIndex[*st.Exit]
		if e == nil || exits.Assess(e, s) == exits.StatusBlocked {
			st.Shunned = append(st.Shunned, *st.Exit)
			st.Exit = nil
			st.Mode = agents.FollowerAvoidHazard
			s.emit(tick, "mode", fmt.Sprintf("%s abandoned a blocked exit", f.Label()))
		}
	}
}

// nearestVisibleExit returns the closest exit in f's radius that f has not
// shunned. Equal distances resolve to the lowest exit ID.
func (s *Simulation) nearestVisibleExit(f *agents.Agent) *exits.Exit {
	var best *exits.Exit
	bestDist := 0.0
	for _, e := range s.exitsWithin(f.Cell, s.Params.FollowerRadius) {
		if slices.Contains(f.Follower.Shunned, e.ID) {
			continue
		}
		d := world.Distance(f.Cell, e.Cell)
		if best == nil || d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

// tryAdopt offers f the most charismatic leader in range.
func (s *Simulation) tryAdopt(f *agents.Agent, tick uint64) {
	var best *agents.Agent
	for _, l := range s.agentsWithin(f.Cell, world.KindLeader, s.Params.FollowerRadius, f) {
		if best == nil || l.Leader.Charisma > best.Leader.Charisma ||
			(l.Leader.Charisma == best.Leader.Charisma && l.ID < best.ID) {
			best = l
		}
	}
	if best == nil {
		return
	}
	p := agents.AdoptionProbability(best.Leader.Charisma, f.Follower.Stress, s.Params.PanicWeight)
	if s.rng.Float64() >= p {
		return
	}
	agents.Adopt(f, best)
	s.emit(tick, "adopt", fmt.Sprintf("%s follows %s", f.Label(), best.Label()))
}

// lockExit commits f to exit e, releasing any followed leader.
func (s *Simulation) lockExit(f *agents.Agent, e *exits.Exit, tick uint64) {
	if f.Follower.Leader != nil {
		agents.Release(f, s.agent(*f.Follower.Leader))
	}
	id := e.ID
	f.Follower.Exit = &id
	f.Follower.Mode = agents.FollowerApproachExit
	s.emit(tick, "mode", fmt.Sprintf("%s approaching exit %d", f.Label(), e.ID))
}

// steerFollower moves f toward, in priority order, its locked exit, its
// leader, or the least hazardous cell nearby. A follower with none of these
// is trapped and dies.
func (s *Simulation) steerFollower(f *agents.Agent, tick uint64) {
	st := f.Follower
	switch {
	case st.Mode == agents.FollowerApproachExit:
		e := s.exitIndex[*st.Exit]
		s.move(f, e.Cell)
		if world.Chebyshev(f.Cell, e.Cell) <= exits.AdmissionRange {
			st.Exited = true
			s.emit(tick, "exit", fmt.Sprintf("%s reached exit %d", f.Label(), e.ID))
		}
		return

	case st.Mode == agents.FollowerFollowLeader:
		if l := s.agent(*st.Leader); l != nil && l.Living() {
			s.move(f, l.Cell)
			return
		}
	}

	target, ok := s.leastHazardCell(f.Cell, s.Params.FollowerRadius)
	if !ok {
		s.kill(f, tick, "trapped")
		return
	}
	s.move(f, target)
}

// leastHazardCell picks a random hazard-free cell around center whose own
// neighbourhood holds the fewest markers.
func (s *Simulation) leastHazardCell(center world.Cell, r int) (world.Cell, bool) {
	minCount := -1
	var best []world.Cell
	for _, c := range s.Params.Grid.Neighborhood(center, r, r) {
		if s.Hazard.Has(c) {
			continue
		}
		n := s.Hazard.CountWithin(c, 1)
		switch {
		case minCount < 0 || n < minCount:
			minCount = n
			best = append(best[:0], c)
		case n == minCount:
			best = append(best, c)
		}
	}
	if len(best) == 0 {
		return world.Cell{}, false
	}
	return best[entropy.Pick(s.rng, len(best))], true
}
