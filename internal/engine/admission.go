package engine

import (
	"log/slog"

	"github.com/talgya/evacsim/internal/agents"
	"github.com/talgya/evacsim/internal/exits"
	"github.com/talgya/evacsim/internal/world"
)

// exitPhase lets every exit admit its waiting agents.
func (s *Simulation) exitPhase(tick uint64) {
	for _, e := range s.Exits {
		s.admit(e, tick)
	}
}

// admit drains one exit: followers that reached it first, fleeing leaders
// only when no follower was waiting.
func (s *Simulation) admit(e *exits.Exit, tick uint64) {
	var followers, leaders []*agents.Agent
	for _, f := range s.agentsWithin(e.Cell, world.KindFollower, exits.AdmissionRange, nil) {
		if f.HasExited() && f.Follower.Exit != nil && *f.Follower.Exit == e.ID {
			followers = append(followers, f)
		}
	}
	for _, l := range s.agentsWithin(e.Cell, world.KindLeader, exits.AdmissionRange, nil) {
		if l.Leader.Mode == agents.LeaderFlee {
			leaders = append(leaders, l)
		}
	}

	adm := exits.Drain(s.rng, followers, leaders)
	for _, f := range adm.Followers {
		s.evacuate(f, e, tick)
		e.AdmittedFollowers++
	}
	for _, l := range adm.Leaders {
		s.evacuate(l, e, tick)
		e.AdmittedLeaders++
	}
	if adm.Total() > 0 {
		slog.Debug("exit admitted agents", "tick", tick, "exit", e.ID,
			"followers", len(adm.Followers), "leaders", len(adm.Leaders),
			"waiting", len(followers)+len(leaders))
	}
}
