package engine

import (
	"github.com/talgya/evacsim/internal/agents"
	"github.com/talgya/evacsim/internal/exits"
	"github.com/talgya/evacsim/internal/world"
)

// ExitView is a read-only copy of an exit and its live status.
type ExitView struct {
	exits.Exit
	Status  exits.Status `json:"status"`
	Waiting int          `json:"waiting"`
}

// LeaderView is a read-only copy of a leader.
type LeaderView struct {
	ID        agents.AgentID     `json:"id"`
	Cell      world.Cell         `json:"cell"`
	Mode      agents.LeaderMode  `json:"mode"`
	Followers int                `json:"followers"`
	Charisma  float64            `json:"charisma"`
	Knowledge []agents.KnownExit `json:"knowledge"`
}

// Outcome is one agent's final state.
type Outcome struct {
	ID       agents.AgentID `json:"id"`
	Kind     string         `json:"kind"`
	Fate     string         `json:"fate"`
	FateTick uint64         `json:"fate_tick"`
	Cell     world.Cell     `json:"cell"`
	Trait    float64        `json:"trait"` // Charisma for leaders, base stress for followers
}

// ExitViews returns the exits with their current status, ordered by ID.
func (s *Simulation) ExitViews() []ExitView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExitView, 0, len(s.Exits))
	for _, e := range s.Exits {
		waiting := 0
		for _, f := range s.agentsWithin(e.Cell, world.KindFollower, exits.AdmissionRange, nil) {
			if f.HasExited() {
				waiting++
			}
		}
		out = append(out, ExitView{Exit: *e, Status: exits.Assess(e, s), Waiting: waiting})
	}
	return out
}

// LeaderViews returns every leader still in the building.
func (s *Simulation) LeaderViews() []LeaderView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LeaderView
	for _, l := range living(s.Leaders) {
		out = append(out, LeaderView{
			ID:        l.ID,
			Cell:      l.Cell,
			Mode:      l.Leader.Mode,
			Followers: l.Leader.Followers,
			Charisma:  l.Leader.Charisma,
			Knowledge: l.Leader.Knowledge.Entries(),
		})
	}
	return out
}

// Outcomes returns the fate of every agent, leaders first.
func (s *Simulation) Outcomes() []Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Outcome, 0, len(s.Leaders)+len(s.Followers))
	for _, l := range s.Leaders {
		out = append(out, outcomeOf(l, l.Leader.Charisma))
	}
	for _, f := range s.Followers {
		out = append(out, outcomeOf(f, f.Follower.BaseStress))
	}
	return out
}

func outcomeOf(a *agents.Agent, trait float64) Outcome {
	return Outcome{
		ID:       a.ID,
		Kind:     world.KindName(a.Kind),
		Fate:     agents.FateName(a.Fate),
		FateTick: a.FateTick,
		Cell:     a.Cell,
		Trait:    trait,
	}
}
