// Simulation is the world: it owns every entity collection and runs the
// per-kind phases each tick.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/talgya/evacsim/internal/agents"
	"github.com/talgya/evacsim/internal/entropy"
	"github.com/talgya/evacsim/internal/exits"
	"github.com/talgya/evacsim/internal/hazard"
	"github.com/talgya/evacsim/internal/world"
)

// maxEvents bounds the event log.
const maxEvents = 1000

// Params are the behavioural constants of a run.
type Params struct {
	Grid           world.Grid
	GrowthInterval uint64

	LeaderRadius   int // Knowledge radius of leaders
	FollowerRadius int // Knowledge radius of followers

	ExitRadius            int
	OvercrowdingThreshold int
	BlockedThreshold      int

	StressWeights agents.StressWeights
	PanicWeight   float64

	FleeRadius          int     // Hazard and exit both this close trigger flee
	ArrivalDistance     float64 // Seek-exit leaders closer than this have arrived
	ArrivalHazardRadius int     // Hazard this close on arrival triggers flee
	WalkPersistence     float64 // Chance a wandering leader keeps its walk target
	WalkOffset          int     // Stride of a new walk target, per axis
}

// DefaultParams returns the stock behavioural constants on a w×h grid.
func DefaultParams(w, h int) Params {
	return Params{
		Grid:                  world.NewGrid(w, h),
		GrowthInterval:        DefaultGrowthInterval,
		LeaderRadius:          agents.LeaderRadius,
		FollowerRadius:        agents.FollowerRadius,
		ExitRadius:            3,
		OvercrowdingThreshold: 10,
		BlockedThreshold:      3,
		StressWeights:         agents.DefaultStressWeights,
		PanicWeight:           agents.DefaultPanicWeight,
		FleeRadius:            10,
		ArrivalDistance:       3,
		ArrivalHazardRadius:   5,
		WalkPersistence:       0.85,
		WalkOffset:            15,
	}
}

// Phase names a step of the per-tick pipeline.
type Phase string

const (
	PhaseHazard    Phase = "hazard"
	PhaseLeaders   Phase = "leaders"
	PhaseFollowers Phase = "followers"
	PhaseExits     Phase = "exits"
	PhaseSweep     Phase = "sweep"
)

// PhaseOrder returns the order Tick runs its phases in.
func PhaseOrder() []Phase {
	return []Phase{PhaseHazard, PhaseLeaders, PhaseFollowers, PhaseExits, PhaseSweep}
}

// Event is a notable occurrence in the run.
type Event struct {
	Tick        uint64 `db:"tick" json:"tick"`
	Description string `db:"description" json:"description"`
	Category    string `db:"category" json:"category"` // "death", "exit", "mode", "adopt", "hazard"
}

// removal is an agent leaving the index at the tick boundary.
type removal struct {
	agent    *agents.Agent
	casualty bool // Leave an inert marker behind
}

// Simulation holds the complete world state and wires the phases together.
type Simulation struct {
	mu sync.RWMutex

	Params    Params
	Index     *world.Index
	Hazard    *hazard.Field
	Exits     []*exits.Exit
	Leaders   []*agents.Agent
	Followers []*agents.Agent
	LastTick  uint64 // Most recent tick processed

	agentIndex map[agents.AgentID]*agents.Agent
	exitIndex  map[exits.ExitID]*exits.Exit
	rng        entropy.Source

	pending     []removal
	casualtySeq world.EntityID
	terminated  bool

	events []Event
	stats  TickStats
	subs   map[int]chan TickStats
	subSeq int
}

// NewSimulation creates a Simulation from generated components.
func NewSimulation(p Params, src entropy.Source, hazards []world.Cell, ex []*exits.Exit, ag []*agents.Agent) *Simulation {
	s := &Simulation{
		Params:     p,
		Index:      world.NewIndex(),
		Hazard:     hazard.NewField(p.Grid, hazards),
		agentIndex: make(map[agents.AgentID]*agents.Agent, len(ag)),
		exitIndex:  make(map[exits.ExitID]*exits.Exit, len(ex)),
		rng:        src,
		subs:       make(map[int]chan TickStats),
	}
	for _, e := range ex {
		s.Exits = append(s.Exits, e)
		s.exitIndex[e.ID] = e
		s.Index.Place(world.KindExit, world.EntityID(e.ID), e.Cell)
	}
	for _, a := range ag {
		s.agentIndex[a.ID] = a
		s.Index.Place(a.Kind, world.EntityID(a.ID), a.Cell)
		if a.IsLeader() {
			s.Leaders = append(s.Leaders, a)
		} else {
			s.Followers = append(s.Followers, a)
		}
	}
	s.stats = s.collectStats(0)
	return s
}

// Attach wires the simulation's phases into e.
func (s *Simulation) Attach(e *Engine) {
	e.GrowthInterval = s.Params.GrowthInterval
	e.OnGrow = s.GrowHazard
	e.OnTick = s.Tick
	e.Done = s.Terminated
}

// GrowHazard runs the hazard field's growth round.
func (s *Simulation) GrowHazard(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.growHazard(tick)
}

// Tick runs one tick of the pipeline after any due growth: poison, leaders,
// followers, exits, then the boundary sweep.
func (s *Simulation) Tick(tick uint64) {
	s.mu.Lock()
	s.LastTick = tick
	s.poison(tick)
	s.leaderPhase(tick)
	s.followerPhase(tick)
	s.exitPhase(tick)
	s.sweep(tick)
	stats := s.stats
	s.mu.Unlock()

	s.publish(stats)
}

// Terminated reports whether the run has ended: no living agents remain.
func (s *Simulation) Terminated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terminated
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// agent looks up an agent by ID.
func (s *Simulation) agent(id agents.AgentID) *agents.Agent {
	return s.agentIndex[id]
}

// kill marks a terminal, detaches it from any leader/follower relationship,
// and stages its replacement by a casualty marker.
func (s *Simulation) kill(a *agents.Agent, tick uint64, cause string) {
	if !a.Living() {
		return
	}
	a.Alive = false
	a.Fate = agents.FateDead
	a.FateTick = tick

	if a.IsLeader() {
		s.releaseAll(a)
	} else if a.Follower.Leader != nil {
		agents.Release(a, s.agent(*a.Follower.Leader))
	}

	s.pending = append(s.pending, removal{agent: a, casualty: true})
	s.emit(tick, "death", fmt.Sprintf("%s died (%s) at %s", a.Label(), cause, a.Cell))
}

// evacuate removes an admitted agent from the building.
func (s *Simulation) evacuate(a *agents.Agent, e *exits.Exit, tick uint64) {
	if a.Follower != nil && a.Follower.Leader != nil {
		agents.Release(a, s.agent(*a.Follower.Leader))
	}
	a.Fate = agents.FateEvacuated
	a.FateTick = tick
	s.pending = append(s.pending, removal{agent: a})
	s.emit(tick, "exit", fmt.Sprintf("%s evacuated through exit %d", a.Label(), e.ID))
}

// releaseAll frees every follower of leader l.
func (s *Simulation) releaseAll(l *agents.Agent) {
	for _, f := range s.Followers {
		if f.Follower.Leader != nil && *f.Follower.Leader == l.ID {
			agents.Release(f, l)
		}
	}
}

// sweep applies staged removals, refreshes statistics, and checks for
// termination. It is the only place agents leave the index.
func (s *Simulation) sweep(tick uint64) {
	for _, r := range s.pending {
		a := r.agent
		s.Index.Remove(a.Kind, world.EntityID(a.ID))
		if r.casualty {
			s.casualtySeq++
			s.Index.Place(world.KindCasualty, s.casualtySeq, a.Cell)
		}
	}
	s.pending = s.pending[:0]

	s.stats = s.collectStats(tick)
	if !s.terminated && s.stats.Living() == 0 {
		s.terminated = true
		s.stats.Terminated = true
		s.emit(tick, "exit", "no living agents remain")
		slog.Info("evacuation complete",
			"tick", tick,
			"evacuated", s.stats.LeadersEvacuated+s.stats.FollowersEvacuated,
			"casualties", s.stats.Casualties,
		)
	}
}

// emit appends to the event log, trimming to the most recent maxEvents.
func (s *Simulation) emit(tick uint64, category, desc string) {
	s.events = append(s.events, Event{Tick: tick, Description: desc, Category: category})
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	slog.Debug("event", "tick", tick, "category", category, "description", desc)
}

// RecentEvents returns up to limit of the most recent events, newest last.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// living returns the agents of a population that are still in the building.
func living(pop []*agents.Agent) []*agents.Agent {
	var out []*agents.Agent
	for _, a := range pop {
		if a.Living() {
			out = append(out, a)
		}
	}
	return out
}

// agentsWithin resolves index entries of kind around center to living agents,
// skipping self.
func (s *Simulation) agentsWithin(center world.Cell, kind world.Kind, r int, self *agents.Agent) []*agents.Agent {
	var out []*agents.Agent
	for _, e := range s.Index.Within(center, kind, r, r) {
		a := s.agentIndex[agents.AgentID(e.ID)]
		if a == nil || a == self || !a.Living() {
			continue
		}
		out = append(out, a)
	}
	return out
}

// exitsWithin returns the exits around center, ordered by ID.
func (s *Simulation) exitsWithin(center world.Cell, r int) []*exits.Exit {
	var out []*exits.Exit
	for _, e := range s.Index.Within(center, world.KindExit, r, r) {
		if ex := s.exitIndex[exits.ExitID(e.ID)]; ex != nil {
			out = append(out, ex)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HazardsWithin lists hazard markers near center for steering.
func (s *Simulation) HazardsWithin(center world.Cell, radius int) []world.Cell {
	return s.Hazard.Within(center, radius)
}

// HazardCount counts hazard markers near center for exit assessment.
func (s *Simulation) HazardCount(center world.Cell, radius int) int {
	return s.Hazard.CountWithin(center, radius)
}

// FollowerCount counts living followers near center for exit assessment.
func (s *Simulation) FollowerCount(center world.Cell, radius int) int {
	return len(s.agentsWithin(center, world.KindFollower, radius, nil))
}

// move steers a one step toward target and keeps the index in step.
func (s *Simulation) move(a *agents.Agent, target world.Cell) bool {
	if !agents.MoveTowards(&a.Mobile, s.Params.Grid, target, s) {
		return false
	}
	s.Index.Move(a.Kind, world.EntityID(a.ID), a.Cell)
	return true
}
