// Package agents provides the evacuee data model: the shared mobile
// capability, leader and follower payloads, exit knowledge, steering, and the
// stress model. Decisions that need the whole world live in the engine.
package agents

import (
	"fmt"

	"github.com/talgya/evacsim/internal/exits"
	"github.com/talgya/evacsim/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Knowledge radii (Chebyshev cells).
const (
	LeaderRadius   = 15
	FollowerRadius = 10
)

// LeaderMode is a leader's current intent.
type LeaderMode uint8

const (
	LeaderSeekExit      LeaderMode = iota // Head for the nearest usable exit
	LeaderSeekFollowers                   // Wander looking for followers
	LeaderFlee                            // Leave through the nearest exit
)

// LeaderModeName returns a label for a leader mode.
func LeaderModeName(m LeaderMode) string {
	switch m {
	case LeaderSeekExit:
		return "seek_exit"
	case LeaderSeekFollowers:
		return "seek_followers"
	case LeaderFlee:
		return "flee"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

// MarshalText renders the mode by name.
func (m LeaderMode) MarshalText() ([]byte, error) {
	return []byte(LeaderModeName(m)), nil
}

// FollowerMode is a follower's current movement intent.
type FollowerMode uint8

const (
	FollowerAvoidHazard  FollowerMode = iota // Drift to hazard-free cells
	FollowerFollowLeader                     // Track an adopted leader
	FollowerApproachExit                     // Locked onto a visible exit
)

// FollowerModeName returns a label for a follower mode.
func FollowerModeName(m FollowerMode) string {
	switch m {
	case FollowerAvoidHazard:
		return "avoid_hazard"
	case FollowerFollowLeader:
		return "follow_leader"
	case FollowerApproachExit:
		return "approach_exit"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

// MarshalText renders the mode by name.
func (m FollowerMode) MarshalText() ([]byte, error) {
	return []byte(FollowerModeName(m)), nil
}

// Fate is how an agent's run ended.
type Fate uint8

const (
	FateActive    Fate = iota // Still in the building
	FateDead                  // Killed by hazard or trapped
	FateEvacuated             // Admitted through an exit
)

// FateName returns a label for a fate.
func FateName(f Fate) string {
	switch f {
	case FateActive:
		return "active"
	case FateDead:
		return "dead"
	case FateEvacuated:
		return "evacuated"
	default:
		return fmt.Sprintf("fate(%d)", f)
	}
}

// Mobile is the capability shared by every moving agent. Only the owning
// agent's steering step writes it.
type Mobile struct {
	Pos      world.Point `json:"pos"`
	Cell     world.Cell  `json:"cell"`
	Alive    bool        `json:"alive"`
	GoalSeek bool        `json:"goal_seek"` // False while deflecting around hazard
}

// NewMobile places a live, goal-seeking mobile at cell.
func NewMobile(cell world.Cell) Mobile {
	return Mobile{Pos: cell.Center(), Cell: cell, Alive: true, GoalSeek: true}
}

// LeaderState is the guide-specific payload.
type LeaderState struct {
	Mode       LeaderMode  `json:"mode"`
	Followers  int         `json:"followers"`
	Charisma   float64     `json:"charisma"` // 0.0–1.0, fixed at creation
	Knowledge  *Knowledge  `json:"knowledge"`
	WalkTarget *world.Cell `json:"walk_target,omitempty"` // Persisted random-walk destination
}

// FollowerState is the unguided-agent payload.
type FollowerState struct {
	Stress     float64        `json:"stress"`      // 0.0–1.0, recomputed every tick
	BaseStress float64        `json:"base_stress"` // Sampled at creation
	Mode       FollowerMode   `json:"mode"`
	Leader     *AgentID       `json:"leader,omitempty"`  // Non-nil only in FollowerFollowLeader
	Exit       *exits.ExitID  `json:"exit,omitempty"`    // Locked exit in FollowerApproachExit
	Exited     bool           `json:"exited"`            // Reached its exit; waiting for admission
	Shunned    []exits.ExitID `json:"shunned,omitempty"` // Exits seen blocked after locking on
}

// Agent is a leader or a follower. Exactly one payload is non-nil.
type Agent struct {
	ID   AgentID    `json:"id"`
	Kind world.Kind `json:"kind"`
	Mobile

	Leader   *LeaderState   `json:"leader,omitempty"`
	Follower *FollowerState `json:"follower,omitempty"`

	Fate     Fate   `json:"fate"`
	FateTick uint64 `json:"fate_tick,omitempty"`
}

// NewLeader creates a leader at cell.
func NewLeader(id AgentID, cell world.Cell, charisma float64) *Agent {
	return &Agent{
		ID:     id,
		Kind:   world.KindLeader,
		Mobile: NewMobile(cell),
		Leader: &LeaderState{
			Mode:      LeaderSeekExit,
			Charisma:  charisma,
			Knowledge: NewKnowledge(),
		},
	}
}

// NewFollower creates a follower at cell.
func NewFollower(id AgentID, cell world.Cell, stress float64) *Agent {
	return &Agent{
		ID:     id,
		Kind:   world.KindFollower,
		Mobile: NewMobile(cell),
		Follower: &FollowerState{
			Stress:     stress,
			BaseStress: stress,
			Mode:       FollowerAvoidHazard,
		},
	}
}

// IsLeader reports whether a is a leader.
func (a *Agent) IsLeader() bool { return a.Leader != nil }

// Location returns the agent's grid cell.
func (a *Agent) Location() world.Cell { return a.Cell }

// Vulnerable reports whether the hazard can still harm the agent. Exited
// followers are terminal and out of harm's way.
func (a *Agent) Vulnerable() bool {
	return a.Alive && a.Fate == FateActive && !a.HasExited()
}

// HasExited reports whether a follower reached its exit.
func (a *Agent) HasExited() bool {
	return a.Follower != nil && a.Follower.Exited
}

// Living reports whether the agent still counts toward the population in the
// building: alive and not yet admitted.
func (a *Agent) Living() bool {
	return a.Alive && a.Fate == FateActive
}

// Active reports whether the agent still takes a turn each tick.
func (a *Agent) Active() bool {
	return a.Living() && !a.HasExited()
}

// Label is a short identifier for logs.
func (a *Agent) Label() string {
	return fmt.Sprintf("%s-%d", world.KindName(a.Kind), a.ID)
}
