// Package exits provides exit gates: fixed, capacity-limited egress points
// that leaders assess for congestion and hazard, and that drain waiting
// agents a few at a time.
package exits

import (
	"fmt"

	"github.com/talgya/evacsim/internal/entropy"
	"github.com/talgya/evacsim/internal/world"
)

// BatchSize is the most agents of one population an exit admits per tick.
const BatchSize = 2

// AdmissionRange is the Chebyshev radius within which agents queue at an exit.
const AdmissionRange = 1

// ExitID identifies an exit gate.
type ExitID uint64

// Status is the observed condition of an exit.
type Status uint8

const (
	StatusAvailable   Status = iota // Passable and not congested
	StatusOvercrowded               // Follower density at or above threshold
	StatusBlocked                   // Hazard density at or above threshold
)

// StatusName returns a label for a status.
func StatusName(s Status) string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusOvercrowded:
		return "overcrowded"
	case StatusBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("status(%d)", s)
	}
}

// MarshalText renders the status by name in JSON and YAML output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(StatusName(s)), nil
}

// Exit is a fixed admission gate.
type Exit struct {
	ID                    ExitID     `json:"id"`
	Cell                  world.Cell `json:"cell"`
	Radius                int        `json:"radius"`                 // Neighbourhood assessed for crowding and hazard
	OvercrowdingThreshold int        `json:"overcrowding_threshold"` // Followers within Radius
	BlockedThreshold      int        `json:"blocked_threshold"`      // Hazard markers within Radius

	// Running totals.
	AdmittedFollowers int `json:"admitted_followers"`
	AdmittedLeaders   int `json:"admitted_leaders"`
}

// Surroundings answers the density queries an assessment needs.
type Surroundings interface {
	HazardCount(center world.Cell, radius int) int
	FollowerCount(center world.Cell, radius int) int
}

// Assess derives an exit's status. Blocked takes precedence over
// overcrowded; both thresholds compare with >=. A threshold of zero or less
// disables that check.
func Assess(e *Exit, s Surroundings) Status {
	if e.BlockedThreshold > 0 && s.HazardCount(e.Cell, e.Radius) >= e.BlockedThreshold {
		return StatusBlocked
	}
	if e.OvercrowdingThreshold > 0 && s.FollowerCount(e.Cell, e.Radius) >= e.OvercrowdingThreshold {
		return StatusOvercrowded
	}
	return StatusAvailable
}

// Admission is the outcome of one tick at an exit.
type Admission[T any] struct {
	Followers []T
	Leaders   []T
}

// Total returns the number of admitted agents.
func (a Admission[T]) Total() int {
	return len(a.Followers) + len(a.Leaders)
}

// Drain selects which waiting agents pass this tick. Followers are served
// first; leaders are drained only when no follower was waiting, so followers
// are never trapped behind escaping leaders.
func Drain[T any](src entropy.Source, followers, leaders []T) Admission[T] {
	if len(followers) > 0 {
		return Admission[T]{Followers: pick(src, followers)}
	}
	return Admission[T]{Leaders: pick(src, leaders)}
}

// pick admits up to BatchSize agents by random index draws. Short queues
// are admitted whole.
func pick[T any](src entropy.Source, waiting []T) []T {
	if len(waiting) == 0 {
		return nil
	}
	idx := entropy.Sample(src, len(waiting), BatchSize)
	out := make([]T, 0, len(idx))
	for _, i := range idx {
		out = append(out, waiting[i])
	}
	return out
}
