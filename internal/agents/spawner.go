// Agent spawning: the initial leader and follower populations, with charisma
// and stress sampled from the configured distributions.
package agents

import (
	"strings"

	"github.com/talgya/evacsim/internal/entropy"
	"github.com/talgya/evacsim/internal/world"
)

// Distribution names how a trait is sampled.
type Distribution string

const (
	DistConstant Distribution = "CONSTANT" // Always the mean
	DistUniform  Distribution = "UNIFORM"  // Uniform on [0, 1), mean and std ignored
	DistGaussian Distribution = "GAUSSIAN" // Normal(mean, std)
)

// ParseDistribution maps a name to a distribution, case-insensitively.
// Unknown names fall back to Gaussian.
func ParseDistribution(s string) Distribution {
	switch Distribution(strings.ToUpper(strings.TrimSpace(s))) {
	case DistConstant:
		return DistConstant
	case DistUniform:
		return DistUniform
	default:
		return DistGaussian
	}
}

// Trait describes a sampled per-agent attribute.
type Trait struct {
	Mean float64      `json:"mean" yaml:"mean"`
	Std  float64      `json:"std" yaml:"std"`
	Dist Distribution `json:"dist" yaml:"dist"`
}

// Sample draws one value clamped to [0, 1].
func (t Trait) Sample(src entropy.Source) float64 {
	switch ParseDistribution(string(t.Dist)) {
	case DistConstant:
		return clampUnit(t.Mean)
	case DistUniform:
		return clampUnit(src.Float64())
	default:
		return clampUnit(t.Std*src.NormFloat64() + t.Mean)
	}
}

// Spawner creates agents for the simulation.
type Spawner struct {
	rng      entropy.Source
	nextID   AgentID
	Charisma Trait
	Stress   Trait
}

// NewSpawner creates an agent spawner drawing from src.
func NewSpawner(src entropy.Source, charisma, stress Trait) *Spawner {
	return &Spawner{
		rng:      src,
		nextID:   1,
		Charisma: charisma,
		Stress:   stress,
	}
}

// SpawnLeaders creates one leader per cell.
func (s *Spawner) SpawnLeaders(cells []world.Cell) []*Agent {
	out := make([]*Agent, 0, len(cells))
	for _, c := range cells {
		out = append(out, NewLeader(s.issueID(), c, s.Charisma.Sample(s.rng)))
	}
	return out
}

// SpawnFollowers creates one follower per cell.
func (s *Spawner) SpawnFollowers(cells []world.Cell) []*Agent {
	out := make([]*Agent, 0, len(cells))
	for _, c := range cells {
		out = append(out, NewFollower(s.issueID(), c, s.Stress.Sample(s.rng)))
	}
	return out
}

func (s *Spawner) issueID() AgentID {
	id := s.nextID
	s.nextID++
	return id
}
