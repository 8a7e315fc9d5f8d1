package agents

import (
	"math"
	"sync"
)

// StressWeights blends the three stress inputs. The base level gets
// whatever weight the peer and hazard terms leave over.
type StressWeights struct {
	Peer   float64 `json:"peer"`   // Nearby follower stress
	Hazard float64 `json:"hazard"` // Nearby hazard markers
}

// Base returns the weight of the fixed base level.
func (w StressWeights) Base() float64 {
	return 1 - w.Peer - w.Hazard
}

// DefaultStressWeights are the blend weights used when none are configured.
var DefaultStressWeights = StressWeights{Peer: 0.3, Hazard: 0.3}

// DefaultPanicWeight is how much a follower's own stress, rather than the
// leader's charisma, drives the adoption decision.
const DefaultPanicWeight = 0.6

// PeerStress is one neighbouring follower's contribution.
type PeerStress struct {
	Stress   float64
	Distance float64
}

// StressInputs is everything a follower senses for its stress update.
type StressInputs struct {
	Base            float64
	Peers           []PeerStress
	HazardDistances []float64
}

var (
	worstMu    sync.Mutex
	worstCache = map[int]float64{}
)

// WorstCase is the normaliser for a knowledge radius: the sum of 1/d over
// every cell of the full Chebyshev disc around a centre cell, centre
// excluded. Values are cached per radius.
func WorstCase(radius int) float64 {
	if radius <= 0 {
		return 0
	}
	worstMu.Lock()
	defer worstMu.Unlock()
	if v, ok := worstCache[radius]; ok {
		return v
	}
	total := 0.0
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			total += 1 / math.Hypot(float64(dx), float64(dy))
		}
	}
	worstCache[radius] = total
	return total
}

// PeerSum is Σ stress/distance over neighbours. Zero-distance and
// non-finite contributions are skipped.
func PeerSum(peers []PeerStress) float64 {
	sum := 0.0
	for _, p := range peers {
		if !usableDistance(p.Distance) || !finite(p.Stress) {
			continue
		}
		sum += p.Stress / p.Distance
	}
	return sum
}

// HazardSum is Σ 1/distance over nearby markers, zero distances skipped.
func HazardSum(distances []float64) float64 {
	sum := 0.0
	for _, d := range distances {
		if !usableDistance(d) {
			continue
		}
		sum += 1 / d
	}
	return sum
}

// Stress computes a follower's new stress level in [0, 1].
func Stress(w StressWeights, in StressInputs, worst float64) float64 {
	peer := normalize(PeerSum(in.Peers), worst)
	hazard := normalize(HazardSum(in.HazardDistances), worst)
	base := in.Base
	if !finite(base) {
		base = 0
	}
	return clampUnit(w.Base()*base + w.Peer*peer + w.Hazard*hazard)
}

func normalize(sum, worst float64) float64 {
	if worst <= 0 || !finite(worst) {
		return 0
	}
	v := sum / worst
	if v > 1 {
		return 1
	}
	return v
}

func usableDistance(d float64) bool {
	return d > 0 && finite(d)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
