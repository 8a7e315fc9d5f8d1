package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/evacsim/internal/hazard"
)

// growHazard spreads the field by one round.
func (s *Simulation) growHazard(tick uint64) {
	spawned := s.Hazard.Grow(s.rng)
	if len(spawned) == 0 {
		return
	}
	s.emit(tick, "hazard", fmt.Sprintf("hazard spread to %d new cells (%d total)", len(spawned), s.Hazard.Len()))
	slog.Debug("hazard grew", "tick", tick, "new", len(spawned), "total", s.Hazard.Len())
}

// poison kills every vulnerable agent standing on a marker.
func (s *Simulation) poison(tick uint64) {
	for _, a := range hazard.Poisoned(s.Hazard, s.Leaders) {
		s.kill(a, tick, "hazard")
	}
	for _, a := range hazard.Poisoned(s.Hazard, s.Followers) {
		s.kill(a, tick, "hazard")
	}
}
