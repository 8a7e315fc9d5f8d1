package engine

import "github.com/talgya/evacsim/internal/agents"

// TickStats is the per-tick summary of a run.
type TickStats struct {
	Tick               uint64  `json:"tick"`
	LeadersAlive       int     `json:"leaders_alive"`
	FollowersAlive     int     `json:"followers_alive"`
	LeadersEvacuated   int     `json:"leaders_evacuated"`
	FollowersEvacuated int     `json:"followers_evacuated"`
	Casualties         int     `json:"casualties"`
	HazardMarkers      int     `json:"hazard_markers"`
	MeanStress         float64 `json:"mean_stress"`
	Following          int     `json:"following"` // Followers attached to a leader
	Waiting            int     `json:"waiting"`   // Followers at an exit awaiting admission
	Fleeing            int     `json:"fleeing"`   // Leaders in flee mode
	Terminated         bool    `json:"terminated"`
}

// Living returns the number of agents still in the building.
func (t TickStats) Living() int {
	return t.LeadersAlive + t.FollowersAlive
}

func (s *Simulation) collectStats(tick uint64) TickStats {
	st := TickStats{Tick: tick, HazardMarkers: s.Hazard.Len(), Terminated: s.terminated}
	for _, l := range s.Leaders {
		switch l.Fate {
		case agents.FateActive:
			st.LeadersAlive++
			if l.Leader.Mode == agents.LeaderFlee {
				st.Fleeing++
			}
		case agents.FateDead:
			st.Casualties++
		case agents.FateEvacuated:
			st.LeadersEvacuated++
		}
	}
	stressSum := 0.0
	for _, f := range s.Followers {
		switch f.Fate {
		case agents.FateActive:
			st.FollowersAlive++
			stressSum += f.Follower.Stress
			if f.Follower.Leader != nil {
				st.Following++
			}
			if f.Follower.Exited {
				st.Waiting++
			}
		case agents.FateDead:
			st.Casualties++
		case agents.FateEvacuated:
			st.FollowersEvacuated++
		}
	}
	if st.FollowersAlive > 0 {
		st.MeanStress = stressSum / float64(st.FollowersAlive)
	}
	return st
}

// Stats returns the statistics of the last completed tick.
func (s *Simulation) Stats() TickStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Subscribe registers for per-tick statistics. Frames are dropped for a
// subscriber whose buffer is full. The returned func unsubscribes.
func (s *Simulation) Subscribe(buffer int) (<-chan TickStats, func()) {
	ch := make(chan TickStats, buffer)
	s.mu.Lock()
	s.subSeq++
	id := s.subSeq
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Simulation) publish(st TickStats) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
		}
	}
}
