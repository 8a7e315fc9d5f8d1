package agents

// Adopt makes follower f track leader l. The leader's follower count rises
// by exactly one, and a leader that is not fleeing heads back to an exit.
// Adopting while already following is a no-op.
func Adopt(f, l *Agent) {
	if f.Follower == nil || l.Leader == nil || f.Follower.Leader != nil {
		return
	}
	id := l.ID
	f.Follower.Leader = &id
	f.Follower.Mode = FollowerFollowLeader

	l.Leader.Followers++
	if l.Leader.Mode != LeaderFlee {
		l.Leader.Mode = LeaderSeekExit
	}
}

// Release detaches follower f from its leader. l may be nil when the leader
// is already gone; otherwise its follower count falls by exactly one and a
// leader left with nobody goes looking for more.
func Release(f, l *Agent) {
	if f.Follower == nil || f.Follower.Leader == nil {
		return
	}
	f.Follower.Leader = nil
	if f.Follower.Mode == FollowerFollowLeader {
		f.Follower.Mode = FollowerAvoidHazard
	}

	if l == nil || l.Leader == nil {
		return
	}
	l.Leader.Followers--
	if l.Leader.Followers <= 0 {
		l.Leader.Followers = 0
		if l.Leader.Mode != LeaderFlee {
			l.Leader.Mode = LeaderSeekFollowers
		}
	}
}

// AdoptionProbability is the chance a follower trusts a leader:
// (1 − panicWeight)·charisma + panicWeight·(1 − stress), clamped to [0, 1].
func AdoptionProbability(charisma, stress, panicWeight float64) float64 {
	return clampUnit((1-panicWeight)*charisma + panicWeight*(1-stress))
}
