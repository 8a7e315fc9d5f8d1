package agents

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/talgya/evacsim/internal/exits"
	"github.com/talgya/evacsim/internal/world"
)

// Observation is what a leader believes about one exit and when it was last
// confirmed, either first-hand or through gossip.
type Observation struct {
	Status       exits.Status `json:"status"`
	LastObserved float64      `json:"last_observed"` // Tick of the freshest sighting
}

// KnownExit pairs an exit location with its observation.
type KnownExit struct {
	Cell world.Cell `json:"cell"`
	Observation
}

// Knowledge is a leader's exit map. Entries are keyed by exit location, so
// two reports about the same physical exit always meet in one entry no
// matter which leader produced them.
type Knowledge struct {
	obs map[world.Cell]Observation
}

// NewKnowledge creates an empty store.
func NewKnowledge() *Knowledge {
	return &Knowledge{obs: make(map[world.Cell]Observation)}
}

// Observe records a first-hand sighting. A sighting older than the stored
// one is ignored so timestamps never move backwards. Returns true when the
// stored entry changed.
func (k *Knowledge) Observe(at world.Cell, status exits.Status, tick float64) bool {
	cur, ok := k.obs[at]
	if ok && cur.LastObserved > tick {
		return false
	}
	next := Observation{Status: status, LastObserved: tick}
	if ok && cur == next {
		return false
	}
	k.obs[at] = next
	return true
}

// Merge folds a peer's store into k, last writer wins by timestamp. Unknown
// exits are inserted verbatim; known ones are replaced only by a strictly
// newer observation. Merging is idempotent. Returns the number of entries
// inserted or replaced.
func (k *Knowledge) Merge(peer *Knowledge) int {
	if peer == nil || peer == k {
		return 0
	}
	changed := 0
	for at, theirs := range peer.obs {
		mine, ok := k.obs[at]
		if !ok || theirs.LastObserved > mine.LastObserved {
			k.obs[at] = theirs
			changed++
		}
	}
	return changed
}

// Lookup returns the observation for the exit at cell.
func (k *Knowledge) Lookup(at world.Cell) (Observation, bool) {
	o, ok := k.obs[at]
	return o, ok
}

// Len returns the number of known exits.
func (k *Knowledge) Len() int {
	return len(k.obs)
}

// Unblocked counts known exits not believed blocked.
func (k *Knowledge) Unblocked() int {
	n := 0
	for _, o := range k.obs {
		if o.Status != exits.StatusBlocked {
			n++
		}
	}
	return n
}

// Nearest returns the closest known exit with the given status by Euclidean
// distance from from. Equal distances resolve to the lowest (x, y).
func (k *Knowledge) Nearest(from world.Cell, status exits.Status) (world.Cell, float64, bool) {
	best := math.Inf(1)
	var bestCell world.Cell
	found := false
	for at, o := range k.obs {
		if o.Status != status {
			continue
		}
		d := world.Distance(from, at)
		if d < best || (d == best && cellLess(at, bestCell)) {
			best, bestCell, found = d, at, true
		}
	}
	return bestCell, best, found
}

// AnyWithin reports whether any known exit lies within Chebyshev radius r.
func (k *Knowledge) AnyWithin(from world.Cell, r int) bool {
	for at := range k.obs {
		if world.Chebyshev(from, at) <= r {
			return true
		}
	}
	return false
}

// Entries returns the store sorted by location.
func (k *Knowledge) Entries() []KnownExit {
	out := make([]KnownExit, 0, len(k.obs))
	for at, o := range k.obs {
		out = append(out, KnownExit{Cell: at, Observation: o})
	}
	sort.Slice(out, func(i, j int) bool { return cellLess(out[i].Cell, out[j].Cell) })
	return out
}

// MarshalJSON renders the store as a sorted list.
func (k *Knowledge) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Entries())
}

func cellLess(a, b world.Cell) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
