// Package hazard models the spreading hazard: point markers that grow into
// neighbouring cells on a fixed cadence and kill any agent sharing their cell.
// The field only ever grows; markers are never removed.
package hazard

import (
	"github.com/talgya/evacsim/internal/entropy"
	"github.com/talgya/evacsim/internal/world"
)

// Field is the set of hazard markers on a grid.
type Field struct {
	grid      world.Grid
	cells     map[world.Cell]struct{}
	order     []world.Cell // Placement order, for deterministic iteration
	saturated map[world.Cell]struct{}
}

// NewField creates a field seeded with the given markers. Out-of-bounds and
// duplicate seeds are ignored.
func NewField(g world.Grid, seeds []world.Cell) *Field {
	f := &Field{
		grid:      g,
		cells:     make(map[world.Cell]struct{}),
		saturated: make(map[world.Cell]struct{}),
	}
	for _, c := range seeds {
		f.Place(c)
	}
	return f
}

// Place adds a marker at c. Returns false if c is out of bounds or occupied.
func (f *Field) Place(c world.Cell) bool {
	if !f.grid.InBounds(c) || f.Has(c) {
		return false
	}
	f.cells[c] = struct{}{}
	f.order = append(f.order, c)
	return true
}

// Has reports whether c holds a marker.
func (f *Field) Has(c world.Cell) bool {
	_, ok := f.cells[c]
	return ok
}

// Len returns the marker count.
func (f *Field) Len() int {
	return len(f.order)
}

// Markers returns a copy of all markers in placement order.
func (f *Field) Markers() []world.Cell {
	out := make([]world.Cell, len(f.order))
	copy(out, f.order)
	return out
}

// Within returns the markers inside the Chebyshev box of radius r around
// center, center included.
func (f *Field) Within(center world.Cell, r int) []world.Cell {
	var out []world.Cell
	for x := center.X - r; x <= center.X+r; x++ {
		for y := center.Y - r; y <= center.Y+r; y++ {
			c := world.Cell{X: x, Y: y}
			if f.Has(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// CountWithin returns the number of markers inside the box.
func (f *Field) CountWithin(center world.Cell, r int) int {
	n := 0
	for x := center.X - r; x <= center.X+r; x++ {
		for y := center.Y - r; y <= center.Y+r; y++ {
			if f.Has(world.Cell{X: x, Y: y}) {
				n++
			}
		}
	}
	return n
}

// Grow lets every marker present at the start of the round spawn one new
// marker into a free 1-ring cell. Among free cells the one with the fewest
// neighbouring markers wins; ties are broken by a random index draw.
// Returns the newly placed markers.
func (f *Field) Grow(src entropy.Source) []world.Cell {
	round := f.Markers()
	var spawned []world.Cell
	for _, m := range round {
		if _, done := f.saturated[m]; done {
			continue
		}
		candidates := f.freeNeighbors(m)
		if len(candidates) == 0 {
			f.saturated[m] = struct{}{}
			continue
		}
		best := f.leastCrowded(candidates)
		c := best[entropy.Pick(src, len(best))]
		f.Place(c)
		spawned = append(spawned, c)
	}
	return spawned
}

func (f *Field) freeNeighbors(m world.Cell) []world.Cell {
	var free []world.Cell
	for _, c := range f.grid.Neighborhood(m, 1, 1) {
		if !f.Has(c) {
			free = append(free, c)
		}
	}
	return free
}

func (f *Field) leastCrowded(candidates []world.Cell) []world.Cell {
	minCount := -1
	var best []world.Cell
	for _, c := range candidates {
		n := f.CountWithin(c, 1)
		switch {
		case minCount < 0 || n < minCount:
			minCount = n
			best = append(best[:0], c)
		case n == minCount:
			best = append(best, c)
		}
	}
	return best
}

// Occupant is anything the hazard can poison.
type Occupant interface {
	Location() world.Cell
	Vulnerable() bool
}

// Poisoned returns the vulnerable occupants standing on a marker cell.
func Poisoned[T Occupant](f *Field, occupants []T) []T {
	var hit []T
	for _, o := range occupants {
		if o.Vulnerable() && f.Has(o.Location()) {
			hit = append(hit, o)
		}
	}
	return hit
}
