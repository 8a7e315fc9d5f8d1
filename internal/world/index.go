package world

import "fmt"

// Kind distinguishes the entity populations sharing the grid.
type Kind uint8

const (
	KindLeader   Kind = iota // Guide agents
	KindFollower             // Unguided agents
	KindExit                 // Exit gates
	KindCasualty             // Inert markers left where agents died
)

// KindName returns a human-readable label for an entity kind.
func KindName(k Kind) string {
	switch k {
	case KindLeader:
		return "leader"
	case KindFollower:
		return "follower"
	case KindExit:
		return "exit"
	case KindCasualty:
		return "casualty"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// EntityID identifies an entity within its kind.
type EntityID uint64

// Entry is one occupant of a cell.
type Entry struct {
	Kind Kind     `json:"kind"`
	ID   EntityID `json:"id"`
	Cell Cell     `json:"cell"`
}

type entityKey struct {
	kind Kind
	id   EntityID
}

// Index maps cells to the entities occupying them. Only occupied cells are
// stored, so memory tracks the population rather than the grid size.
type Index struct {
	cells map[Cell][]Entry
	where map[entityKey]Cell
}

// NewIndex creates an empty spatial index.
func NewIndex() *Index {
	return &Index{
		cells: make(map[Cell][]Entry),
		where: make(map[entityKey]Cell),
	}
}

// Place adds an entity at cell. Placing an entity already indexed moves it.
func (ix *Index) Place(kind Kind, id EntityID, cell Cell) {
	key := entityKey{kind, id}
	if _, ok := ix.where[key]; ok {
		ix.Move(kind, id, cell)
		return
	}
	ix.where[key] = cell
	ix.cells[cell] = append(ix.cells[cell], Entry{Kind: kind, ID: id, Cell: cell})
}

// Move relocates an indexed entity. Unknown entities are ignored.
func (ix *Index) Move(kind Kind, id EntityID, to Cell) {
	key := entityKey{kind, id}
	from, ok := ix.where[key]
	if !ok || from == to {
		return
	}
	ix.detach(key, from)
	ix.where[key] = to
	ix.cells[to] = append(ix.cells[to], Entry{Kind: kind, ID: id, Cell: to})
}

// Remove drops an entity from the index.
func (ix *Index) Remove(kind Kind, id EntityID) {
	key := entityKey{kind, id}
	from, ok := ix.where[key]
	if !ok {
		return
	}
	ix.detach(key, from)
	delete(ix.where, key)
}

func (ix *Index) detach(key entityKey, from Cell) {
	entries := ix.cells[from]
	for i, e := range entries {
		if e.Kind == key.kind && e.ID == key.id {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(ix.cells, from)
	} else {
		ix.cells[from] = entries
	}
}

// Locate returns the cell an entity occupies.
func (ix *Index) Locate(kind Kind, id EntityID) (Cell, bool) {
	c, ok := ix.where[entityKey{kind, id}]
	return c, ok
}

// At returns the IDs of entities of kind occupying cell.
func (ix *Index) At(cell Cell, kind Kind) []EntityID {
	var ids []EntityID
	for _, e := range ix.cells[cell] {
		if e.Kind == kind {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Within returns every entity of kind inside the Chebyshev box of extents
// (rx, ry) around center, center included. Order is row-major by cell.
func (ix *Index) Within(center Cell, kind Kind, rx, ry int) []Entry {
	var out []Entry
	for x := center.X - rx; x <= center.X+rx; x++ {
		for y := center.Y - ry; y <= center.Y+ry; y++ {
			for _, e := range ix.cells[Cell{X: x, Y: y}] {
				if e.Kind == kind {
					out = append(out, e)
				}
			}
		}
	}
	return out
}

// CountWithin returns how many entities of kind lie within the box.
func (ix *Index) CountWithin(center Cell, kind Kind, rx, ry int) int {
	n := 0
	for x := center.X - rx; x <= center.X+rx; x++ {
		for y := center.Y - ry; y <= center.Y+ry; y++ {
			for _, e := range ix.cells[Cell{X: x, Y: y}] {
				if e.Kind == kind {
					n++
				}
			}
		}
	}
	return n
}

// Len returns the number of indexed entities of kind.
func (ix *Index) Len(kind Kind) int {
	n := 0
	for key := range ix.where {
		if key.kind == kind {
			n++
		}
	}
	return n
}
