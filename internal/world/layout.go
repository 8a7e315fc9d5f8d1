// Scenario layout using layered simplex noise.
// Noise decides where the hazard ignites and jitters exit placement along the
// perimeter, so a seed reproduces the same building every run.
package world

import (
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// LayoutConfig holds scenario placement parameters.
type LayoutConfig struct {
	Seed        int64 // Random seed (0 = random)
	HazardSeeds int   // Initial hazard markers
	Exits       int   // Exit gates on the perimeter
	Leaders     int
	Followers   int
	Margin      int // Interior cells kept clear of the walls for hazard seeds
	SafeRadius  int // Spawn exclusion radius around hazard seeds
}

// DefaultLayoutConfig mirrors the default run configuration.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		HazardSeeds: 1,
		Exits:       4,
		Leaders:     5,
		Followers:   60,
		Margin:      5,
		SafeRadius:  3,
	}
}

// Layout is the initial placement of every entity.
type Layout struct {
	Hazards   []Cell
	Exits     []Cell
	Leaders   []Cell
	Followers []Cell
}

// GenerateLayout places hazard seeds, exits, and agents on g.
func GenerateLayout(g Grid, cfg LayoutConfig) Layout {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	hazardNoise := opensimplex.NewNormalized(seed)
	exitNoise := opensimplex.NewNormalized(seed + 1)
	rng := rand.New(rand.NewSource(seed + 2))

	var l Layout
	l.Hazards = placeHazardSeeds(g, hazardNoise, cfg.HazardSeeds, cfg.Margin)
	l.Exits = placeExits(g, exitNoise, cfg.Exits)

	blocked := make(map[Cell]bool)
	for _, h := range l.Hazards {
		for _, c := range g.Neighborhood(h, cfg.SafeRadius, cfg.SafeRadius) {
			blocked[c] = true
		}
	}
	for _, e := range l.Exits {
		blocked[e] = true
	}

	l.Leaders = spawnCells(g, rng, cfg.Leaders, blocked)
	l.Followers = spawnCells(g, rng, cfg.Followers, blocked)
	return l
}

// placeHazardSeeds picks the n interior cells with the highest noise value.
func placeHazardSeeds(g Grid, noise opensimplex.Noise, n, margin int) []Cell {
	if n <= 0 {
		return nil
	}
	type scored struct {
		cell  Cell
		value float64
	}
	var candidates []scored
	for x := margin; x < g.Width-margin; x++ {
		for y := margin; y < g.Height-margin; y++ {
			v := octaveNoise(noise, float64(x), float64(y), 3, 0.05, 0.5)
			candidates = append(candidates, scored{Cell{X: x, Y: y}, v})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].value != candidates[j].value {
			return candidates[i].value > candidates[j].value
		}
		if candidates[i].cell.X != candidates[j].cell.X {
			return candidates[i].cell.X < candidates[j].cell.X
		}
		return candidates[i].cell.Y < candidates[j].cell.Y
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	seeds := make([]Cell, 0, n)
	for _, c := range candidates[:n] {
		seeds = append(seeds, c.cell)
	}
	return seeds
}

// placeExits spaces n exits evenly around the perimeter, each jittered by up
// to a quarter of the spacing.
func placeExits(g Grid, noise opensimplex.Noise, n int) []Cell {
	perimeter := PerimeterLength(g)
	if n <= 0 || perimeter <= 0 {
		return nil
	}
	if n > perimeter {
		n = perimeter
	}
	spacing := float64(perimeter) / float64(n)
	seen := make(map[Cell]bool, n)
	exits := make([]Cell, 0, n)
	for i := 0; i < n; i++ {
		jitter := (noise.Eval2(float64(i)*1.7, 0.3) - 0.5) * spacing * 0.5
		pos := int(float64(i)*spacing+spacing/2+jitter) % perimeter
		if pos < 0 {
			pos += perimeter
		}
		c := PerimeterCell(g, pos)
		for seen[c] {
			pos = (pos + 1) % perimeter
			c = PerimeterCell(g, pos)
		}
		seen[c] = true
		exits = append(exits, c)
	}
	return exits
}

// PerimeterLength returns the number of wall cells on g.
func PerimeterLength(g Grid) int {
	if g.Width <= 0 || g.Height <= 0 {
		return 0
	}
	if g.Width == 1 || g.Height == 1 {
		return g.Width * g.Height
	}
	return 2*(g.Width+g.Height) - 4
}

// PerimeterCell maps a position along the wall (clockwise from the origin)
// to its cell.
func PerimeterCell(g Grid, pos int) Cell {
	w, h := g.Width, g.Height
	switch {
	case pos < w:
		return Cell{X: pos, Y: 0}
	case pos < w+h-1:
		return Cell{X: w - 1, Y: pos - w + 1}
	case pos < 2*w+h-2:
		return Cell{X: w - 1 - (pos - (w + h - 1)) - 1, Y: h - 1}
	default:
		return Cell{X: 0, Y: h - 1 - (pos - (2*w + h - 2)) - 1}
	}
}

// spawnCells draws n random interior cells avoiding blocked ones. When random
// draws keep landing on blocked cells, the interior is scanned from a random
// start for a free cell; only a grid with no free interior cell left gets a
// blocked one.
func spawnCells(g Grid, rng *rand.Rand, n int, blocked map[Cell]bool) []Cell {
	x0, y0, w, h := 1, 1, g.Width-2, g.Height-2
	if w <= 0 || h <= 0 {
		x0, y0, w, h = 0, 0, g.Width, g.Height
	}
	cells := make([]Cell, 0, n)
	for i := 0; i < n; i++ {
		c, ok := Cell{}, false
		for attempt := 0; attempt < 64 && !ok; attempt++ {
			c = Cell{X: x0 + rng.Intn(w), Y: y0 + rng.Intn(h)}
			ok = !blocked[c]
		}
		if !ok {
			start := rng.Intn(w * h)
			for k := 0; k < w*h; k++ {
				idx := (start + k) % (w * h)
				if cand := (Cell{X: x0 + idx%w, Y: y0 + idx/w}); !blocked[cand] {
					c = cand
					break
				}
			}
		}
		cells = append(cells, c)
	}
	return cells
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
