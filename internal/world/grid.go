// Package world provides the evacuation grid, continuous positions, and the
// spatial index used for neighbourhood queries.
// Cells are integer (x, y) pairs; positions are continuous and snap to the
// cell containing them. Borders are sticky: movement never leaves the grid.
package world

import (
	"fmt"
	"math"
)

// Cell is a discrete grid location.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Point is a continuous position in grid space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cell returns the grid cell containing p.
func (p Point) Cell() Cell {
	return Cell{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// Center returns the continuous position of the cell's lower-left corner,
// which is where agents placed on a cell start.
func (c Cell) Center() Point {
	return Point{X: float64(c.X), Y: float64(c.Y)}
}

// Add returns c offset by (dx, dy).
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Grid is the bounded simulation area.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewGrid creates a grid of the given dimensions.
func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height}
}

// InBounds reports whether c lies inside the grid.
func (g Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

// Center returns the grid's central cell.
func (g Grid) Center() Cell {
	return Cell{X: g.Width / 2, Y: g.Height / 2}
}

// Clamp pins p inside the grid (sticky borders).
func (g Grid) Clamp(p Point) Point {
	maxX := math.Nextafter(float64(g.Width), 0)
	maxY := math.Nextafter(float64(g.Height), 0)
	return Point{X: clamp(p.X, 0, maxX), Y: clamp(p.Y, 0, maxY)}
}

// Step moves p by dist along angle (radians, counter-clockwise from +X) and
// clamps the result to the grid.
func (g Grid) Step(p Point, dist, angle float64) Point {
	return g.Clamp(Point{
		X: p.X + dist*math.Cos(angle),
		Y: p.Y + dist*math.Sin(angle),
	})
}

// Neighborhood returns every in-bounds cell within Chebyshev extents
// (rx, ry) of center, including center itself.
func (g Grid) Neighborhood(center Cell, rx, ry int) []Cell {
	cells := make([]Cell, 0, (2*rx+1)*(2*ry+1))
	for x := center.X - rx; x <= center.X+rx; x++ {
		for y := center.Y - ry; y <= center.Y+ry; y++ {
			c := Cell{X: x, Y: y}
			if g.InBounds(c) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// Distance returns the Euclidean distance between two cells.
func Distance(a, b Cell) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Chebyshev returns the Chebyshev (king-move) distance between two cells.
func Chebyshev(a, b Cell) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Angle returns the bearing from one point to another, normalised to
// [0, 2π). Coincident points yield 0.
func Angle(from, to Point) float64 {
	return NormalizeAngle(math.Atan2(to.Y-from.Y, to.X-from.X))
}

// NormalizeAngle maps any finite angle into [0, 2π). Non-finite input maps
// to 0 so callers always receive a usable heading.
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
