package agents

import (
	"math"
	"testing"

	"github.com/talgya/evacsim/internal/world"
)

type staticHazards []world.Cell

func (h staticHazards) HazardsWithin(center world.Cell, radius int) []world.Cell {
	var out []world.Cell
	for _, c := range h {
		if world.Chebyshev(center, c) <= radius {
			out = append(out, c)
		}
	}
	return out
}

func TestMoveTowardsOwnCellIsNoop(t *testing.T) {
	g := world.NewGrid(20, 20)
	m := NewMobile(world.Cell{X: 5, Y: 5})
	before := m
	if MoveTowards(&m, g, world.Cell{X: 5, Y: 5}, nil) {
		t.Fatal("reported a step toward the occupied cell")
	}
	if m != before {
		t.Fatalf("mobile changed: %+v -> %+v", before, m)
	}
}

func TestMoveTowardsStepsOneCell(t *testing.T) {
	g := world.NewGrid(20, 20)
	m := NewMobile(world.Cell{X: 5, Y: 5})
	if !MoveTowards(&m, g, world.Cell{X: 12, Y: 5}, nil) {
		t.Fatal("no step taken")
	}
	if m.Cell != (world.Cell{X: 6, Y: 5}) {
		t.Fatalf("cell = %v, want (6,5)", m.Cell)
	}
	if d := math.Hypot(m.Pos.X-5, m.Pos.Y-5); math.Abs(d-StepDistance) > 1e-9 {
		t.Fatalf("step length = %v", d)
	}
}

func TestHeadingDeflectsAndRecovers(t *testing.T) {
	m := NewMobile(world.Cell{X: 5, Y: 5})
	target := world.Cell{X: 12, Y: 5}

	h, ok := Heading(&m, target, staticHazards{{X: 6, Y: 5}})
	if !ok {
		t.Fatal("no heading")
	}
	if m.GoalSeek {
		t.Fatal("still goal-seeking with a hazard dead ahead")
	}
	if math.Abs(h-DeflectAngle) > 1e-9 {
		t.Fatalf("deflected heading = %v, want %v", h, DeflectAngle)
	}

	h, _ = Heading(&m, target, nil)
	if !m.GoalSeek {
		t.Fatal("did not return to goal-seek once clear")
	}
	if math.Abs(h) > 1e-9 {
		t.Fatalf("heading = %v, want 0", h)
	}
}

func TestDeflectSignByHalfPlane(t *testing.T) {
	cases := []struct {
		bearing, want float64
	}{
		{0, 3 * math.Pi / 4},
		{math.Pi / 2, 5 * math.Pi / 4},
		{math.Pi, 7 * math.Pi / 4},
		{3 * math.Pi / 2, 3 * math.Pi / 4},
		{7 * math.Pi / 4, math.Pi},
	}
	for _, tc := range cases {
		if got := deflect(tc.bearing); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("deflect(%v) = %v, want %v", tc.bearing, got, tc.want)
		}
	}
}

func TestObstructionPicksExtremeForwardMarker(t *testing.T) {
	from := world.Cell{X: 5, Y: 5}
	hazards := []world.Cell{{X: 6, Y: 5}, {X: 6, Y: 4}, {X: 7, Y: 4}, {X: 3, Y: 3}}

	got, ok := Obstruction(from, 0, hazards)
	if !ok {
		t.Fatal("no obstruction found")
	}
	// Heading +X: lowest Y first, then furthest along X. (3,3) is behind.
	if got != (world.Cell{X: 7, Y: 4}) {
		t.Fatalf("obstruction = %v, want (7,4)", got)
	}

	if _, ok := Obstruction(from, 0, []world.Cell{{X: 2, Y: 5}}); ok {
		t.Fatal("marker behind the agent counted as an obstruction")
	}
}

func TestHeadingAlwaysFinite(t *testing.T) {
	g := world.NewGrid(30, 30)
	hazards := staticHazards{{X: 10, Y: 10}, {X: 11, Y: 10}, {X: 10, Y: 11}, {X: 9, Y: 9}}
	for x := 5; x < 15; x++ {
		for y := 5; y < 15; y++ {
			m := NewMobile(world.Cell{X: x, Y: y})
			for _, target := range []world.Cell{{X: 0, Y: 0}, {X: 29, Y: 29}, {X: 10, Y: 10}} {
				h, ok := Heading(&m, target, hazards)
				if ok && (math.IsNaN(h) || math.IsInf(h, 0) || h < 0 || h >= 2*math.Pi) {
					t.Fatalf("from %v to %v: heading %v", m.Cell, target, h)
				}
				if ok {
					Advance(&m, g, h)
				}
			}
		}
	}
}
