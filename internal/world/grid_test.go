package world

import (
	"math"
	"testing"
)

func TestPointCellFloors(t *testing.T) {
	cases := []struct {
		p    Point
		want Cell
	}{
		{Point{0, 0}, Cell{0, 0}},
		{Point{3.99, 2.01}, Cell{3, 2}},
		{Point{-0.5, 1}, Cell{-1, 1}},
	}
	for _, tc := range cases {
		if got := tc.p.Cell(); got != tc.want {
			t.Errorf("Cell(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestStepClampsToGrid(t *testing.T) {
	g := NewGrid(10, 10)
	p := g.Step(Point{X: 9.5, Y: 5}, 1, 0)
	if p.Cell().X != 9 {
		t.Fatalf("expected sticky border at x=9, got %v", p)
	}
	p = g.Step(Point{X: 0.2, Y: 0.2}, 1, math.Pi)
	if p.X != 0 {
		t.Fatalf("expected x clamped to 0, got %v", p.X)
	}
}

func TestNeighborhoodClipsToBounds(t *testing.T) {
	g := NewGrid(5, 5)
	if n := len(g.Neighborhood(Cell{2, 2}, 1, 1)); n != 9 {
		t.Errorf("interior 1-ring: got %d cells, want 9", n)
	}
	if n := len(g.Neighborhood(Cell{0, 0}, 1, 1)); n != 4 {
		t.Errorf("corner 1-ring: got %d cells, want 4", n)
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * math.Pi, math.Pi},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tc := range cases {
		got := NormalizeAngle(tc.in)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDistances(t *testing.T) {
	a, b := Cell{0, 0}, Cell{3, 4}
	if d := Distance(a, b); d != 5 {
		t.Errorf("Distance = %v, want 5", d)
	}
	if d := Chebyshev(a, b); d != 4 {
		t.Errorf("Chebyshev = %d, want 4", d)
	}
}
