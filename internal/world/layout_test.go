package world

import (
	"math/rand"
	"testing"
)

func TestGenerateLayoutIsDeterministic(t *testing.T) {
	g := NewGrid(60, 40)
	cfg := DefaultLayoutConfig()
	cfg.Seed = 7

	a := GenerateLayout(g, cfg)
	b := GenerateLayout(g, cfg)

	if len(a.Exits) != cfg.Exits || len(a.Hazards) != cfg.HazardSeeds {
		t.Fatalf("got %d exits, %d hazards", len(a.Exits), len(a.Hazards))
	}
	if len(a.Followers) != cfg.Followers || len(a.Leaders) != cfg.Leaders {
		t.Fatalf("got %d followers, %d leaders", len(a.Followers), len(a.Leaders))
	}
	for i := range a.Exits {
		if a.Exits[i] != b.Exits[i] {
			t.Fatalf("exit %d differs across identical seeds: %v vs %v", i, a.Exits[i], b.Exits[i])
		}
	}
	for i := range a.Followers {
		if a.Followers[i] != b.Followers[i] {
			t.Fatalf("follower %d differs across identical seeds", i)
		}
	}
}

func TestExitsLieOnPerimeter(t *testing.T) {
	g := NewGrid(30, 20)
	cfg := DefaultLayoutConfig()
	cfg.Seed = 3
	cfg.Exits = 6
	l := GenerateLayout(g, cfg)

	seen := make(map[Cell]bool)
	for _, e := range l.Exits {
		onWall := e.X == 0 || e.Y == 0 || e.X == g.Width-1 || e.Y == g.Height-1
		if !onWall || !g.InBounds(e) {
			t.Errorf("exit %v is not a wall cell", e)
		}
		if seen[e] {
			t.Errorf("duplicate exit %v", e)
		}
		seen[e] = true
	}
}

func TestPerimeterCellCoversWallOnce(t *testing.T) {
	g := NewGrid(4, 3)
	n := PerimeterLength(g)
	seen := make(map[Cell]bool)
	for i := 0; i < n; i++ {
		c := PerimeterCell(g, i)
		if seen[c] {
			t.Fatalf("perimeter position %d revisits %v", i, c)
		}
		seen[c] = true
	}
	if len(seen) != 10 {
		t.Fatalf("covered %d wall cells, want 10", len(seen))
	}
}

func TestSpawnsAvoidHazardSeeds(t *testing.T) {
	g := NewGrid(50, 50)
	cfg := DefaultLayoutConfig()
	cfg.Seed = 11
	l := GenerateLayout(g, cfg)
	for _, f := range l.Followers {
		for _, h := range l.Hazards {
			if Chebyshev(f, h) <= cfg.SafeRadius {
				t.Errorf("follower spawned at %v within %d of hazard %v", f, cfg.SafeRadius, h)
			}
		}
	}
}

func TestSpawnCellsFindLastFreeInteriorCell(t *testing.T) {
	g := NewGrid(12, 10)
	free := Cell{X: 7, Y: 3}
	blocked := make(map[Cell]bool)
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			onWall := x == 0 || y == 0 || x == g.Width-1 || y == g.Height-1
			if c := (Cell{X: x, Y: y}); c != free && !onWall {
				blocked[c] = true
			}
		}
	}

	rng := rand.New(rand.NewSource(5))
	for _, c := range spawnCells(g, rng, 20, blocked) {
		if c != free {
			t.Fatalf("spawned at %v, want the only free interior cell %v", c, free)
		}
	}
}

func TestSpawnsStayOffTheWalls(t *testing.T) {
	g := NewGrid(20, 15)
	cfg := DefaultLayoutConfig()
	cfg.Seed = 9
	cfg.Followers = 200
	l := GenerateLayout(g, cfg)
	for _, c := range append(l.Leaders, l.Followers...) {
		if c.X <= 0 || c.Y <= 0 || c.X >= g.Width-1 || c.Y >= g.Height-1 {
			t.Fatalf("agent spawned on wall cell %v", c)
		}
	}
}
