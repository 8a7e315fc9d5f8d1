package engine

import (
	"log/slog"
	"sort"

	"github.com/talgya/evacsim/internal/agents"
	"github.com/talgya/evacsim/internal/entropy"
	"github.com/talgya/evacsim/internal/exits"
	"github.com/talgya/evacsim/internal/world"
)

// Scenario is everything needed to build a run from a seed.
type Scenario struct {
	Params           Params
	Seed             int64 // 0 draws a random seed
	Layout           world.LayoutConfig
	Charisma         agents.Trait
	Stress           agents.Trait
	LeaderKnownExits int // Nearest exits each leader knows at spawn
}

// DefaultScenario returns a scenario on a w×h grid with stock populations.
func DefaultScenario(w, h int) Scenario {
	return Scenario{
		Params:           DefaultParams(w, h),
		Layout:           world.DefaultLayoutConfig(),
		Charisma:         agents.Trait{Mean: 0.5, Std: 0.2, Dist: agents.DistGaussian},
		Stress:           agents.Trait{Mean: 0.4, Std: 0.2, Dist: agents.DistGaussian},
		LeaderKnownExits: 2,
	}
}

// Generate lays out the building and spawns both populations. It returns the
// simulation and the seed actually used.
func Generate(sc Scenario) (*Simulation, int64) {
	src, seed := entropy.New(sc.Seed)
	lc := sc.Layout
	lc.Seed = seed
	layout := world.GenerateLayout(sc.Params.Grid, lc)

	ex := make([]*exits.Exit, 0, len(layout.Exits))
	for i, c := range layout.Exits {
		ex = append(ex, &exits.Exit{
			ID:                    exits.ExitID(i + 1),
			Cell:                  c,
			Radius:                sc.Params.ExitRadius,
			OvercrowdingThreshold: sc.Params.OvercrowdingThreshold,
			BlockedThreshold:      sc.Params.BlockedThreshold,
		})
	}

	spawner := agents.NewSpawner(src, sc.Charisma, sc.Stress)
	leaders := spawner.SpawnLeaders(layout.Leaders)
	followers := spawner.SpawnFollowers(layout.Followers)
	for _, l := range leaders {
		seedKnowledge(l, ex, sc.LeaderKnownExits)
	}

	sim := NewSimulation(sc.Params, src, layout.Hazards, ex, append(leaders, followers...))
	slog.Info("scenario generated",
		"seed", seed,
		"grid", sc.Params.Grid,
		"exits", len(ex),
		"hazard_seeds", len(layout.Hazards),
		"leaders", len(leaders),
		"followers", len(followers),
	)
	return sim, seed
}

// seedKnowledge gives a leader its n nearest exits as available, observed at
// tick 0.
func seedKnowledge(l *agents.Agent, ex []*exits.Exit, n int) {
	if n <= 0 {
		return
	}
	sorted := make([]*exits.Exit, len(ex))
	copy(sorted, ex)
	sort.SliceStable(sorted, func(i, j int) bool {
		return world.Distance(l.Cell, sorted[i].Cell) < world.Distance(l.Cell, sorted[j].Cell)
	})
	for i := 0; i < n && i < len(sorted); i++ {
		l.Leader.Knowledge.Observe(sorted[i].Cell, exits.StatusAvailable, 0)
	}
}
