package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/evacsim/internal/api"
	"github.com/talgya/evacsim/internal/config"
	"github.com/talgya/evacsim/internal/engine"
	"github.com/talgya/evacsim/internal/logging"
	"github.com/talgya/evacsim/internal/persistence"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one evacuation until nobody is left inside",
		Long: `Generate a building from the configured seed and run it to completion.

Configuration comes from the defaults, then --config, then EVACSIM_*
environment variables, then flags. SIGINT or SIGTERM stops the run after the
current tick and saves what has happened so far.

Examples:
  evacsim run
  evacsim run --seed 42 --max-ticks 2000
  evacsim run --config scenario.yaml --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}
			slog.SetDefault(logging.NewLogger(cfg.Log.Level, cmd.ErrOrStderr()))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			final, err := runSimulation(ctx, cfg)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(final)
			}
			printSummary(cmd, final)
			return nil
		},
	}

	cmd.Flags().String("config", "", "YAML configuration file")
	cmd.Flags().Int64("seed", 0, "Random seed (0 = random)")
	cmd.Flags().String("db", "", "SQLite file for run history (empty string disables)")
	cmd.Flags().String("addr", "", "Serve the status API on this address, e.g. :8080")
	cmd.Flags().Uint64("max-ticks", 0, "Stop after this many ticks (0 = until finished)")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	return cmd
}

// loadRunConfig layers flags the user set over the loaded configuration.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("db") {
		cfg.DB.Path, _ = flags.GetString("db")
	}
	if flags.Changed("addr") {
		cfg.API.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("max-ticks") {
		cfg.MaxTicks, _ = flags.GetUint64("max-ticks")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runResult is what a finished run reports.
type runResult struct {
	RunID string           `json:"run_id"`
	Seed  int64            `json:"seed"`
	Stats engine.TickStats `json:"stats"`
	Saved bool             `json:"saved"`
}

func runSimulation(ctx context.Context, cfg *config.Config) (runResult, error) {
	sim, seed := engine.Generate(cfg.Scenario())
	cfg.Seed = seed

	eng := engine.NewEngine()
	eng.Interval = cfg.TickInterval
	eng.MaxTicks = cfg.MaxTicks
	sim.Attach(eng)

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return runResult{}, fmt.Errorf("encode config: %w", err)
	}
	run := persistence.NewRun(seed, cfg.Width, cfg.Height, len(sim.Leaders), len(sim.Followers), string(configJSON))
	result := runResult{RunID: run.ID, Seed: seed}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	var rec *persistence.Recorder
	if cfg.DB.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0755); err != nil {
			return result, fmt.Errorf("create data directory: %w", err)
		}
		db, err = persistence.Open(cfg.DB.Path)
		if err != nil {
			return result, err
		}
		defer db.Close()
		if err := db.SaveRun(run); err != nil {
			return result, err
		}
		rec = persistence.NewRecorder(db, run.ID, cfg.DB.SaveInterval)
		slog.Info("database opened", "path", cfg.DB.Path, "run", run.ID)
	}

	tick := eng.OnTick
	eng.OnTick = func(t uint64) {
		tick(t)
		if rec != nil {
			if err := rec.Record(sim); err != nil {
				slog.Error("history save failed", "tick", t, "error", err)
			}
		}
		if cfg.ReportInterval > 0 && t%cfg.ReportInterval == 0 {
			reportProgress(sim.Stats())
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Addr != "" {
		srv := &api.Server{
			Sim:      sim,
			Eng:      eng,
			DB:       db,
			RunID:    run.ID,
			Addr:     cfg.API.Addr,
			AdminKey: cfg.API.AdminKey,
		}
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("HTTP shutdown", "error", err)
			}
		}()
	}

	eng.Run(ctx)

	result.Stats = sim.Stats()
	slog.Info("run complete",
		"run", run.ID,
		"seed", seed,
		"tick", result.Stats.Tick,
		"evacuated", result.Stats.LeadersEvacuated+result.Stats.FollowersEvacuated,
		"casualties", result.Stats.Casualties,
		"terminated", result.Stats.Terminated,
	)

	if rec != nil {
		slog.Info("final save...")
		if err := rec.Finish(sim); err != nil {
			return result, fmt.Errorf("final save: %w", err)
		}
		result.Saved = true
	}
	return result, nil
}

func reportProgress(st engine.TickStats) {
	slog.Info("progress",
		"tick", humanize.Comma(int64(st.Tick)),
		"inside", st.Living(),
		"evacuated", st.LeadersEvacuated+st.FollowersEvacuated,
		"casualties", st.Casualties,
		"hazard", humanize.Comma(int64(st.HazardMarkers)),
		"following", st.Following,
		"mean_stress", fmt.Sprintf("%.3f", st.MeanStress),
	)
}

func printSummary(cmd *cobra.Command, r runResult) {
	out := cmd.OutOrStdout()
	st := r.Stats
	total := st.Living() + st.LeadersEvacuated + st.FollowersEvacuated + st.Casualties

	fmt.Fprintf(out, "Run %s (seed %d)\n", r.RunID, r.Seed)
	fmt.Fprintf(out, "  Ticks:      %s\n", humanize.Comma(int64(st.Tick)))
	fmt.Fprintf(out, "  Evacuated:  %d leaders, %d followers\n", st.LeadersEvacuated, st.FollowersEvacuated)
	fmt.Fprintf(out, "  Casualties: %d of %d\n", st.Casualties, total)
	if !st.Terminated {
		fmt.Fprintf(out, "  Stopped with %d still inside\n", st.Living())
	}
	if r.Saved {
		fmt.Fprintf(out, "  Saved; inspect with: evacsim show %s\n", r.RunID)
	}
}
