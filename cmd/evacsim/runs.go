package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/evacsim/internal/config"
	"github.com/talgya/evacsim/internal/persistence"
)

// openHistory opens the run database named by --db, or the configured one.
func openHistory(cmd *cobra.Command) (*persistence.DB, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		cfg, err := config.Load("")
		if err != nil {
			return nil, err
		}
		path = cfg.DB.Path
	}
	if path == "" {
		return nil, errors.New("no database configured (use --db)")
	}
	return persistence.Open(path)
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			db, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if runs == nil {
					runs = []persistence.Run{}
				}
				return json.NewEncoder(out).Encode(map[string]any{
					"runs":        runs,
					"total_count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs stored yet. Start one with: evacsim run")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSEED\tSTARTED\tTICKS\tAGENTS\tEVACUATED\tCASUALTIES\tSTATUS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.ID, r.Seed, humanize.Time(r.Started()), humanize.Comma(int64(r.FinalTick)),
					r.Leaders+r.Followers, r.Evacuated, r.Casualties, runStatus(r))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("db", "", "SQLite file (default: configured db.path)")
	cmd.Flags().Int("limit", 20, "Maximum runs to list")
	return cmd
}

func runStatus(r persistence.Run) string {
	switch _, done := r.Finished(); {
	case !done:
		return "running"
	case r.Terminated:
		return "finished"
	default:
		return "stopped"
	}
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run's outcome and recent history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			tail, _ := cmd.Flags().GetInt("tail")

			db, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := db.GetRun(args[0])
			if err != nil {
				return err
			}
			fates, err := db.FateCounts(run.ID)
			if err != nil {
				return fmt.Errorf("failed to count fates: %w", err)
			}
			history, err := db.TickHistory(run.ID, tail)
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"run":     run,
					"fates":   fates,
					"history": history,
				})
			}

			fmt.Fprintf(out, "Run %s\n", run.ID)
			fmt.Fprintf(out, "  Seed:     %d\n", run.Seed)
			fmt.Fprintf(out, "  Grid:     %dx%d\n", run.Width, run.Height)
			fmt.Fprintf(out, "  Started:  %s\n", humanize.Time(run.Started()))
			if at, ok := run.Finished(); ok {
				fmt.Fprintf(out, "  Finished: %s after %s ticks (%s)\n",
					humanize.Time(at), humanize.Comma(int64(run.FinalTick)), runStatus(run))
			} else {
				fmt.Fprintln(out, "  Finished: not yet")
			}
			fmt.Fprintf(out, "  Agents:   %d leaders, %d followers\n", run.Leaders, run.Followers)

			if len(fates) > 0 {
				keys := make([]string, 0, len(fates))
				for k := range fates {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				fmt.Fprintln(out, "\nFates:")
				for _, k := range keys {
					fmt.Fprintf(out, "  %-22s %d\n", k, fates[k])
				}
			}

			if len(history) > 0 {
				fmt.Fprintln(out, "\nHistory:")
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "  TICK\tINSIDE\tEVACUATED\tCASUALTIES\tHAZARD\tSTRESS")
				for _, st := range history {
					fmt.Fprintf(tw, "  %d\t%d\t%d\t%d\t%d\t%.3f\n",
						st.Tick, st.Living(), st.LeadersEvacuated+st.FollowersEvacuated,
						st.Casualties, st.HazardMarkers, st.MeanStress)
				}
				return tw.Flush()
			}
			return nil
		},
	}
	cmd.Flags().String("db", "", "SQLite file (default: configured db.path)")
	cmd.Flags().Int("tail", 10, "History rows to show (0 = all)")
	return cmd
}
