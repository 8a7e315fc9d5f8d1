package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/evacsim/internal/persistence"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	yaml := `seed: 11
width: 30
height: 20
max_ticks: 60
doctor_count: 2
patient_count: 12
gas_count: 1
door_count: 3
report_interval: 0
log:
  level: error
db:
  save_interval: 10
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Fatalf("output %q lacks version", out)
	}
}

func TestRunStoresHistory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "runs.db")

	out, err := execute(t, "run", "--config", writeConfig(t, dir), "--db", dbPath, "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var result runResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode run output %q: %v", out, err)
	}
	if result.Seed != 11 || !result.Saved || result.Stats.Tick == 0 || result.Stats.Tick > 60 {
		t.Fatalf("unexpected result: %+v", result)
	}

	db, err := persistence.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	run, err := db.GetRun(result.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.FinalTick != result.Stats.Tick || run.Leaders != 2 || run.Followers != 12 {
		t.Fatalf("stored run: %+v", run)
	}
	history, _ := db.TickHistory(run.ID, 0)
	if uint64(len(history)) != run.FinalTick {
		t.Fatalf("stored %d ticks, want %d", len(history), run.FinalTick)
	}
	fates, _ := db.FateCounts(run.ID)
	total := 0
	for _, n := range fates {
		total += n
	}
	if total != 14 {
		t.Fatalf("fates cover %d agents, want 14: %v", total, fates)
	}

	out, err = execute(t, "runs", "--db", dbPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, run.ID) {
		t.Fatalf("runs output lacks %s:\n%s", run.ID, out)
	}

	out, err = execute(t, "show", run.ID, "--db", dbPath, "--tail", "3")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Seed:     11") || !strings.Contains(out, "History:") {
		t.Fatalf("show output:\n%s", out)
	}
}

func TestShowUnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	if _, err := execute(t, "show", "nope", "--db", dbPath); err == nil {
		t.Fatal("show of an unknown run should fail")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	if _, err := execute(t, "run", "--log-level", "loud", "--db", ""); err == nil {
		t.Fatal("invalid log level accepted")
	}
}
