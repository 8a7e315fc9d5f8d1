package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/evacsim/internal/agents"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Width != 100 || cfg.Height != 75 {
		t.Errorf("expected 100x75 grid, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.GrowthInterval != 10 {
		t.Errorf("expected growth interval 10, got %d", cfg.GrowthInterval)
	}
	if cfg.PanicWeight != 0.6 || cfg.PatientWeight != 0.3 || cfg.GasWeight != 0.3 {
		t.Errorf("unexpected weights: panic=%v patient=%v gas=%v", cfg.PanicWeight, cfg.PatientWeight, cfg.GasWeight)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evacsim.yaml")
	content := `
seed: 42
width: 60
height: 40
tick_interval: 50ms
door_count: 6
blocked_threshold: 1
dist_charisma: uniform
patient_weight: 0.2
log:
  level: debug
db:
  path: /tmp/runs.db
api:
  addr: ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Seed != 42 || cfg.Width != 60 || cfg.Height != 40 {
		t.Errorf("unexpected seed/grid: %d %dx%d", cfg.Seed, cfg.Width, cfg.Height)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("expected 50ms tick interval, got %v", cfg.TickInterval)
	}
	if cfg.DoorCount != 6 || cfg.BlockedThreshold != 1 {
		t.Errorf("unexpected door settings: count=%d blocked=%d", cfg.DoorCount, cfg.BlockedThreshold)
	}
	if cfg.Log.Level != "debug" || cfg.DB.Path != "/tmp/runs.db" || cfg.API.Addr != ":9090" {
		t.Errorf("unexpected nested settings: %+v %+v %+v", cfg.Log, cfg.DB, cfg.API)
	}
	// Keys absent from the file keep their defaults.
	if cfg.GasWeight != 0.3 || cfg.PatientCount != Default().PatientCount {
		t.Errorf("defaults not preserved: gas_weight=%v patient_count=%d", cfg.GasWeight, cfg.PatientCount)
	}

	sc := cfg.Scenario()
	if sc.Charisma.Dist != agents.DistUniform {
		t.Errorf("expected uniform charisma, got %s", sc.Charisma.Dist)
	}
	if sc.Params.StressWeights.Peer != 0.2 || sc.Params.BlockedThreshold != 1 || sc.Layout.Exits != 6 {
		t.Errorf("scenario not derived from config: %+v", sc.Params)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("width: [1, 2"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EVACSIM_SEED", "99")
	t.Setenv("EVACSIM_MAX_TICKS", "250")
	t.Setenv("EVACSIM_LOG_LEVEL", "warn")
	t.Setenv("EVACSIM_DB_PATH", "")
	t.Setenv("EVACSIM_API_ADDR", ":7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Seed != 99 || cfg.MaxTicks != 250 || cfg.Log.Level != "warn" {
		t.Errorf("env not applied: seed=%d max_ticks=%d level=%s", cfg.Seed, cfg.MaxTicks, cfg.Log.Level)
	}
	if cfg.DB.Path != "" {
		t.Errorf("expected empty db path to disable persistence, got %q", cfg.DB.Path)
	}
	if cfg.API.Addr != ":7070" {
		t.Errorf("expected api addr :7070, got %q", cfg.API.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero width", func(c *Config) { c.Width = 0 }, "grid"},
		{"negative doors", func(c *Config) { c.DoorCount = -1 }, "door_count"},
		{"weight above one", func(c *Config) { c.PanicWeight = 1.5 }, "panic_weight"},
		{"weights sum above one", func(c *Config) { c.PatientWeight, c.GasWeight = 0.6, 0.6 }, "exceed"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"overfull grid", func(c *Config) { c.Width, c.Height = 5, 5 }, "does not fit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}

	cfg := Default()
	cfg.DistPanic = "poisson"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unknown distribution should fall back, not fail: %v", err)
	}
}
