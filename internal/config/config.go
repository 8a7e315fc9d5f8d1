// Package config provides run configuration loading for evacsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/talgya/evacsim/internal/agents"
	"github.com/talgya/evacsim/internal/engine"
	"github.com/talgya/evacsim/internal/logging"
	"github.com/talgya/evacsim/internal/world"
	"gopkg.in/yaml.v3"
)

// Config contains all settings for a run.
type Config struct {
	// Seed drives layout and every random draw. 0 picks a random seed.
	Seed int64 `json:"seed" yaml:"seed"`

	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// MaxTicks stops the run early; 0 runs until no agent is left inside.
	MaxTicks uint64 `json:"max_ticks" yaml:"max_ticks"`

	// TickInterval paces the run in wall-clock time; 0 runs headless.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// GrowthInterval is the number of ticks between hazard spreads.
	GrowthInterval uint64 `json:"growth_interval" yaml:"growth_interval"`

	// ReportInterval is the number of ticks between progress log lines.
	ReportInterval uint64 `json:"report_interval" yaml:"report_interval"`

	GasCount     int `json:"gas_count" yaml:"gas_count"`
	DoctorCount  int `json:"doctor_count" yaml:"doctor_count"`
	PatientCount int `json:"patient_count" yaml:"patient_count"`
	DoorCount    int `json:"door_count" yaml:"door_count"`
	DoorRadius   int `json:"door_radius" yaml:"door_radius"`

	OvercrowdingThreshold int `json:"overcrowding_threshold" yaml:"overcrowding_threshold"`
	BlockedThreshold      int `json:"blocked_threshold" yaml:"blocked_threshold"`

	MeanCharisma float64 `json:"mean_charisma" yaml:"mean_charisma"`
	StdCharisma  float64 `json:"std_charisma" yaml:"std_charisma"`
	DistCharisma string  `json:"dist_charisma" yaml:"dist_charisma"`
	MeanPanic    float64 `json:"mean_panic" yaml:"mean_panic"`
	StdPanic     float64 `json:"std_panic" yaml:"std_panic"`
	DistPanic    string  `json:"dist_panic" yaml:"dist_panic"`

	// PatientWeight and GasWeight blend neighbour stress and hazard proximity
	// into a follower's stress; the base level gets the remainder.
	PatientWeight float64 `json:"patient_weight" yaml:"patient_weight"`
	GasWeight     float64 `json:"gas_weight" yaml:"gas_weight"`

	// PanicWeight is how much a follower's own stress, rather than the
	// leader's charisma, decides whether it follows.
	PanicWeight float64 `json:"panic_weight" yaml:"panic_weight"`

	// LeaderKnownExits is how many of the nearest exits each leader knows at
	// spawn.
	LeaderKnownExits int `json:"leader_known_exits" yaml:"leader_known_exits"`

	Log LogConfig `json:"log" yaml:"log"`
	DB  DBConfig  `json:"db" yaml:"db"`
	API APIConfig `json:"api" yaml:"api"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	// Level sets the log verbosity: "debug", "info" (default), "warn", "error".
	Level string `json:"level" yaml:"level"`
}

// DBConfig configures run history storage.
type DBConfig struct {
	// Path is the SQLite file. Empty disables persistence.
	Path string `json:"path" yaml:"path"`

	// SaveInterval is the number of ticks between history flushes.
	SaveInterval uint64 `json:"save_interval" yaml:"save_interval"`
}

// APIConfig configures the status API.
type APIConfig struct {
	// Addr is the listen address, e.g. ":8080". Empty disables the API.
	Addr string `json:"addr" yaml:"addr"`

	// AdminKey guards POST endpoints. Read only from EVACSIM_ADMIN_KEY.
	AdminKey string `json:"-" yaml:"-"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Width:                 100,
		Height:                75,
		MaxTicks:              5000,
		GrowthInterval:        engine.DefaultGrowthInterval,
		ReportInterval:        100,
		GasCount:              2,
		DoctorCount:           8,
		PatientCount:          150,
		DoorCount:             4,
		DoorRadius:            3,
		OvercrowdingThreshold: 10,
		BlockedThreshold:      3,
		MeanCharisma:          0.5,
		StdCharisma:           0.2,
		DistCharisma:          string(agents.DistGaussian),
		MeanPanic:             0.4,
		StdPanic:              0.2,
		DistPanic:             string(agents.DistGaussian),
		PatientWeight:         agents.DefaultStressWeights.Peer,
		GasWeight:             agents.DefaultStressWeights.Hazard,
		PanicWeight:           agents.DefaultPanicWeight,
		LeaderKnownExits:      2,
		Log:                   LogConfig{Level: "info"},
		DB:                    DBConfig{Path: "data/evacsim.db", SaveInterval: 50},
	}
}

// Load returns the defaults, overlaid with path when it is non-empty, then
// with environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys absent
// from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("grid must be at least 1x1, got %dx%d", c.Width, c.Height)
	}
	counts := map[string]int{
		"gas_count":              c.GasCount,
		"doctor_count":           c.DoctorCount,
		"patient_count":          c.PatientCount,
		"door_count":             c.DoorCount,
		"door_radius":            c.DoorRadius,
		"overcrowding_threshold": c.OvercrowdingThreshold,
		"blocked_threshold":      c.BlockedThreshold,
		"leader_known_exits":     c.LeaderKnownExits,
	}
	for name, v := range counts {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, v)
		}
	}
	if c.DoctorCount+c.PatientCount > c.Width*c.Height {
		return fmt.Errorf("population %d does not fit a %dx%d grid", c.DoctorCount+c.PatientCount, c.Width, c.Height)
	}
	if c.StdCharisma < 0 || c.StdPanic < 0 {
		return fmt.Errorf("standard deviations must be non-negative")
	}
	weights := map[string]float64{
		"patient_weight": c.PatientWeight,
		"gas_weight":     c.GasWeight,
		"panic_weight":   c.PanicWeight,
	}
	for name, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, w)
		}
	}
	if c.PatientWeight+c.GasWeight > 1 {
		return fmt.Errorf("patient_weight + gas_weight must not exceed 1, got %f", c.PatientWeight+c.GasWeight)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}
	return nil
}

// Scenario converts the configuration into a run scenario.
func (c *Config) Scenario() engine.Scenario {
	sc := engine.DefaultScenario(c.Width, c.Height)
	sc.Seed = c.Seed

	p := &sc.Params
	p.GrowthInterval = c.GrowthInterval
	p.ExitRadius = c.DoorRadius
	p.OvercrowdingThreshold = c.OvercrowdingThreshold
	p.BlockedThreshold = c.BlockedThreshold
	p.StressWeights = agents.StressWeights{Peer: c.PatientWeight, Hazard: c.GasWeight}
	p.PanicWeight = c.PanicWeight

	sc.Layout = world.DefaultLayoutConfig()
	sc.Layout.HazardSeeds = c.GasCount
	sc.Layout.Exits = c.DoorCount
	sc.Layout.Leaders = c.DoctorCount
	sc.Layout.Followers = c.PatientCount

	sc.Charisma = agents.Trait{Mean: c.MeanCharisma, Std: c.StdCharisma, Dist: agents.ParseDistribution(c.DistCharisma)}
	sc.Stress = agents.Trait{Mean: c.MeanPanic, Std: c.StdPanic, Dist: agents.ParseDistribution(c.DistPanic)}
	sc.LeaderKnownExits = c.LeaderKnownExits
	return sc
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("EVACSIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
	if v := os.Getenv("EVACSIM_MAX_TICKS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.MaxTicks = n
		}
	}
	if v := os.Getenv("EVACSIM_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TickInterval = d
		}
	}
	if v := os.Getenv("EVACSIM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("EVACSIM_DB_PATH"); ok {
		c.DB.Path = v
	}
	if v, ok := os.LookupEnv("EVACSIM_API_ADDR"); ok {
		c.API.Addr = v
	}
	if v := os.Getenv("EVACSIM_ADMIN_KEY"); v != "" {
		c.API.AdminKey = v
	}
}
