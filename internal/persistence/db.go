// Package persistence provides SQLite-based run history storage: one row per
// run, its per-tick statistics, its event log, and every agent's fate.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/evacsim/internal/engine"
)

// ErrRunNotFound is returned when a run ID has no stored row.
var ErrRunNotFound = errors.New("run not found")

// DB wraps a SQLite connection for run history.
type DB struct {
	conn *sqlx.DB
}

// Run is one stored simulation run.
type Run struct {
	ID         string `db:"id" json:"id"`
	Seed       int64  `db:"seed" json:"seed"`
	Width      int    `db:"width" json:"width"`
	Height     int    `db:"height" json:"height"`
	Config     string `db:"config_json" json:"config"`
	StartedAt  int64  `db:"started_at" json:"started_at"`   // Unix seconds
	FinishedAt int64  `db:"finished_at" json:"finished_at"` // Unix seconds, 0 while running
	FinalTick  uint64 `db:"final_tick" json:"final_tick"`
	Leaders    int    `db:"leaders" json:"leaders"`
	Followers  int    `db:"followers" json:"followers"`
	Evacuated  int    `db:"evacuated" json:"evacuated"`
	Casualties int    `db:"casualties" json:"casualties"`
	Terminated bool   `db:"terminated" json:"terminated"` // Ended with nobody left inside
}

// NewRun creates a run record with a fresh ID, started now.
func NewRun(seed int64, width, height, leaders, followers int, configJSON string) Run {
	return Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		Width:     width,
		Height:    height,
		Config:    configJSON,
		StartedAt: time.Now().Unix(),
		Leaders:   leaders,
		Followers: followers,
	}
}

// Started returns the start time.
func (r Run) Started() time.Time { return time.Unix(r.StartedAt, 0) }

// Finished returns the finish time and whether the run has finished.
func (r Run) Finished() (time.Time, bool) {
	if r.FinishedAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(r.FinishedAt, 0), true
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0,
		final_tick INTEGER NOT NULL DEFAULT 0,
		leaders INTEGER NOT NULL,
		followers INTEGER NOT NULL,
		evacuated INTEGER NOT NULL DEFAULT 0,
		casualties INTEGER NOT NULL DEFAULT 0,
		terminated INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		leaders_alive INTEGER NOT NULL,
		followers_alive INTEGER NOT NULL,
		leaders_evacuated INTEGER NOT NULL,
		followers_evacuated INTEGER NOT NULL,
		casualties INTEGER NOT NULL,
		hazard_markers INTEGER NOT NULL,
		mean_stress REAL NOT NULL,
		following INTEGER NOT NULL,
		waiting INTEGER NOT NULL,
		fleeing INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		run_id TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		fate TEXT NOT NULL,
		fate_tick INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		trait REAL NOT NULL,
		PRIMARY KEY (run_id, agent_id)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun inserts a new run.
func (db *DB) SaveRun(r Run) error {
	_, err := db.conn.NamedExec(`INSERT INTO runs
		(id, seed, width, height, config_json, started_at, finished_at, final_tick,
		 leaders, followers, evacuated, casualties, terminated)
		VALUES (:id, :seed, :width, :height, :config_json, :started_at, :finished_at, :final_tick,
		 :leaders, :followers, :evacuated, :casualties, :terminated)`, r)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// SaveTickStats writes a batch of per-tick statistics. Re-saving a tick
// replaces it.
func (db *DB) SaveTickStats(runID string, stats []engine.TickStats) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO tick_stats
		(run_id, tick, leaders_alive, followers_alive, leaders_evacuated, followers_evacuated,
		 casualties, hazard_markers, mean_stress, following, waiting, fleeing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err := stmt.Exec(
			runID, s.Tick, s.LeadersAlive, s.FollowersAlive,
			s.LeadersEvacuated, s.FollowersEvacuated, s.Casualties,
			s.HazardMarkers, s.MeanStress, s.Following, s.Waiting, s.Fleeing,
		)
		if err != nil {
			return fmt.Errorf("insert tick %d: %w", s.Tick, err)
		}
	}

	return tx.Commit()
}

// SaveEvents appends events to the run's log.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)",
			runID, e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveOutcomes writes every agent's fate for a run (full replace).
func (db *DB) SaveOutcomes(runID string, outcomes []engine.Outcome) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM outcomes WHERE run_id = ?", runID); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO outcomes
		(run_id, agent_id, kind, fate, fate_tick, x, y, trait)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.Exec(runID, int64(o.ID), o.Kind, o.Fate, o.FateTick, o.Cell.X, o.Cell.Y, o.Trait); err != nil {
			return fmt.Errorf("insert outcome %d: %w", o.ID, err)
		}
	}

	return tx.Commit()
}

// FinishRun stamps a run with its final statistics.
func (db *DB) FinishRun(runID string, final engine.TickStats) error {
	res, err := db.conn.Exec(`UPDATE runs SET
		finished_at = ?, final_tick = ?, evacuated = ?, casualties = ?, terminated = ?
		WHERE id = ?`,
		time.Now().Unix(), final.Tick,
		final.LeadersEvacuated+final.FollowersEvacuated, final.Casualties,
		final.Terminated, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, seed, width, height, config_json, started_at, finished_at, final_tick,
	leaders, followers, evacuated, casualties, terminated`

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// GetRun returns one run by ID.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	return r, err
}

// tickRow maps tick_stats columns onto engine.TickStats.
type tickRow struct {
	Tick               uint64  `db:"tick"`
	LeadersAlive       int     `db:"leaders_alive"`
	FollowersAlive     int     `db:"followers_alive"`
	LeadersEvacuated   int     `db:"leaders_evacuated"`
	FollowersEvacuated int     `db:"followers_evacuated"`
	Casualties         int     `db:"casualties"`
	HazardMarkers      int     `db:"hazard_markers"`
	MeanStress         float64 `db:"mean_stress"`
	Following          int     `db:"following"`
	Waiting            int     `db:"waiting"`
	Fleeing            int     `db:"fleeing"`
}

// TickHistory returns the last limit ticks of a run in tick order. A limit
// of zero or less returns the whole history.
func (db *DB) TickHistory(runID string, limit int) ([]engine.TickStats, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []tickRow
	err := db.conn.Select(&rows, `SELECT * FROM (
		SELECT tick, leaders_alive, followers_alive, leaders_evacuated, followers_evacuated,
		       casualties, hazard_markers, mean_stress, following, waiting, fleeing
		FROM tick_stats WHERE run_id = ? ORDER BY tick DESC LIMIT ?
	) ORDER BY tick ASC`, runID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]engine.TickStats, len(rows))
	for i, r := range rows {
		out[i] = r.stats()
	}
	return out, nil
}

func (r tickRow) stats() engine.TickStats {
	return engine.TickStats{
		Tick:               r.Tick,
		LeadersAlive:       r.LeadersAlive,
		FollowersAlive:     r.FollowersAlive,
		LeadersEvacuated:   r.LeadersEvacuated,
		FollowersEvacuated: r.FollowersEvacuated,
		Casualties:         r.Casualties,
		HazardMarkers:      r.HazardMarkers,
		MeanStress:         r.MeanStress,
		Following:          r.Following,
		Waiting:            r.Waiting,
		Fleeing:            r.Fleeing,
	}
}

// RunEvents returns the most recent N events of a run, oldest first.
func (db *DB) RunEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events, `SELECT tick, description, category FROM (
		SELECT id, tick, description, category FROM events
		WHERE run_id = ? ORDER BY id DESC LIMIT ?
	) ORDER BY id ASC`, runID, limit)
	return events, err
}

// FateCounts tallies a run's outcomes by kind and fate, keyed "kind/fate".
func (db *DB) FateCounts(runID string) (map[string]int, error) {
	var rows []struct {
		Kind  string `db:"kind"`
		Fate  string `db:"fate"`
		Count int    `db:"n"`
	}
	err := db.conn.Select(&rows,
		"SELECT kind, fate, COUNT(*) AS n FROM outcomes WHERE run_id = ? GROUP BY kind, fate",
		runID,
	)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Kind+"/"+r.Fate] = r.Count
	}
	return counts, nil
}
