// Package settings persists the bandwidth engine's durable state: the
// manual limit, the remembered custom limit and the schedule. The store is
// a single-row sqlite database under the config directory; the rest of the
// engine treats it as an opaque collaborator and never sees the schema.
package settings

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/warpdl/bandwidth/pkg/logger"
	"github.com/warpdl/bandwidth/pkg/schedule"
)

// ConfigDirEnv overrides the default configuration directory.
const ConfigDirEnv = "BWSCHED_CONFIG_DIR"

const settingsFileName = "settings.db"

// State is the durable snapshot loaded at daemon start.
type State struct {
	ManualLimit int64
	LastCustom  int64
	Schedule    schedule.Schedule
}

// Store is the sqlite-backed settings store.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

// ConfigDir resolves the configuration directory, creating it if needed.
func ConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, os.MkdirAll(dir, 0o755)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "bwsched")
	return dir, os.MkdirAll(dir, 0o755)
}

// Open opens (or creates) the settings database at path. An empty path uses
// the default config directory.
func Open(path string, l logger.Logger) (*Store, error) {
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, settingsFileName)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	s := &Store{db: db, log: l}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		id             INTEGER PRIMARY KEY CHECK (id = 1),
		manual_limit   INTEGER NOT NULL DEFAULT 0,
		last_custom    INTEGER NOT NULL DEFAULT 0,
		sched_enabled  INTEGER NOT NULL DEFAULT 0,
		sched_days     INTEGER NOT NULL DEFAULT 0,
		sched_start    INTEGER NOT NULL DEFAULT 0,
		sched_end      INTEGER NOT NULL DEFAULT 0,
		sched_alt      INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		return fmt.Errorf("migrate settings db: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DefaultSchedule is the schedule used when nothing is stored yet or the
// stored row fails validation: disabled, every day, midnight to 06:00, at
// the minimum alternative limit.
func DefaultSchedule() schedule.Schedule {
	sch, err := schedule.New(false, schedule.AllDays, schedule.Clock{Hour: 0, Minute: 0}, schedule.Clock{Hour: 6, Minute: 0}, schedule.MinLimit)
	if err != nil {
		// Static values; cannot fail.
		panic(err)
	}
	return sch
}

// Load reads the stored state. A missing row yields defaults; a row that no
// longer passes schedule validation is logged and replaced by defaults
// rather than propagated, so a corrupt settings file never wedges startup.
func (s *Store) Load() (*State, error) {
	row := s.db.QueryRow(`SELECT manual_limit, last_custom, sched_enabled,
		sched_days, sched_start, sched_end, sched_alt FROM settings WHERE id = 1`)

	var (
		manual, lastCustom, alt int64
		enabled                 bool
		days, startMin, endMin  int
	)
	err := row.Scan(&manual, &lastCustom, &enabled, &days, &startMin, &endMin, &alt)
	if err == sql.ErrNoRows {
		return &State{Schedule: DefaultSchedule()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	sch, err := schedule.New(
		enabled,
		schedule.DaySet(days),
		schedule.Clock{Hour: startMin / 60, Minute: startMin % 60},
		schedule.Clock{Hour: endMin / 60, Minute: endMin % 60},
		alt,
	)
	if err != nil {
		s.log.Warning("stored schedule invalid (%v), falling back to defaults", err)
		sch = DefaultSchedule()
	}
	return &State{
		ManualLimit: manual,
		LastCustom:  lastCustom,
		Schedule:    sch,
	}, nil
}

// upsert writes a single column of the settings row, creating the row with
// defaults on first write.
func (s *Store) upsert(column string, value any) error {
	query := fmt.Sprintf(`INSERT INTO settings (id, %s) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET %s = excluded.%s`, column, column, column)
	if _, err := s.db.Exec(query, value); err != nil {
		return fmt.Errorf("save %s: %w", column, err)
	}
	return nil
}

// SaveManualLimit persists the manual global limit.
func (s *Store) SaveManualLimit(n int64) error {
	return s.upsert("manual_limit", n)
}

// SaveLastCustom persists the remembered custom limit.
func (s *Store) SaveLastCustom(n int64) error {
	return s.upsert("last_custom", n)
}

// SaveSchedule persists the whole schedule value.
func (s *Store) SaveSchedule(sch schedule.Schedule) error {
	_, err := s.db.Exec(`INSERT INTO settings (id, sched_enabled, sched_days, sched_start, sched_end, sched_alt)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sched_enabled = excluded.sched_enabled,
			sched_days    = excluded.sched_days,
			sched_start   = excluded.sched_start,
			sched_end     = excluded.sched_end,
			sched_alt     = excluded.sched_alt`,
		sch.Enabled, int(sch.Days), sch.Start.Minutes(), sch.End.Minutes(), sch.AltLimit)
	if err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	return nil
}
