package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
-- Food log
CREATE TABLE IF NOT EXISTS food_entries (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    calories REAL NOT NULL DEFAULT 0,
    protein_g REAL NOT NULL DEFAULT 0,
    carbs_g REAL NOT NULL DEFAULT 0,
    fat_g REAL NOT NULL DEFAULT 0,
    logged_at TEXT NOT NULL
);

-- Workout sessions, logged and live
CREATE TABLE IF NOT EXISTS workout_sessions (
    id TEXT PRIMARY KEY,
    template TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT,
    duration_min REAL NOT NULL DEFAULT 0,
    volume_kg REAL NOT NULL DEFAULT 0,
    live INTEGER NOT NULL DEFAULT 0
);

-- Body weight log
CREATE TABLE IF NOT EXISTS weight_entries (
    id TEXT PRIMARY KEY,
    weight_kg REAL NOT NULL,
    logged_at TEXT NOT NULL
);

-- Reminder completions
CREATE TABLE IF NOT EXISTS reminder_completions (
    id TEXT PRIMARY KEY,
    reminder_id TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    scheduled_minute INTEGER NOT NULL DEFAULT 0
);

-- Generic behavior events
CREATE TABLE IF NOT EXISTS behavior_events (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    note TEXT,
    occurred_at TEXT NOT NULL
);

-- Coaching flags raised against the user's history
CREATE TABLE IF NOT EXISTS active_signals (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    detail TEXT,
    raised_at TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    resolved_at TEXT
);

-- Prompt gate state, a single row
CREATE TABLE IF NOT EXISTS gate_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_answered_at TEXT,
    last_question_id TEXT
);

-- Small key-value side table: write revision, last plan review
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_food_logged ON food_entries(logged_at DESC);
CREATE INDEX IF NOT EXISTS idx_workout_started ON workout_sessions(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_weight_logged ON weight_entries(logged_at DESC);
CREATE INDEX IF NOT EXISTS idx_completions_at ON reminder_completions(completed_at DESC);
CREATE INDEX IF NOT EXISTS idx_completions_reminder ON reminder_completions(reminder_id, completed_at DESC);
CREATE INDEX IF NOT EXISTS idx_behavior_occurred ON behavior_events(occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_signals_expires ON active_signals(expires_at);
`

// Store is the signal store: read access to the five event collections
// plus persistence for the prompt gate and the write revision counter.
type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	_, err := s.conn.Exec(`INSERT OR IGNORE INTO meta (key, value) VALUES ('revision', '0')`)
	return err
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Revision returns the monotonically increasing write counter. Every
// accepted signal write bumps it, which forces the refresh cache to
// miss on the next read.
func (s *Store) Revision() (int64, error) {
	var rev int64
	err := s.conn.QueryRow(`SELECT value FROM meta WHERE key = 'revision'`).Scan(&rev)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return rev, err
}

// bumpRevision increments the write counter inside the given transaction.
func bumpRevision(tx *sql.Tx) error {
	_, err := tx.Exec(`UPDATE meta SET value = CAST(value AS INTEGER) + 1 WHERE key = 'revision'`)
	return err
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// LastPlanReview returns the timestamp of the last plan review, or zero
// if no review has ever happened.
func (s *Store) LastPlanReview() (time.Time, error) {
	var v string
	err := s.conn.QueryRow(`SELECT value FROM meta WHERE key = 'last_plan_review'`).Scan(&v)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return parseTime(v), nil
}

// SetLastPlanReview records that a plan review happened at t.
func (s *Store) SetLastPlanReview(t time.Time) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_plan_review', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, fmtTime(t)); err != nil {
		return err
	}
	if err := bumpRevision(tx); err != nil {
		return err
	}
	return tx.Commit()
}
