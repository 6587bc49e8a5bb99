package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var errNotInitialized = errors.New("database not initialized")

// DB wraps a database connection
type DB struct {
	*sql.DB
}

// Frame is one image pushed to a panel.
type Frame struct {
	ID        int64
	Panel     string
	Width     int
	Height    int
	PNG       []byte
	CreatedAt time.Time
}

// Run is one wake cycle as recorded in the journal.
type Run struct {
	ID           string
	StartedAt    time.Time
	Duration     time.Duration
	Status       string // "ok" or "failed"
	FailureKind  string
	Error        string
	Location     string
	SleepSeconds int64
}

// NewDB opens (creating if needed) the SQLite database at path. An empty path
// falls back to $DB_PATH, then to magtag.db in the working directory.
func NewDB(path string) (*DB, error) {
	if path == "" {
		path = getEnvOrDefault("DB_PATH", "magtag.db")
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS frames (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		panel TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		png BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_frames_panel ON frames(panel, id);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		status TEXT NOT NULL,
		failure_kind TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		sleep_seconds INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveFrame stores a frame as the panel's newest image.
func (db *DB) SaveFrame(f Frame) error {
	if db == nil || db.DB == nil {
		return errNotInitialized
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	_, err := db.Exec(
		"INSERT INTO frames (panel, width, height, png, created_at) VALUES (?, ?, ?, ?, ?)",
		f.Panel, f.Width, f.Height, f.PNG, f.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save frame for %s: %w", f.Panel, err)
	}
	return nil
}

// LastFrame returns the newest frame for panel, or nil when none was saved.
func (db *DB) LastFrame(panel string) (*Frame, error) {
	if db == nil || db.DB == nil {
		return nil, errNotInitialized
	}

	var f Frame
	var created int64
	err := db.QueryRow(
		"SELECT id, panel, width, height, png, created_at FROM frames WHERE panel = ? ORDER BY id DESC LIMIT 1",
		panel,
	).Scan(&f.ID, &f.Panel, &f.Width, &f.Height, &f.PNG, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last frame for %s: %w", panel, err)
	}
	f.CreatedAt = time.UnixMilli(created)
	return &f, nil
}

// PruneFrames keeps only the newest keep frames for panel.
func (db *DB) PruneFrames(panel string, keep int) error {
	if db == nil || db.DB == nil {
		return errNotInitialized
	}

	_, err := db.Exec(
		`DELETE FROM frames WHERE panel = ? AND id NOT IN (
			SELECT id FROM frames WHERE panel = ? ORDER BY id DESC LIMIT ?
		)`,
		panel, panel, keep,
	)
	if err != nil {
		return fmt.Errorf("failed to prune frames for %s: %w", panel, err)
	}
	return nil
}

// RecordRun appends one wake cycle to the journal.
func (db *DB) RecordRun(r Run) error {
	if db == nil || db.DB == nil {
		return errNotInitialized
	}

	_, err := db.Exec(
		`INSERT INTO runs (id, started_at, duration_ms, status, failure_kind, error, location, sleep_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixMilli(), r.Duration.Milliseconds(), r.Status,
		r.FailureKind, r.Error, r.Location, r.SleepSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	if db == nil || db.DB == nil {
		return nil, errNotInitialized
	}

	rows, err := db.Query(
		`SELECT id, started_at, duration_ms, status, failure_kind, error, location, sleep_seconds
		FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, durationMs int64
		if err := rows.Scan(&r.ID, &started, &durationMs, &r.Status, &r.FailureKind, &r.Error, &r.Location, &r.SleepSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
