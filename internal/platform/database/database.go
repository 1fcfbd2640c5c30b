package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"rehook/internal/platform/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	files_scanned INTEGER NOT NULL DEFAULT 0,
	files_with_webhooks INTEGER NOT NULL DEFAULT 0,
	resources_found INTEGER NOT NULL DEFAULT 0,
	total_webhooks INTEGER NOT NULL DEFAULT 0,
	channels_created INTEGER NOT NULL DEFAULT 0,
	channels_reused INTEGER NOT NULL DEFAULT 0,
	webhooks_created INTEGER NOT NULL DEFAULT 0,
	files_updated INTEGER NOT NULL DEFAULT 0,
	replacements INTEGER NOT NULL DEFAULT 0,
	files_backed_up INTEGER NOT NULL DEFAULT 0,
	failures TEXT,
	report_dir TEXT,
	backup_dir TEXT
);

CREATE TABLE IF NOT EXISTS run_mappings (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	resource TEXT NOT NULL,
	channel_id TEXT,
	old_url TEXT NOT NULL,
	new_url TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_mappings_run_id ON run_mappings(run_id);
`

// Open opens the local run store. Sqlite allows a single writer, so the pool
// is pinned to one connection.
func Open(cfg config.StoreConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Bootstrap creates the store tables if they are missing. Safe to call on
// every start.
func Bootstrap(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
