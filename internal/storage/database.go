// Package storage provides database access and repositories
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("sqlite3", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to :memory: would otherwise get its own empty database
	if strings.Contains(databaseURL, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &DB{db}, nil
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	migrations := []string{
		createImportEventsTable,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

const createImportEventsTable = `
CREATE TABLE IF NOT EXISTS import_events (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	broker TEXT NOT NULL,
	row_count INTEGER DEFAULT 0,
	invalid_count INTEGER DEFAULT 0,
	trade_count INTEGER DEFAULT 0,
	duration_ms INTEGER DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_events_broker ON import_events(broker);
CREATE INDEX IF NOT EXISTS idx_import_events_created_at ON import_events(created_at);
`
