// Package store provides the SQLite-backed key-value store that holds all
// persisted purrwatch state.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to the purrwatch SQLite database.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the SQLite database at dbPath, creating its parent
// directory if needed, and migrates it.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	// WAL lets the data commands read while the daemon writes.
	return open(dbPath, "PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000")
}

// OpenInMemory opens a migrated in-memory database, useful for testing.
func OpenInMemory() (*DB, error) {
	return open(":memory:")
}

func open(dsn string, pragmas ...string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		// Each pooled connection would get its own empty database.
		conn.SetMaxOpenConns(1)
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
