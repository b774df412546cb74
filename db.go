// db.go
//
// Database helpers for the Codenames server.
// Responsibilities:
//   - Opening the SQLite database with safe defaults (WAL, busy timeout,
//     foreign keys).
//   - Applying the schema (idempotent CREATE IF NOT EXISTS statements).
//
// Two tables: game_docs holds the versioned match documents the store
// compare-and-swaps against, lobbies holds named lobby metadata and their
// passcode hashes. The quickplay lobby needs no row.

package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// openDB opens (and creates if missing) a SQLite database file.
func openDB(dsn string) (*sql.DB, error) {
	// Ensure directory exists for ./data/codenames.db, etc.
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// Open DB with busy timeout and WAL journaling.
	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// Explicitly enforce foreign keys + WAL.
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// ensureSchema creates the tables if they do not exist yet.
func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS game_docs (
			id         TEXT PRIMARY KEY,
			version    INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			state      TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS lobbies (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL DEFAULT '',
			passcode_hash TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
