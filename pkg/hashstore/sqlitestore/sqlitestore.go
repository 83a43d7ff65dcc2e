// Package sqlitestore persists hash store entries in an embedded SQLite
// database. It suits projects that share one cache across many project files
// or want to inspect the cache with standard SQL tooling.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-textgen/pkg/hashstore"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Backend implements hashstore.Backend on top of SQLite.
type Backend struct {
	db   *sql.DB
	path string
}

var _ hashstore.Backend = (*Backend)(nil)

// Open creates (if needed) and opens the database at path. The special path
// ":memory:" opens a private in-memory database.
func Open(path string) (*Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlitestore: database path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlitestore: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open database: %w", err)
	}
	// A single connection keeps ":memory:" databases stable across calls.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitestore: pragma %q: %w", p, err)
		}
	}

	b := &Backend{db: db, path: path}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: migration: %w", err)
	}
	return b, nil
}

func (b *Backend) migrate() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS hashes (
			output    TEXT PRIMARY KEY,
			hash      TEXT NOT NULL,
			signature TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// Load reads every row into memory.
func (b *Backend) Load(ctx context.Context) (map[string]hashstore.Entry, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT output, hash, signature FROM hashes`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query hashes: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]hashstore.Entry)
	for rows.Next() {
		var entry hashstore.Entry
		if err := rows.Scan(&entry.Output, &entry.Hash, &entry.Signature); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan hash row: %w", err)
		}
		entries[entry.Output] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: iterate hashes: %w", err)
	}
	return entries, nil
}

// Persist replaces the stored rows with entries inside one transaction: rows
// for outputs absent from entries are deleted, the rest are upserted.
func (b *Backend) Persist(ctx context.Context, entries map[string]hashstore.Entry) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin: %w", err)
	}
	defer tx.Rollback()

	stale, err := staleOutputs(ctx, tx, entries)
	if err != nil {
		return err
	}
	for _, output := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM hashes WHERE output = ?`, output); err != nil {
			return fmt.Errorf("sqlitestore: delete %s: %w", output, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hashes (output, hash, signature) VALUES (?, ?, ?)
		ON CONFLICT(output) DO UPDATE SET hash = excluded.hash, signature = excluded.signature
	`)
	if err != nil {
		return fmt.Errorf("sqlitestore: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for output, entry := range entries {
		if _, err := stmt.ExecContext(ctx, output, entry.Hash, entry.Signature); err != nil {
			return fmt.Errorf("sqlitestore: upsert %s: %w", output, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitestore: commit: %w", err)
	}
	return nil
}

func staleOutputs(ctx context.Context, tx *sql.Tx, entries map[string]hashstore.Entry) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT output FROM hashes`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query outputs: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var output string
		if err := rows.Scan(&output); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan output: %w", err)
		}
		if _, ok := entries[output]; !ok {
			stale = append(stale, output)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: iterate outputs: %w", err)
	}
	return stale, nil
}

// Close closes the underlying database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}
