// Package sqlite opens the embedded SQLite database backing the sqlite
// repositories and bootstraps its schema.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Config holds connection parameters for a SQLite store.
type Config struct {
	Path string
}

// DB wraps the database handle shared by the sqlite repositories. A single
// connection keeps multi-statement writes serialized.
type DB struct {
	sql *sql.DB
}

// Open opens (creating if needed) the database file and bootstraps the schema.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	h, err := sql.Open("sqlite", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	h.SetMaxOpenConns(1)

	if _, err := h.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		h.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	d := &DB{sql: h}
	if err := d.initSchema(); err != nil {
		h.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) initSchema() error {
	_, err := d.sql.Exec(`
		CREATE TABLE IF NOT EXISTS remote_documents (
			path          TEXT PRIMARY KEY,
			collection    TEXT NOT NULL,
			doc_type      INTEGER NOT NULL,
			version_us    INTEGER NOT NULL,
			read_time_us  INTEGER NOT NULL,
			has_committed INTEGER NOT NULL,
			data          TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS remote_documents_by_read_time
			ON remote_documents (collection, read_time_us);
		CREATE TABLE IF NOT EXISTS mutation_batches (
			batch_id            INTEGER PRIMARY KEY,
			local_write_time_us INTEGER NOT NULL,
			base_mutations      TEXT NOT NULL,
			mutations           TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS document_mutations (
			path       TEXT NOT NULL,
			collection TEXT NOT NULL,
			batch_id   INTEGER NOT NULL,
			PRIMARY KEY (path, batch_id)
		);
		CREATE INDEX IF NOT EXISTS document_mutations_by_collection
			ON document_mutations (collection, batch_id);
		CREATE TABLE IF NOT EXISTS collection_parents (
			collection_id TEXT NOT NULL,
			parent        TEXT NOT NULL,
			PRIMARY KEY (collection_id, parent)
		);
		CREATE TABLE IF NOT EXISTS globals (
			name  TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Ping checks that the database file is usable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.sql.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (d *DB) Close() error {
	return d.sql.Close()
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w: rollback: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// QueryContext runs a query returning rows.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a query returning at most one row.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, query, args...)
}

// ExecContext runs a statement without returning rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, query, args...)
}
