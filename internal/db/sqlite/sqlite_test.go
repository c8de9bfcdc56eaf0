package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(Config{Path: filepath.Join(t.TempDir(), "lamina.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenBootstrapsSchema(t *testing.T) {
	d := openTestDB(t)

	if err := d.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	tables := []string{
		"remote_documents", "mutation_batches", "document_mutations",
		"collection_parents", "globals",
	}
	for _, table := range tables {
		var name string
		err := d.QueryRowContext(context.Background(),
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lamina.db")

	d1, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	d1.Close()

	d2, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	d2.Close()
}

func TestWithTxCommits(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO globals (name, value) VALUES ('highest_batch_id', 7)`)
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	var v int64
	if err := d.QueryRowContext(ctx,
		`SELECT value FROM globals WHERE name = 'highest_batch_id'`).Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO globals (name, value) VALUES ('highest_batch_id', 7)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var v int64
	err = d.QueryRowContext(ctx,
		`SELECT value FROM globals WHERE name = 'highest_batch_id'`).Scan(&v)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
