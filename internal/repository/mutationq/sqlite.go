package mutationq

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/laminadb/lamina/internal/db/sqlite"
	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
)

const nextBatchIDGlobal = "next_batch_id"

// SQLite is the durable queue over the embedded database.
type SQLite struct {
	db *sqlite.DB
}

// NewSQLite creates a sqlite-backed mutation queue.
func NewSQLite(db *sqlite.DB) *SQLite {
	return &SQLite{db: db}
}

// NextBatchID returns the id the next AddBatch will use.
func (s *SQLite) NextBatchID(ctx context.Context) (int64, error) {
	highest, err := s.HighestBatchID(ctx)
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// HighestBatchID returns the largest id ever assigned, 0 when none.
func (s *SQLite) HighestBatchID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM globals WHERE name = ?`, nextBatchIDGlobal).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read batch counter: %w", err)
	}
	return id, nil
}

// AddBatch stores a new batch under the next ascending id within one
// transaction, indexing every affected document path.
func (s *SQLite) AddBatch(
	ctx context.Context, localWriteTime time.Time, baseMutations, mutations []mutation.Mutation,
) (mutation.Batch, error) {
	if len(mutations) == 0 {
		return mutation.Batch{}, domain.ErrEmptyBatch
	}

	var batch mutation.Batch
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO globals (name, value) VALUES (?, 1)
			 ON CONFLICT (name) DO UPDATE SET value = value + 1
			 RETURNING value`, nextBatchIDGlobal).Scan(&id)
		if err != nil {
			return fmt.Errorf("allocate batch id: %w", err)
		}

		batch, err = mutation.NewBatch(id, localWriteTime, baseMutations, mutations)
		if err != nil {
			return err
		}
		fields, err := encodeBatchFields(batch)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mutation_batches (batch_id, local_write_time_us, base_mutations, mutations)
			 VALUES (?, ?, ?, ?)`,
			id, fields[fieldWriteTime], fields[fieldBase], fields[fieldMutations]); err != nil {
			return fmt.Errorf("store batch %d: %w", id, err)
		}

		for key := range batch.Keys() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO document_mutations (path, collection, batch_id) VALUES (?, ?, ?)`,
				key.String(), key.CollectionPath().String(), id); err != nil {
				return fmt.Errorf("index batch %d by %s: %w", id, key, err)
			}
		}
		return nil
	})
	if err != nil {
		return mutation.Batch{}, err
	}
	return batch, nil
}

// LookupBatch returns the batch with the given id.
func (s *SQLite) LookupBatch(ctx context.Context, id int64) (mutation.Batch, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT local_write_time_us, base_mutations, mutations
		 FROM mutation_batches WHERE batch_id = ?`, id)

	batch, err := scanBatch(id, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return mutation.Batch{}, false, nil
	}
	if err != nil {
		return mutation.Batch{}, false, fmt.Errorf("lookup batch %d: %w", id, err)
	}
	return batch, true, nil
}

// NextBatchAfter returns the first batch with id strictly greater than id.
func (s *SQLite) NextBatchAfter(ctx context.Context, id int64) (mutation.Batch, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT batch_id, local_write_time_us, base_mutations, mutations
		 FROM mutation_batches WHERE batch_id > ? ORDER BY batch_id LIMIT 1`, id)

	var nextID int64
	batch, err := scanBatchWithID(&nextID, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return mutation.Batch{}, false, nil
	}
	if err != nil {
		return mutation.Batch{}, false, fmt.Errorf("scan batches after %d: %w", id, err)
	}
	return batch, true, nil
}

// AllBatches returns every queued batch in ascending id order.
func (s *SQLite) AllBatches(ctx context.Context) ([]mutation.Batch, error) {
	return s.queryBatches(ctx,
		`SELECT batch_id, local_write_time_us, base_mutations, mutations
		 FROM mutation_batches ORDER BY batch_id`)
}

// AllBatchesAffectingDocumentKey returns the batches with a mutation
// targeting key, ascending.
func (s *SQLite) AllBatchesAffectingDocumentKey(ctx context.Context, key path.DocumentKey) ([]mutation.Batch, error) {
	return s.queryBatches(ctx,
		`SELECT b.batch_id, b.local_write_time_us, b.base_mutations, b.mutations
		 FROM mutation_batches b
		 JOIN document_mutations d ON d.batch_id = b.batch_id
		 WHERE d.path = ? ORDER BY b.batch_id`, key.String())
}

// AllBatchesAffectingDocumentKeys returns the deduplicated union of
// batches affecting any of the keys, ascending.
func (s *SQLite) AllBatchesAffectingDocumentKeys(
	ctx context.Context, keys []path.DocumentKey,
) ([]mutation.Batch, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	placeholders := ""
	args := make([]any, len(keys))
	for i, key := range keys {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args[i] = key.String()
	}

	return s.queryBatches(ctx,
		`SELECT DISTINCT b.batch_id, b.local_write_time_us, b.base_mutations, b.mutations
		 FROM mutation_batches b
		 JOIN document_mutations d ON d.batch_id = b.batch_id
		 WHERE d.path IN (`+placeholders+`) ORDER BY b.batch_id`, args...)
}

// AllBatchesAffectingQuery returns the batches with a mutation directly
// inside the query's collection, ascending.
func (s *SQLite) AllBatchesAffectingQuery(ctx context.Context, q query.Query) ([]mutation.Batch, error) {
	if err := validateQueueQuery(q); err != nil {
		return nil, err
	}
	return s.queryBatches(ctx,
		`SELECT DISTINCT b.batch_id, b.local_write_time_us, b.base_mutations, b.mutations
		 FROM mutation_batches b
		 JOIN document_mutations d ON d.batch_id = b.batch_id
		 WHERE d.collection = ? ORDER BY b.batch_id`, q.Path().String())
}

// RemoveBatch drops the oldest batch, which must have the given id, and
// clears its index rows.
func (s *SQLite) RemoveBatch(ctx context.Context, id int64) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var oldest sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MIN(batch_id) FROM mutation_batches`).Scan(&oldest); err != nil {
			return fmt.Errorf("scan batches: %w", err)
		}
		if !oldest.Valid {
			return fmt.Errorf("batch %d: %w", id, domain.ErrBatchNotFound)
		}
		if oldest.Int64 != id {
			var exists int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM mutation_batches WHERE batch_id = ?`, id).Scan(&exists); err != nil {
				return fmt.Errorf("lookup batch %d: %w", id, err)
			}
			if exists == 0 {
				return fmt.Errorf("batch %d: %w", id, domain.ErrBatchNotFound)
			}
			return fmt.Errorf("batch %d: oldest is %d: %w", id, oldest.Int64, domain.ErrBatchOrder)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM mutation_batches WHERE batch_id = ?`, id); err != nil {
			return fmt.Errorf("remove batch %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM document_mutations WHERE batch_id = ?`, id); err != nil {
			return fmt.Errorf("unindex batch %d: %w", id, err)
		}
		return nil
	})
}

func (s *SQLite) queryBatches(ctx context.Context, q string, args ...any) ([]mutation.Batch, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("scan batches: %w", err)
	}
	defer rows.Close()

	var out []mutation.Batch
	for rows.Next() {
		var id int64
		batch, err := scanBatchWithID(&id, rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan batches: %w", err)
		}
		out = append(out, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan batches: %w", err)
	}
	return out, nil
}

// scanBatch reads one row's batch columns through the shared field decoder.
func scanBatch(id int64, scan func(dest ...any) error) (mutation.Batch, error) {
	var writeTime, base, muts string
	if err := scan(&writeTime, &base, &muts); err != nil {
		return mutation.Batch{}, err
	}
	return decodeBatchFields(id, map[string]string{
		fieldWriteTime: writeTime,
		fieldBase:      base,
		fieldMutations: muts,
	})
}

// scanBatchWithID is scanBatch for rows that also select batch_id.
func scanBatchWithID(id *int64, scan func(dest ...any) error) (mutation.Batch, error) {
	var writeTime, base, muts string
	if err := scan(id, &writeTime, &base, &muts); err != nil {
		return mutation.Batch{}, err
	}
	return decodeBatchFields(*id, map[string]string{
		fieldWriteTime: writeTime,
		fieldBase:      base,
		fieldMutations: muts,
	})
}
