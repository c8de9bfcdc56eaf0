package collindex

import (
	"context"
	"fmt"

	"github.com/laminadb/lamina/internal/db/sqlite"
	"github.com/laminadb/lamina/internal/domain/path"
)

// SQLite is the durable index over the embedded database.
type SQLite struct {
	db *sqlite.DB
}

// NewSQLite creates a sqlite-backed collection-parent index.
func NewSQLite(db *sqlite.DB) *SQLite {
	return &SQLite{db: db}
}

// AddToCollectionParentIndex records the parent of collectionPath under
// its collection id.
func (s *SQLite) AddToCollectionParentIndex(ctx context.Context, collectionPath path.ResourcePath) error {
	id, parent, err := splitCollectionPath(collectionPath)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO collection_parents (collection_id, parent) VALUES (?, ?)
		 ON CONFLICT (collection_id, parent) DO NOTHING`, id, parent); err != nil {
		return fmt.Errorf("index collection %s: %w", collectionPath, err)
	}
	return nil
}

// CollectionParents returns the sorted parent paths recorded for
// collectionID.
func (s *SQLite) CollectionParents(ctx context.Context, collectionID string) ([]path.ResourcePath, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT parent FROM collection_parents WHERE collection_id = ? ORDER BY parent`,
		collectionID)
	if err != nil {
		return nil, fmt.Errorf("parents of %s: %w", collectionID, err)
	}
	defer rows.Close()

	var raw []string
	for rows.Next() {
		var parent string
		if err := rows.Scan(&parent); err != nil {
			return nil, fmt.Errorf("parents of %s: %w", collectionID, err)
		}
		raw = append(raw, parent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("parents of %s: %w", collectionID, err)
	}
	return parseParents(collectionID, raw)
}
