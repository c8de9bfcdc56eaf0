package remotedoc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/laminadb/lamina/internal/db/sqlite"
	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
)

// SQLite is the durable cache over the embedded database.
type SQLite struct {
	db *sqlite.DB
}

// NewSQLite creates a sqlite-backed document cache.
func NewSQLite(db *sqlite.DB) *SQLite {
	return &SQLite{db: db}
}

// Get returns the cached document for key, invalid when absent.
func (s *SQLite) Get(ctx context.Context, key path.DocumentKey) (*document.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT doc_type, version_us, read_time_us, has_committed, data
		 FROM remote_documents WHERE path = ?`, key.String())

	doc, err := scanDocument(key, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return document.NewInvalid(key), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", key, err)
	}
	return doc, nil
}

// GetAll returns an entry for every requested key, invalid for misses.
func (s *SQLite) GetAll(ctx context.Context, keys []path.DocumentKey) (map[path.DocumentKey]*document.Document, error) {
	out := make(map[path.DocumentKey]*document.Document, len(keys))
	for _, key := range keys {
		doc, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[key] = doc
	}
	return out, nil
}

// GetMatching selects the collection's documents confirmed strictly after
// sinceReadTime via the (collection, read_time_us) index.
func (s *SQLite) GetMatching(
	ctx context.Context, q query.Query, sinceReadTime domain.SnapshotVersion,
) (map[path.DocumentKey]*document.Document, error) {
	if err := validateMatchingQuery(q); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, doc_type, version_us, read_time_us, has_committed, data
		 FROM remote_documents WHERE collection = ? AND read_time_us > ?`,
		q.Path().String(), sinceReadTime.Micros())
	if err != nil {
		return nil, fmt.Errorf("scan collection %s: %w", q.Path(), err)
	}
	defer rows.Close()

	out := make(map[path.DocumentKey]*document.Document)
	for rows.Next() {
		var (
			rawPath, data         string
			docType, hasCommitted int
			versionUS, readTimeUS int64
		)
		if err := rows.Scan(&rawPath, &docType, &versionUS, &readTimeUS, &hasCommitted, &data); err != nil {
			return nil, fmt.Errorf("scan collection %s: %w", q.Path(), err)
		}
		key, err := path.ParseDocumentKey(rawPath)
		if err != nil {
			return nil, fmt.Errorf("scan collection %s: %w", q.Path(), err)
		}
		doc, err := decodeDocFields(key, map[string]string{
			fieldType:      strconv.Itoa(docType),
			fieldVersion:   strconv.FormatInt(versionUS, 10),
			fieldReadTime:  strconv.FormatInt(readTimeUS, 10),
			fieldCommitted: strconv.Itoa(hasCommitted),
			fieldData:      data,
		})
		if err != nil {
			return nil, fmt.Errorf("scan collection %s: %w", q.Path(), err)
		}
		if doc.IsFound() {
			out[key] = doc
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan collection %s: %w", q.Path(), err)
	}
	return out, nil
}

// Add upserts doc at readTime.
func (s *SQLite) Add(ctx context.Context, doc *document.Document, readTime domain.SnapshotVersion) error {
	if err := validateAdd(doc, readTime); err != nil {
		return err
	}
	fields, err := encodeDocFields(doc, readTime)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO remote_documents (path, collection, doc_type, version_us, read_time_us, has_committed, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET
			doc_type = excluded.doc_type,
			version_us = excluded.version_us,
			read_time_us = excluded.read_time_us,
			has_committed = excluded.has_committed,
			data = excluded.data`,
		doc.Key().String(), doc.Key().CollectionPath().String(),
		fields[fieldType], fields[fieldVersion], fields[fieldReadTime],
		fields[fieldCommitted], fields[fieldData])
	if err != nil {
		return fmt.Errorf("add document %s: %w", doc.Key(), err)
	}
	return nil
}

// Remove drops the cache row for key, if any.
func (s *SQLite) Remove(ctx context.Context, key path.DocumentKey) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM remote_documents WHERE path = ?`, key.String()); err != nil {
		return fmt.Errorf("remove document %s: %w", key, err)
	}
	return nil
}

// scanDocument reads one row's document columns through the shared field
// decoder, so every backend agrees on the encoding.
func scanDocument(key path.DocumentKey, scan func(dest ...any) error) (*document.Document, error) {
	var (
		docType, hasCommitted int
		versionUS, readTimeUS int64
		data                  string
	)
	if err := scan(&docType, &versionUS, &readTimeUS, &hasCommitted, &data); err != nil {
		return nil, err
	}

	return decodeDocFields(key, map[string]string{
		fieldType:      strconv.Itoa(docType),
		fieldVersion:   strconv.FormatInt(versionUS, 10),
		fieldReadTime:  strconv.FormatInt(readTimeUS, 10),
		fieldCommitted: strconv.Itoa(hasCommitted),
		fieldData:      data,
	})
}
