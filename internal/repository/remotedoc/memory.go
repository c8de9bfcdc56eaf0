// Package remotedoc implements the remote document cache: the last-known
// server-confirmed state of each document, keyed by path and stamped with
// the read time at which the cache last confirmed it.
package remotedoc

import (
	"context"
	"fmt"
	"sync"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
)

// Memory is the in-process cache implementation. Every read returns an
// independent clone, so callers may mutate results freely.
type Memory struct {
	mu   sync.RWMutex
	docs map[path.DocumentKey]*document.Document
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{docs: make(map[path.DocumentKey]*document.Document)}
}

// Get returns the cached document for key, invalid when absent.
func (m *Memory) Get(_ context.Context, key path.DocumentKey) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if doc, ok := m.docs[key]; ok {
		return doc.Clone(), nil
	}
	return document.NewInvalid(key), nil
}

// GetAll returns an entry for every requested key, invalid for misses.
func (m *Memory) GetAll(_ context.Context, keys []path.DocumentKey) (map[path.DocumentKey]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[path.DocumentKey]*document.Document, len(keys))
	for _, key := range keys {
		if doc, ok := m.docs[key]; ok {
			out[key] = doc.Clone()
		} else {
			out[key] = document.NewInvalid(key)
		}
	}
	return out, nil
}

// GetMatching returns the found documents directly inside the query's
// collection whose read time is strictly after sinceReadTime.
func (m *Memory) GetMatching(
	_ context.Context, q query.Query, sinceReadTime domain.SnapshotVersion,
) (map[path.DocumentKey]*document.Document, error) {
	if err := validateMatchingQuery(q); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[path.DocumentKey]*document.Document)
	for key, doc := range m.docs {
		if !q.Path().IsImmediateParentOf(key.Path()) {
			continue
		}
		if !doc.ReadTime().After(sinceReadTime) {
			continue
		}
		if !doc.IsFound() {
			continue
		}
		out[key] = doc.Clone()
	}
	return out, nil
}

// Add upserts doc at readTime. The cache keeps its own clone.
func (m *Memory) Add(_ context.Context, doc *document.Document, readTime domain.SnapshotVersion) error {
	if err := validateAdd(doc, readTime); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[doc.Key()] = doc.Clone().SetReadTime(readTime)
	return nil
}

// Remove drops the cache entry for key, if any.
func (m *Memory) Remove(_ context.Context, key path.DocumentKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, key)
	return nil
}

func validateMatchingQuery(q query.Query) error {
	if q.IsCollectionGroupQuery() {
		return domain.NewInvalidQuery(q.String(), "remote cache cannot serve collection group queries")
	}
	if q.Path().Len()%2 == 0 {
		return domain.NewInvalidQuery(q.String(), "GetMatching requires a collection path")
	}
	return nil
}

func validateAdd(doc *document.Document, readTime domain.SnapshotVersion) error {
	if !doc.IsValid() {
		return fmt.Errorf("cannot cache invalid document %s", doc.Key())
	}
	if readTime.IsNone() {
		return fmt.Errorf("cannot cache document %s without a read time", doc.Key())
	}
	return nil
}
