package db

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryCollection is an in-process, insertion-ordered collection used by
// tests and the --memory development mode.
type MemoryCollection struct {
	mu   sync.RWMutex
	name string
	docs []Document
	byID map[string]int
}

// NewMemoryCollection creates an empty collection
func NewMemoryCollection(name string) *MemoryCollection {
	return &MemoryCollection{
		name: name,
		byID: make(map[string]int),
	}
}

// Name returns the collection name
func (c *MemoryCollection) Name() string {
	return c.name
}

// FindMany returns every document matching filter in insertion order
func (c *MemoryCollection) FindMany(_ context.Context, filter Filter, projection []string) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []Document{}
	for _, d := range c.docs {
		if filter.Matches(d) {
			out = append(out, d.Project(projection))
		}
	}
	return out, nil
}

// FindOne returns the first matching document, or nil when none match
func (c *MemoryCollection) FindOne(_ context.Context, filter Filter) (Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.docs {
		if filter.Matches(d) {
			return d.Clone(), nil
		}
	}
	return nil, nil
}

// InsertOne stores a copy of doc under a fresh identifier
func (c *MemoryCollection) InsertOne(_ context.Context, doc Document) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := doc.Clone()
	id := uuid.New().String()
	stored[IDField] = id
	c.byID[id] = len(c.docs)
	c.docs = append(c.docs, stored)
	return id, nil
}

// UpdateOne merges set into the first document matching filter
func (c *MemoryCollection) UpdateOne(_ context.Context, filter Filter, set Document) (UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, d := range c.docs {
		if !filter.Matches(d) {
			continue
		}
		result := UpdateResult{MatchedCount: 1}
		updated := d.Clone()
		for k, v := range set {
			if k == IDField {
				continue
			}
			if cur, ok := updated[k]; !ok || !equalValues(cur, v) {
				result.ModifiedCount = 1
			}
			updated[k] = v
		}
		c.docs[i] = updated
		return result, nil
	}
	return UpdateResult{}, nil
}

// CountDocuments returns the number of documents matching filter
func (c *MemoryCollection) CountDocuments(_ context.Context, filter Filter) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for _, d := range c.docs {
		if filter.Matches(d) {
			n++
		}
	}
	return n, nil
}

// FindManyByIDs returns the documents with the given identifiers in
// insertion order. Unknown identifiers are skipped.
func (c *MemoryCollection) FindManyByIDs(_ context.Context, ids []string) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		if i, ok := c.byID[id]; ok {
			want[i] = true
		}
	}
	out := []Document{}
	for i, d := range c.docs {
		if want[i] {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

// CountBy returns the number of documents per value of a string field
func (c *MemoryCollection) CountBy(_ context.Context, field string, values []string) (map[string]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	wanted := make(map[string]bool, len(values))
	for _, v := range values {
		wanted[v] = true
	}
	counts := make(map[string]int64, len(values))
	for _, d := range c.docs {
		if v := d.String(field); wanted[v] {
			counts[v]++
		}
	}
	return counts, nil
}
