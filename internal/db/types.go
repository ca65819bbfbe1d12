package db

import (
	"encoding/json"
	"fmt"
)

// IDField is the document key that carries the store-assigned identifier.
const IDField = "_id"

// Collection names
const (
	CollectionJobs         = "jobs"
	CollectionApplications = "applications"
)

// Document is a schema-less record. IDField is always a string.
type Document map[string]any

// ID returns the document identifier, or "" when unset.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// String returns a string field, or "" when the field is missing or not a string.
func (d Document) String(field string) string {
	v, _ := d[field].(string)
	return v
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Project returns a copy containing only IDField and the given fields.
// A nil projection returns the full document.
func (d Document) Project(fields []string) Document {
	if fields == nil {
		return d.Clone()
	}
	out := make(Document, len(fields)+1)
	if id, ok := d[IDField]; ok {
		out[IDField] = id
	}
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Decode converts the document into a typed value through its JSON form.
func (d Document) Decode(v any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// Encode converts a typed value into a Document through its JSON form.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode value into document: %w", err)
	}
	return doc, nil
}

// Filter matches documents whose fields equal every given value.
// An empty filter matches all documents.
type Filter map[string]any

// Matches reports whether the document satisfies the filter.
func (f Filter) Matches(d Document) bool {
	for field, want := range f {
		got, ok := d[field]
		if !ok || !equalValues(got, want) {
			return false
		}
	}
	return true
}

// UpdateResult reports the outcome of UpdateOne.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

func equalValues(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ra) == string(rb)
}
