package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Matches(t *testing.T) {
	doc := Document{
		IDField:        "abc",
		"applicant":    "a@x.com",
		"jobId":        "42",
		"requirements": []any{"go", "sql"},
	}

	tests := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{"empty filter", Filter{}, true},
		{"single field", Filter{"applicant": "a@x.com"}, true},
		{"two fields", Filter{"applicant": "a@x.com", "jobId": "42"}, true},
		{"case sensitive", Filter{"applicant": "A@x.com"}, false},
		{"missing field", Filter{"status": "pending"}, false},
		{"number vs string", Filter{"jobId": 42}, false},
		{"slice equality", Filter{"requirements": []string{"go", "sql"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Matches(doc))
		})
	}
}

func TestDocument_EncodeDecode(t *testing.T) {
	type sample struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}

	doc, err := Encode(sample{Title: "Engineer", Tags: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, "Engineer", doc.String("title"))

	var out sample
	require.NoError(t, doc.Decode(&out))
	assert.Equal(t, []string{"go"}, out.Tags)
}

func TestDocument_Project(t *testing.T) {
	doc := Document{IDField: "1", "title": "t", "hr_email": "a@x.com"}

	assert.Equal(t, Document{IDField: "1", "title": "t"}, doc.Project([]string{"title", "missing"}))
	assert.Equal(t, doc, doc.Project(nil))
}
