package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereClause(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		filter     Filter
		wantClause string
		wantArgs   int
		wantOK     bool
	}{
		{
			name:       "empty filter",
			filter:     Filter{},
			wantClause: "1=1",
			wantArgs:   0,
			wantOK:     true,
		},
		{
			name:       "id only",
			filter:     Filter{IDField: id.String()},
			wantClause: "1=1 AND id = $1",
			wantArgs:   1,
			wantOK:     true,
		},
		{
			name:       "fields use containment",
			filter:     Filter{"hr_email": "owner@example.com", "status": "open"},
			wantClause: "1=1 AND doc @> $1::jsonb",
			wantArgs:   1,
			wantOK:     true,
		},
		{
			name:       "id and fields",
			filter:     Filter{IDField: id.String(), "jobId": "x"},
			wantClause: "1=1 AND id = $1 AND doc @> $2::jsonb",
			wantArgs:   2,
			wantOK:     true,
		},
		{
			name:   "malformed id never matches",
			filter: Filter{IDField: "not-a-uuid"},
			wantOK: false,
		},
		{
			name:   "non-string id never matches",
			filter: Filter{IDField: 42},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args, ok, err := whereClause(tt.filter, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantClause, clause)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestWhereClause_ArgOffset(t *testing.T) {
	clause, args, ok, err := whereClause(Filter{"status": "pending"}, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1=1 AND doc @> $3::jsonb", clause)
	assert.JSONEq(t, `{"status":"pending"}`, string(args[0].([]byte)))
}

func TestCollection_Name(t *testing.T) {
	database := &DB{}
	c := database.Collection(CollectionApplications)
	assert.Equal(t, CollectionApplications, c.Name())
	assert.Equal(t, `"applications"`, c.table)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://nobody@127.0.0.1:1/none?connect_timeout=1")
	assert.Error(t, err)
}
