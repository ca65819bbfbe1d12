// Package db provides document-collection storage for jobs and applications,
// backed by PostgreSQL JSONB tables or an in-memory implementation.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping verifies the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

const collectionSchemaSQL = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	seq BIGSERIAL NOT NULL,
	doc JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s USING GIN (doc jsonb_path_ops);
`

// EnsureSchema creates the tables backing the jobs and applications collections
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, name := range []string{CollectionJobs, CollectionApplications} {
		table := pgx.Identifier{name}.Sanitize()
		index := pgx.Identifier{name + "_doc_idx"}.Sanitize()
		if _, err := db.pool.Exec(ctx, fmt.Sprintf(collectionSchemaSQL, table, index)); err != nil {
			return fmt.Errorf("failed to ensure %s schema: %w", name, err)
		}
	}
	return nil
}

// Collection returns a handle to the named collection
func (db *DB) Collection(name string) *PostgresCollection {
	return &PostgresCollection{
		pool:  db.pool,
		name:  name,
		table: pgx.Identifier{name}.Sanitize(),
	}
}
