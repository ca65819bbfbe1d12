package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// -----------------------------------------------------------------------------
// PostgresCollection
// -----------------------------------------------------------------------------

// PostgresCollection stores documents as JSONB rows. The row id is the
// document identifier and seq preserves insertion order.
type PostgresCollection struct {
	pool  *pgxpool.Pool
	name  string
	table string
}

// Name returns the collection name
func (c *PostgresCollection) Name() string {
	return c.name
}

// whereClause translates a Filter into SQL. ok is false when the filter can
// never match (a malformed identifier), so callers can skip the round-trip.
func whereClause(filter Filter, argStart int) (clause string, args []any, ok bool, err error) {
	conds := []string{"1=1"}
	argNum := argStart
	contains := make(map[string]any, len(filter))

	for field, value := range filter {
		if field != IDField {
			contains[field] = value
			continue
		}
		idStr, isStr := value.(string)
		if !isStr {
			return "", nil, false, nil
		}
		id, parseErr := uuid.Parse(idStr)
		if parseErr != nil {
			return "", nil, false, nil
		}
		conds = append(conds, fmt.Sprintf("id = $%d", argNum))
		args = append(args, id)
		argNum++
	}

	if len(contains) > 0 {
		raw, marshalErr := json.Marshal(contains)
		if marshalErr != nil {
			return "", nil, false, fmt.Errorf("failed to marshal filter: %w", marshalErr)
		}
		conds = append(conds, fmt.Sprintf("doc @> $%d::jsonb", argNum))
		args = append(args, raw)
	}

	return strings.Join(conds, " AND "), args, true, nil
}

func scanDocuments(rows pgx.Rows, projection []string) ([]Document, error) {
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var id uuid.UUID
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
		}
		if doc == nil {
			doc = Document{}
		}
		doc[IDField] = id.String()
		docs = append(docs, doc.Project(projection))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// FindMany returns every document matching filter in insertion order.
// A nil projection returns whole documents.
func (c *PostgresCollection) FindMany(ctx context.Context, filter Filter, projection []string) ([]Document, error) {
	where, args, ok, err := whereClause(filter, 1)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Document{}, nil
	}

	rows, err := c.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, doc FROM %s WHERE %s ORDER BY seq ASC`, c.table, where),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", c.name, err)
	}
	return scanDocuments(rows, projection)
}

// FindOne returns the first matching document, or nil when none match
func (c *PostgresCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	where, args, ok, err := whereClause(filter, 1)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var id uuid.UUID
	var raw []byte
	err = c.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, doc FROM %s WHERE %s ORDER BY seq ASC LIMIT 1`, c.table, where),
		args...,
	).Scan(&id, &raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find one in %s: %w", c.name, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
	}
	if doc == nil {
		doc = Document{}
	}
	doc[IDField] = id.String()
	return doc, nil
}

// InsertOne stores the document and returns its assigned identifier.
// Any caller-supplied IDField is ignored.
func (c *PostgresCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	body := doc.Clone()
	delete(body, IDField)

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	var id uuid.UUID
	err = c.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (doc) VALUES ($1) RETURNING id`, c.table),
		raw,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return id.String(), nil
}

// UpdateOne merges set into the first document matching filter
func (c *PostgresCollection) UpdateOne(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	body := set.Clone()
	delete(body, IDField)

	raw, err := json.Marshal(body)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to marshal update: %w", err)
	}

	where, args, ok, err := whereClause(filter, 2)
	if err != nil {
		return UpdateResult{}, err
	}
	if !ok {
		return UpdateResult{}, nil
	}

	query := fmt.Sprintf(
		`WITH target AS (
		     SELECT id, doc FROM %[1]s WHERE %[2]s ORDER BY seq ASC LIMIT 1
		 ), updated AS (
		     UPDATE %[1]s t SET doc = t.doc || $1::jsonb, updated_at = NOW()
		     FROM target
		     WHERE t.id = target.id AND NOT (target.doc @> $1::jsonb)
		     RETURNING t.id
		 )
		 SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM updated)`,
		c.table, where,
	)

	var result UpdateResult
	err = c.pool.QueryRow(ctx, query, append([]any{raw}, args...)...).
		Scan(&result.MatchedCount, &result.ModifiedCount)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to update %s: %w", c.name, err)
	}
	return result, nil
}

// CountDocuments returns the number of documents matching filter
func (c *PostgresCollection) CountDocuments(ctx context.Context, filter Filter) (int64, error) {
	where, args, ok, err := whereClause(filter, 1)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	var count int64
	err = c.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, c.table, where),
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.name, err)
	}
	return count, nil
}

// FindManyByIDs returns the documents with the given identifiers in one
// round-trip. Malformed and unknown identifiers are skipped.
func (c *PostgresCollection) FindManyByIDs(ctx context.Context, ids []string) ([]Document, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		parsed = append(parsed, id)
	}
	if len(parsed) == 0 {
		return []Document{}, nil
	}

	rows, err := c.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, doc FROM %s WHERE id = ANY($1) ORDER BY seq ASC`, c.table),
		parsed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s by ids: %w", c.name, err)
	}
	return scanDocuments(rows, nil)
}

// CountBy groups documents whose string field equals one of values and
// returns the count per value. Values with no documents are absent.
func (c *PostgresCollection) CountBy(ctx context.Context, field string, values []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(values))
	if len(values) == 0 {
		return counts, nil
	}

	rows, err := c.pool.Query(ctx,
		fmt.Sprintf(`SELECT doc->>$1, count(*) FROM %s WHERE doc->>$1 = ANY($2) GROUP BY 1`, c.table),
		field, values,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by %s: %w", c.name, field, err)
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		var count int64
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[value] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}
	return counts, nil
}
