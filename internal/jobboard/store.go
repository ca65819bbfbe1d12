// Package jobboard implements ownership-scoped queries over jobs and
// applications held in a document store.
package jobboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/career-code/internal/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Collection is the document-store contract the services consume.
// FindOne returns nil, nil when nothing matches.
type Collection interface {
	FindMany(ctx context.Context, filter db.Filter, projection []string) ([]db.Document, error)
	FindOne(ctx context.Context, filter db.Filter) (db.Document, error)
	InsertOne(ctx context.Context, doc db.Document) (string, error)
	UpdateOne(ctx context.Context, filter db.Filter, set db.Document) (db.UpdateResult, error)
	CountDocuments(ctx context.Context, filter db.Filter) (int64, error)
}

// BatchFinder is implemented by collections that can fetch many documents
// by identifier in one round-trip.
type BatchFinder interface {
	FindManyByIDs(ctx context.Context, ids []string) ([]db.Document, error)
}

// GroupCounter is implemented by collections that can count documents
// grouped by a field in one round-trip.
type GroupCounter interface {
	CountBy(ctx context.Context, field string, values []string) (map[string]int64, error)
}

// DefaultFanOut bounds concurrent store calls when a collection offers no
// batch capability.
const DefaultFanOut = 8

// Policy holds the configurable authorization and concurrency settings
type Policy struct {
	// RequireOwnerOnCreate makes job creation require hr_email == caller
	RequireOwnerOnCreate bool
	// RequireOwnerOnStatusUpdate makes status changes require the caller to
	// own the job the application targets
	RequireOwnerOnStatusUpdate bool
	// FanOut bounds concurrent per-item store calls; 0 means DefaultFanOut
	FanOut int
}

func (p Policy) fanOut() int {
	if p.FanOut <= 0 {
		return DefaultFanOut
	}
	return p.FanOut
}

var tracer = otel.Tracer("github.com/jonathan/career-code/internal/jobboard")

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// validationError converts validator output into ErrValidation, keeping
// the first failing field
func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: fmt.Sprintf("failed on '%s'", ve.Tag())}
	}
	return &ErrValidation{Field: "(root)", Message: err.Error()}
}
