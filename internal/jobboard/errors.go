package jobboard

import (
	"fmt"

	"github.com/jonathan/career-code/internal/access"
)

// ErrForbidden indicates the caller's identity does not own the requested scope
type ErrForbidden struct {
	Claimed   string
	Requested string
	Reason    access.Reason
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s may not access resources of %s (%s)", e.Claimed, e.Requested, e.Reason)
}

// ErrNotFound indicates no record exists for an identifier
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ErrInvalidIdentifier indicates a malformed identifier was supplied
type ErrInvalidIdentifier struct {
	Kind string
	ID   string
}

func (e *ErrInvalidIdentifier) Error() string {
	return fmt.Sprintf("invalid %s id: %q", e.Kind, e.ID)
}

// ErrDataIntegrity indicates an application references a job that does not exist
type ErrDataIntegrity struct {
	ApplicationID string
	JobID         string
}

func (e *ErrDataIntegrity) Error() string {
	return fmt.Sprintf("application %s references missing job %s", e.ApplicationID, e.JobID)
}

// ErrUpstreamUnavailable wraps a failure of the document store
type ErrUpstreamUnavailable struct {
	Op  string
	Err error
}

func (e *ErrUpstreamUnavailable) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *ErrUpstreamUnavailable) Unwrap() error {
	return e.Err
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func upstream(op string, err error) error {
	return &ErrUpstreamUnavailable{Op: op, Err: err}
}
