package services

import "fmt"

// Workflow error taxonomy. Controllers map these to HTTP codes with
// errors.As; nothing below ever carries partial-write state because every
// transition runs in a single transaction.

// NotFoundError means a referenced entity or approval row is absent.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// UnauthorizedError means the actor lacks the role or relationship
// required for the action, regardless of entity state.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return e.Reason
}

// InvalidStateError means the actor is authorized in general but the
// entity is not in the status this action requires ("not your turn",
// "already decided").
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

// ValidationError means structurally invalid input, caught before any
// mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ConflictError means the entity changed under us between load and
// update. The caller should retry the whole transition.
type ConflictError struct {
	Entity string
	ID     int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently, retry", e.Entity, e.ID)
}

func notFound(entity string, id int) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func unauthorized(format string, args ...interface{}) error {
	return &UnauthorizedError{Reason: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...interface{}) error {
	return &InvalidStateError{Reason: fmt.Sprintf(format, args...)}
}

func validationFailed(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
