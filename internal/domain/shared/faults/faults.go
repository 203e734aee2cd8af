// Package faults defines the domain error taxonomy shared by every
// component. Each fault carries a stable machine-readable code, an HTTP
// status, and human-readable text; internal storage detail never leaves
// this boundary.
package faults

import (
	"errors"
	"fmt"
	"net/http"
)

type ConflictType string

const (
	ConflictDoubleBooking    ConflictType = "double_booking"
	ConflictInventoryOverlap ConflictType = "inventory_overlap"
)

// ValidationError covers malformed or missing input. Status defaults to
// 422; window-span misuse on the range index uses 400.
type ValidationError struct {
	Msg    string
	Status int
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Code() string { return "validation_error" }

func (e *ValidationError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusUnprocessableEntity
}

func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func BadWindow(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...), Status: http.StatusBadRequest}
}

// ConflictError reports an inventory overlap; it always carries the
// classified conflict type.
type ConflictError struct {
	Type ConflictType
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("requested range conflicts with existing inventory (%s)", e.Type)
}

func (e *ConflictError) Code() string { return string(e.Type) }

func (e *ConflictError) HTTPStatus() int { return http.StatusConflict }

// NotFoundError hides whether the entity exists in another tenant.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Code() string { return "not_found" }

func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// StateTransitionError reports an invalid lifecycle move.
type StateTransitionError struct {
	Current   string
	Requested string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.Current, e.Requested)
}

func (e *StateTransitionError) Code() string { return "invalid_state_transition" }

func (e *StateTransitionError) HTTPStatus() int { return http.StatusConflict }

// UnavailableError wraps a transient storage failure; the caller may
// retry with backoff.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return "storage temporarily unavailable" }

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Code() string { return "storage_unavailable" }

func (e *UnavailableError) HTTPStatus() int { return http.StatusServiceUnavailable }

// IdempotencyConflictError reports a replayed key with a differing payload.
type IdempotencyConflictError struct {
	Key string
}

func (e *IdempotencyConflictError) Error() string {
	return "idempotency key was already used with a different payload"
}

func (e *IdempotencyConflictError) Code() string { return "idempotency_conflict" }

func (e *IdempotencyConflictError) HTTPStatus() int { return http.StatusConflict }

// Fault is satisfied by every error in the taxonomy.
type Fault interface {
	error
	Code() string
	HTTPStatus() int
}

// As extracts a taxonomy fault from an error chain.
func As(err error) (Fault, bool) {
	var f Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
