package apperr

import (
	"errors"
	"fmt"
)

// ValidationError indicates a required field is missing or invalid.
// Surfaced to the caller immediately, never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// MissingField builds a ValidationError for an absent required field.
func MissingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "required field is missing"}
}

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
	}
	return fmt.Sprintf("%s not found", e.Entity)
}

// NotFound builds a NotFoundError.
func NotFound(entity, ref string) *NotFoundError {
	return &NotFoundError{Entity: entity, Ref: ref}
}

// ConflictError indicates a delete blocked by existing children.
// ChildCount is included so the caller can decide whether to cascade.
type ConflictError struct {
	Entity     string
	ChildCount int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s has %d children; delete with cascade to remove them", e.Entity, e.ChildCount)
}

// HasChildren builds a ConflictError for a blocked delete.
func HasChildren(entity string, count int) *ConflictError {
	return &ConflictError{Entity: entity, ChildCount: count}
}

// ExternalServiceError wraps a failure from the switcher gateway or
// another remote collaborator.
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// External wraps an error from a remote collaborator.
func External(service, op string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsExternal reports whether err is an ExternalServiceError.
func IsExternal(err error) bool {
	var target *ExternalServiceError
	return errors.As(err, &target)
}
