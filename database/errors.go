package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrAIResponseImmutable is returned when a caller edits or deletes an AI answer
var ErrAIResponseImmutable = errors.New("AI responses cannot be modified")

// DBError is a failed query together with the repository operation that ran it
type DBError struct {
	Operation string
	Err       error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *DBError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing forecast, review or comment
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// ValidationError reports a rejected request field
type ValidationError struct {
	Field  string
	Reason string
	Value  interface{}
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %s (got %v)", e.Field, e.Reason, e.Value)
}

// WrapDBError attaches the operation name. gorm.ErrRecordNotFound is left
// unwrapped so callers can still map it.
func WrapDBError(operation string, err error) error {
	if err == nil || err == gorm.ErrRecordNotFound {
		return err
	}
	return &DBError{Operation: operation, Err: err}
}

// NewNotFoundError creates a NotFoundError without an ID
func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

// NewNotFoundErrorWithID creates a NotFoundError for one record
func NewNotFoundErrorWithID(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidationError creates a ValidationError
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NewValidationErrorWithValue creates a ValidationError carrying the rejected value
func NewValidationErrorWithValue(field, reason string, value interface{}) error {
	return &ValidationError{Field: field, Reason: reason, Value: value}
}

// IsNotFound reports whether err is a NotFoundError or gorm.ErrRecordNotFound
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsValidation reports whether err wraps a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
