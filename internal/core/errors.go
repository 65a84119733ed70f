package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is matched by every not-found failure. A row that exists under
// another owner is reported the same way as a row that does not exist.
var ErrNotFound = errors.New("not found")

// Field-level messages.
const (
	MsgRequired  = "This field is required."
	MsgNull      = "This field may not be null."
	MsgBlank     = "This field may not be blank."
	MsgInvalid   = "Invalid value."
	MsgTooLong   = "Ensure this field has no more than %d characters."
	MsgNotNumber = "A valid number is required."
	MsgDatetime  = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z], YYYY-MM-DD."
	MsgUUID      = "Must be a valid UUID."
)

// NotFoundError reports a missing or foreign entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError carries per-field messages for the caller to correct.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError holding one message.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add appends msg to the messages of field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns e, or nil when no field failed.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AsValidation extracts a ValidationError from err's chain.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
