// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrMapTemplateNotFound indicates a map template was not found by the given identifier.
	ErrMapTemplateNotFound = errors.New("map template not found")

	// ErrTemplateNotFound indicates a recipe template was not found by the given identifier.
	ErrTemplateNotFound = errors.New("recipe template not found")

	// ErrFlowTemplateNotFound indicates a flow template was not found in its recipe template.
	ErrFlowTemplateNotFound = errors.New("flow template not found")

	// ErrDataFieldNotFound indicates a data field declaration was not found in its flow.
	ErrDataFieldNotFound = errors.New("data field not found")

	// ErrRecipeNotFound indicates a recipe was not found by the given identifier.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrDuplicateKey indicates a uniqueness constraint was violated.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrSerializationFailure indicates a concurrent transaction made this one unserializable.
	ErrSerializationFailure = errors.New("serialization failure")
)

// RecordError wraps storage errors with the table and key involved.
type RecordError struct {
	Op    string // Operation being performed (e.g., "GetByID", "Insert")
	Table string
	Key   string
	Err   error
}

func (e *RecordError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s operation failed on %s: %v", e.Op, e.Table, e.Err)
	}

	return fmt.Sprintf("%s operation failed on %s %s: %v", e.Op, e.Table, e.Key, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for record errors.
func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRecordError creates a new record error with context.
func NewRecordError(op, table, key string, err error) *RecordError {
	return &RecordError{
		Op:    op,
		Table: table,
		Key:   key,
		Err:   err,
	}
}

// IsTemplateNotFound checks if an error indicates a recipe template was not found.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsRecipeNotFound checks if an error indicates a recipe was not found.
func IsRecipeNotFound(err error) bool {
	return errors.Is(err, ErrRecipeNotFound)
}

// IsMapTemplateNotFound checks if an error indicates a map template was not found.
func IsMapTemplateNotFound(err error) bool {
	return errors.Is(err, ErrMapTemplateNotFound)
}

// IsNotFound checks if an error is any of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMapTemplateNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrFlowTemplateNotFound) ||
		errors.Is(err, ErrDataFieldNotFound) ||
		errors.Is(err, ErrRecipeNotFound)
}

// IsDuplicateKey checks if an error indicates a uniqueness violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsSerializationFailure checks if a transaction lost a serialization race.
func IsSerializationFailure(err error) bool {
	return errors.Is(err, ErrSerializationFailure)
}
