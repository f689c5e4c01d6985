// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/recipemap/recipemap/pkg/persistence"
)

// Business Logic Errors.
var (
	// Validation Errors.
	ErrInvalidRequest              = errors.New("invalid request")
	ErrInvalidDefaultValue         = errors.New("default value does not match field type")
	ErrOrphanProcessNode           = errors.New("process node has no predecessor and no successor")
	ErrUnknownPredecessorReference = errors.New("predecessor references a node outside the request")
	ErrProcessCycle                = errors.New("process nodes form a cycle")
	ErrTemplateNotInMap            = errors.New("template does not belong to the map template")
	ErrInheritedFieldNotFound      = errors.New("inherited field not found")

	// Business Logic Conflicts.
	ErrAlreadyOverridden    = errors.New("template is already overridden")
	ErrBlacklistViolation   = errors.New("connection is blacklisted")
	ErrTemplateAccessExists = errors.New("template already assigned to agent")

	// Integrity Faults. The stored data itself is inconsistent.
	ErrBrokenVersionChain   = errors.New("version chain references a missing template")
	ErrVersionCycleDetected = errors.New("version chain contains a cycle")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ProcessNodeError reports a rejected node of an instantiation request.
type ProcessNodeError struct {
	Op            string
	NodeID        string
	PredecessorID string // Empty when the fault is not about one edge
	Err           error
}

func (e *ProcessNodeError) Error() string {
	if e.PredecessorID == "" {
		return fmt.Sprintf("%s: node %s: %v", e.Op, e.NodeID, e.Err)
	}

	return fmt.Sprintf("%s: node %s <- %s: %v", e.Op, e.NodeID, e.PredecessorID, e.Err)
}

func (e *ProcessNodeError) Unwrap() error {
	return e.Err
}

// TemplateError reports a fault tied to one recipe template.
type TemplateError struct {
	Op         string
	TemplateID string
	Err        error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s: template %s: %v", e.Op, e.TemplateID, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// InheritedFieldError reports an inheritance reference that does not resolve.
type InheritedFieldError struct {
	TemplateID      string
	FlowIdentifier  string
	FieldIdentifier string
	Err             error
}

func (e *InheritedFieldError) Error() string {
	return fmt.Sprintf("inherited field %s.%s in template %s: %v",
		e.FlowIdentifier, e.FieldIdentifier, e.TemplateID, e.Err)
}

func (e *InheritedFieldError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is caused by the request itself.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidDefaultValue) ||
		errors.Is(err, ErrOrphanProcessNode) ||
		errors.Is(err, ErrUnknownPredecessorReference) ||
		errors.Is(err, ErrProcessCycle) ||
		errors.Is(err, ErrTemplateNotInMap) ||
		errors.Is(err, ErrInheritedFieldNotFound)
}

// IsConflictError checks if an error is a business logic conflict with stored state.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyOverridden) ||
		errors.Is(err, ErrBlacklistViolation) ||
		errors.Is(err, ErrTemplateAccessExists) ||
		persistence.IsDuplicateKey(err) ||
		persistence.IsSerializationFailure(err)
}

// IsNotFound checks if an error reports a missing record.
func IsNotFound(err error) bool {
	return persistence.IsNotFound(err)
}

// IsIntegrityError checks if an error reports corrupted stored data.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrBrokenVersionChain) ||
		errors.Is(err, ErrVersionCycleDetected)
}
