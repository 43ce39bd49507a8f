package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrConflict matches every *ConflictError.
	ErrConflict = errors.New("conflict error")
	// ErrConstruction matches every *ConstructionError.
	ErrConstruction = errors.New("construction error")
)

// ValidationError means a name, an extends target, or a constructor was
// rejected. The registry is unchanged.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid component definition %q: %s", e.Name, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError means the name or the constructor is already registered.
type ConflictError struct {
	Name   string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("component definition %q conflicts: %s", e.Name, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ConstructionError is fatal for the node it names. Err carries the
// application's own failure when there was one.
type ConstructionError struct {
	Name   string
	NodeID string
	Reason string
	Err    error
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("construct %q", e.Name)
	if e.NodeID != "" {
		msg += fmt.Sprintf(" (node %s)", e.NodeID)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

func (e *ConstructionError) Unwrap() error { return e.Err }
