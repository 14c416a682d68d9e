// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrIllegalState indicates an operation that the current state does not allow,
	// such as advancing an item that already reached its terminal stage
	ErrIllegalState = errors.New("illegal state")

	// ErrInterrupted indicates a blocking wait was cut short by cancellation
	ErrInterrupted = errors.New("interrupted")

	// ErrPlantRunning indicates the plant still has live workers
	ErrPlantRunning = errors.New("plant is running")

	// ErrPlantStopped indicates the plant is not running
	ErrPlantStopped = errors.New("plant is stopped")

	// ErrPlantClosed indicates the plant was already started and shut down
	ErrPlantClosed = errors.New("plant is closed")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Interrupted wraps cause so that it matches both ErrInterrupted and cause
func Interrupted(cause error) error {
	if cause == nil {
		return ErrInterrupted
	}
	return fmt.Errorf("%w: %w", ErrInterrupted, cause)
}

// IsInterrupted reports whether err stems from a cancelled wait
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted)
}

// PlantError represents an error raised while a plant works on an item
type PlantError struct {
	// Operation is the name of the operation where the error occurred
	Operation string

	// Worker is the id of the worker involved, or -1 when not applicable
	Worker int

	// Stage is the name of the item stage at the time of the error
	Stage string

	// Cause is the underlying error
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// Error implements the error interface
func (e *PlantError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("plant error in operation %s at stage %s: %v", e.Operation, e.Stage, e.Cause)
	}
	return fmt.Sprintf("plant error in operation %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error
func (e *PlantError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *PlantError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewPlantError creates a new plant error
func NewPlantError(operation, stage string, cause error) *PlantError {
	return &PlantError{
		Operation: operation,
		Worker:    -1,
		Stage:     stage,
		Cause:     cause,
		Context:   make(map[string]interface{}),
	}
}

// WithWorker records the worker id
func (e *PlantError) WithWorker(id int) *PlantError {
	e.Worker = id
	return e
}

// WithContext adds error context
func (e *PlantError) WithContext(key string, value interface{}) *PlantError {
	e.Context[key] = value
	return e
}
