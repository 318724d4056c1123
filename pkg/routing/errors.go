package routing

import (
	"errors"
	"fmt"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrNoBackends is returned when a table is built from an empty
	// backend list.
	ErrNoBackends = errors.New("no backends configured")

	// ErrInvalidWeight is returned when a backend has a non-positive weight.
	ErrInvalidWeight = errors.New("invalid backend weight")

	// ErrNoHealthyBackends is returned when every backend in the weighted
	// pool is currently marked unhealthy.
	ErrNoHealthyBackends = errors.New("no healthy backends available")
)

// InvalidWeightError is returned when a backend is configured with a weight
// below 1. Weighted selection has no meaningful interpretation for zero or
// negative weights, so this is a fatal configuration error.
type InvalidWeightError struct {
	// Label is the offending backend's label.
	Label string

	// Weight is the rejected weight value.
	Weight int
}

// Error implements the error interface.
func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("backend %q has invalid weight %d, must be >= 1", e.Label, e.Weight)
}

// Is implements error matching for errors.Is().
func (e *InvalidWeightError) Is(target error) bool {
	return target == ErrInvalidWeight
}
