package models

import "errors"

// Structural errors. These are fatal at build or validate time and are never
// retried.
var (
	// ErrDuplicateStep is returned when a step id is added twice to a plan.
	ErrDuplicateStep = errors.New("duplicate step id")

	// ErrMissingDependency is returned when a step depends on an id that does
	// not exist in the plan.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrCycle is returned when the dependency relation contains a cycle.
	ErrCycle = errors.New("dependency cycle detected")

	// ErrStepNotFound is returned when looking up a step id that is not in
	// the plan.
	ErrStepNotFound = errors.New("step not found")

	// ErrInvalidBound is returned when a step declares a negative retry_max
	// or timeout_seconds.
	ErrInvalidBound = errors.New("negative step bound")

	// ErrUnknownRole is returned at build time when no worker factory is
	// registered for a step's role.
	ErrUnknownRole = errors.New("unknown worker role")
)

// IsStructuralError reports whether err belongs to the build/validate-time
// error class that callers should surface as a bad request rather than an
// internal fault.
func IsStructuralError(err error) bool {
	return errors.Is(err, ErrDuplicateStep) ||
		errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrCycle) ||
		errors.Is(err, ErrStepNotFound) ||
		errors.Is(err, ErrInvalidBound) ||
		errors.Is(err, ErrUnknownRole)
}
