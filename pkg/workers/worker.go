// Package workers defines the worker capability consumed by the execution
// engine and the role registry that resolves concrete workers.
package workers

import "context"

// Worker executes one unit of delegated work. Run blocks until the worker's
// external call completes or ctx is done; the engine applies deadlines and
// retries around it.
type Worker interface {
	Name() string
	Run(ctx context.Context, prompt string) (string, error)
}

// Factory creates a named worker instance. Factories are registered per role
// at startup; an unregistered role is a build-time error, not a runtime
// panic.
type Factory func(name string) (Worker, error)
