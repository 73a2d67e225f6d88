package workers

import (
	"context"
	"fmt"

	"github.com/maestrohq/maestro/pkg/models"
)

// RunFunc adapts a plain function to the Worker interface.
type RunFunc func(ctx context.Context, prompt string) (string, error)

// CallableWorker wraps a function as a worker. Used for placeholders and in
// tests, where a live model client would be overkill.
type CallableWorker struct {
	name string
	fn   RunFunc
}

func NewCallableWorker(name string, fn RunFunc) *CallableWorker {
	return &CallableWorker{name: name, fn: fn}
}

func (w *CallableWorker) Name() string {
	return w.name
}

func (w *CallableWorker) Run(ctx context.Context, prompt string) (string, error) {
	return w.fn(ctx, prompt)
}

// RegisterEchoWorkers binds every role to a worker that echoes its prompt.
// Useful for dry runs without a model provider.
func RegisterEchoWorkers(r *Registry) {
	for _, role := range models.Roles() {
		role := role
		r.Register(role, func(name string) (Worker, error) {
			return NewCallableWorker(name, func(_ context.Context, prompt string) (string, error) {
				return fmt.Sprintf("[%s] %s", role, prompt), nil
			}), nil
		})
	}
}
