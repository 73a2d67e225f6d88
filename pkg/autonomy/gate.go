package autonomy

import (
	"context"
	"log/slog"

	"github.com/maestrohq/maestro/pkg/models"
)

// Handler is the human-facing approval surface. Implementations show the
// deliverable to an approver and report the decision.
type Handler interface {
	OnCheckpoint(ctx context.Context, workerName, phase string, deliverable any) (bool, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, workerName, phase string, deliverable any) (bool, error)

func (f HandlerFunc) OnCheckpoint(ctx context.Context, workerName, phase string, deliverable any) (bool, error) {
	return f(ctx, workerName, phase, deliverable)
}

// Gate decides whether a phase may proceed. It consults the autonomy policy
// first; when the policy requires approval it defers to the handler. A nil
// handler auto-approves.
type Gate struct {
	level   models.AutonomyLevel
	handler Handler
	logger  *slog.Logger
}

func NewGate(level models.AutonomyLevel, handler Handler, logger *slog.Logger) *Gate {
	return &Gate{level: level, handler: handler, logger: logger}
}

// Confirm returns true when the phase is approved (or ungated). A rejection
// is an expected outcome, not an error; the error return is reserved for
// handler faults.
func (g *Gate) Confirm(ctx context.Context, workerName, phase string, deliverable any) (bool, error) {
	if !ShouldCheckpoint(g.level, phase) {
		return true, nil
	}

	if g.handler == nil {
		g.logger.Debug("No checkpoint handler configured, auto-approving", "phase", phase)

		return true, nil
	}

	approved, err := g.handler.OnCheckpoint(ctx, workerName, phase, deliverable)
	if err != nil {
		return false, err
	}

	if !approved {
		g.logger.Info("Checkpoint rejected", "worker", workerName, "phase", phase)
	}

	return approved, nil
}

// StoreHandler is a Handler that submits checkpoints to a Store and blocks
// until a human approves or rejects them through the API surface.
type StoreHandler struct {
	store *Store
}

func NewStoreHandler(store *Store) *StoreHandler {
	return &StoreHandler{store: store}
}

func (h *StoreHandler) OnCheckpoint(ctx context.Context, workerName, phase string, deliverable any) (bool, error) {
	cp, err := h.store.Create(deliverable, workerName, phase)
	if err != nil {
		return false, err
	}

	status, err := h.store.Wait(ctx, cp.ID)
	if err != nil {
		return false, err
	}

	return status == models.CheckpointApproved, nil
}
