package autonomy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maestrohq/maestro/pkg/models"
)

var (
	// ErrCheckpointNotFound is returned for operations on an unknown id.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrCheckpointResolved is returned when approving or rejecting a
	// checkpoint that has already left pending status. A checkpoint
	// transitions exactly once.
	ErrCheckpointResolved = errors.New("checkpoint already resolved")

	// ErrCheckpointExists is returned when submitting a duplicate id while
	// the original is still pending.
	ErrCheckpointExists = errors.New("checkpoint id already pending")
)

// Store holds checkpoints and lets callers block until one is resolved.
// Each pending checkpoint owns a one-shot channel that Approve/Reject close
// exactly once; Wait selects on that channel and the caller's context.
type Store struct {
	mu          sync.Mutex
	checkpoints map[string]*models.Checkpoint
	waiters     map[string]chan struct{}
}

func NewStore() *Store {
	return &Store{
		checkpoints: make(map[string]*models.Checkpoint),
		waiters:     make(map[string]chan struct{}),
	}
}

// Submit registers a checkpoint in pending status under a caller-supplied
// id.
func (s *Store) Submit(id string, deliverable any, workerName, phase string) (*models.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.checkpoints[id]; ok && existing.Status == models.CheckpointPending {
		return nil, fmt.Errorf("%w: '%s'", ErrCheckpointExists, id)
	}

	cp := &models.Checkpoint{
		ID:          id,
		WorkerName:  workerName,
		Phase:       phase,
		Deliverable: deliverable,
		Status:      models.CheckpointPending,
		CreatedAt:   time.Now().UTC(),
	}

	s.checkpoints[id] = cp
	s.waiters[id] = make(chan struct{})

	return cp, nil
}

// Create is Submit with a generated id.
func (s *Store) Create(deliverable any, workerName, phase string) (*models.Checkpoint, error) {
	return s.Submit(uuid.New().String(), deliverable, workerName, phase)
}

// Approve transitions a pending checkpoint to approved.
func (s *Store) Approve(id string) error {
	return s.resolve(id, models.CheckpointApproved, "")
}

// Reject transitions a pending checkpoint to rejected with a reason.
func (s *Store) Reject(id, reason string) error {
	return s.resolve(id, models.CheckpointRejected, reason)
}

func (s *Store) resolve(id string, status models.CheckpointStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.checkpoints[id]
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrCheckpointNotFound, id)
	}

	if cp.Status != models.CheckpointPending {
		return fmt.Errorf("%w: '%s' is %s", ErrCheckpointResolved, id, cp.Status)
	}

	now := time.Now().UTC()
	cp.Status = status
	cp.RejectionReason = reason
	cp.ResolvedAt = &now

	if waiter, ok := s.waiters[id]; ok {
		close(waiter)
		delete(s.waiters, id)
	}

	return nil
}

// Wait blocks until the checkpoint leaves pending status or ctx is done.
// Manual resolution can take arbitrarily long, so callers wanting a bound
// pass a deadline on ctx. Returns the final status.
func (s *Store) Wait(ctx context.Context, id string) (models.CheckpointStatus, error) {
	s.mu.Lock()
	cp, ok := s.checkpoints[id]
	if !ok {
		s.mu.Unlock()

		return "", fmt.Errorf("%w: '%s'", ErrCheckpointNotFound, id)
	}

	if cp.Status != models.CheckpointPending {
		status := cp.Status
		s.mu.Unlock()

		return status, nil
	}

	waiter := s.waiters[id]
	s.mu.Unlock()

	select {
	case <-waiter:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	s.mu.Lock()
	cp, ok = s.checkpoints[id]
	s.mu.Unlock()

	if !ok {
		// Cleared while waiting.
		return "", fmt.Errorf("%w: '%s'", ErrCheckpointNotFound, id)
	}

	return cp.Status, nil
}

// Get returns the checkpoint with the given id.
func (s *Store) Get(id string) (*models.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.checkpoints[id]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrCheckpointNotFound, id)
	}

	clone := *cp

	return &clone, nil
}

// ListPending returns all checkpoints still awaiting resolution.
func (s *Store) ListPending() []*models.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*models.Checkpoint

	for _, cp := range s.checkpoints {
		if cp.Status == models.CheckpointPending {
			clone := *cp
			pending = append(pending, &clone)
		}
	}

	return pending
}

// Clear removes every checkpoint and releases any waiters.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, waiter := range s.waiters {
		close(waiter)
		delete(s.waiters, id)
	}

	s.checkpoints = make(map[string]*models.Checkpoint)
}
