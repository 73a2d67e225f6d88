package autonomy

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/pkg/models"
)

func TestStore_SubmitAndGet(t *testing.T) {
	store := NewStore()

	cp, err := store.Submit("cp-1", map[string]any{"draft": "spec"}, "designer", "design_spec_approval")
	require.NoError(t, err)
	assert.Equal(t, models.CheckpointPending, cp.Status)
	assert.False(t, cp.CreatedAt.IsZero())

	got, err := store.Get("cp-1")
	require.NoError(t, err)
	assert.Equal(t, "designer", got.WorkerName)
	assert.Equal(t, "design_spec_approval", got.Phase)
}

func TestStore_DuplicatePendingID(t *testing.T) {
	store := NewStore()

	_, err := store.Submit("cp-1", nil, "", "deliverable")
	require.NoError(t, err)

	_, err = store.Submit("cp-1", nil, "", "deliverable")
	assert.ErrorIs(t, err, ErrCheckpointExists)
}

func TestStore_ApproveTransitionsOnce(t *testing.T) {
	store := NewStore()

	_, err := store.Submit("cp-1", nil, "", "deliverable")
	require.NoError(t, err)

	require.NoError(t, store.Approve("cp-1"))

	got, err := store.Get("cp-1")
	require.NoError(t, err)
	assert.Equal(t, models.CheckpointApproved, got.Status)
	require.NotNil(t, got.ResolvedAt)

	// A second resolution of either kind is rejected.
	assert.ErrorIs(t, store.Approve("cp-1"), ErrCheckpointResolved)
	assert.ErrorIs(t, store.Reject("cp-1", "too late"), ErrCheckpointResolved)
}

func TestStore_RejectRecordsReason(t *testing.T) {
	store := NewStore()

	_, err := store.Submit("cp-1", nil, "writer", "pre_render")
	require.NoError(t, err)

	require.NoError(t, store.Reject("cp-1", "layout is wrong"))

	got, err := store.Get("cp-1")
	require.NoError(t, err)
	assert.Equal(t, models.CheckpointRejected, got.Status)
	assert.Equal(t, "layout is wrong", got.RejectionReason)
}

func TestStore_UnknownID(t *testing.T) {
	store := NewStore()

	assert.ErrorIs(t, store.Approve("nope"), ErrCheckpointNotFound)
	assert.ErrorIs(t, store.Reject("nope", ""), ErrCheckpointNotFound)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)

	_, err = store.Wait(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestStore_WaitBlocksUntilResolution(t *testing.T) {
	store := NewStore()

	_, err := store.Submit("cp-1", nil, "", "deliverable")
	require.NoError(t, err)

	done := make(chan models.CheckpointStatus, 1)

	go func() {
		status, waitErr := store.Wait(context.Background(), "cp-1")
		if waitErr == nil {
			done <- status
		}
	}()

	// Give the waiter a moment to park before resolving.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, store.Approve("cp-1"))

	select {
	case status := <-done:
		assert.Equal(t, models.CheckpointApproved, status)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after approval")
	}
}

func TestStore_WaitHonorsContext(t *testing.T) {
	store := NewStore()

	_, err := store.Submit("cp-1", nil, "", "deliverable")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = store.Wait(ctx, "cp-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStore_WaitOnAlreadyResolved(t *testing.T) {
	store := NewStore()

	_, err := store.Submit("cp-1", nil, "", "deliverable")
	require.NoError(t, err)
	require.NoError(t, store.Reject("cp-1", "no"))

	status, err := store.Wait(context.Background(), "cp-1")
	require.NoError(t, err)
	assert.Equal(t, models.CheckpointRejected, status)
}

func TestStore_ListPending(t *testing.T) {
	store := NewStore()

	_, err := store.Submit("cp-1", nil, "", "deliverable")
	require.NoError(t, err)
	_, err = store.Submit("cp-2", nil, "", "pre_render")
	require.NoError(t, err)

	require.NoError(t, store.Approve("cp-1"))

	pending := store.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, "cp-2", pending[0].ID)
}

func TestGate_AutonomousSkipsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	called := false
	handler := HandlerFunc(func(_ context.Context, _, _ string, _ any) (bool, error) {
		called = true

		return false, nil
	})

	gate := NewGate(models.AutonomyAutonomous, handler, logger)

	approved, err := gate.Confirm(context.Background(), "worker", "deliverable", nil)
	require.NoError(t, err)
	assert.True(t, approved)
	assert.False(t, called)
}

func TestGate_NilHandlerAutoApproves(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	gate := NewGate(models.AutonomyManual, nil, logger)

	approved, err := gate.Confirm(context.Background(), "worker", "internal_step", nil)
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestGate_HandlerDecides(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	handler := HandlerFunc(func(_ context.Context, _, phase string, _ any) (bool, error) {
		return phase != "pre_render", nil
	})

	gate := NewGate(models.AutonomySemiSupervised, handler, logger)

	approved, err := gate.Confirm(context.Background(), "worker", "deliverable", "doc")
	require.NoError(t, err)
	assert.True(t, approved)

	approved, err = gate.Confirm(context.Background(), "worker", "pre_render", "doc")
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestStoreHandler_ApproveFlow(t *testing.T) {
	store := NewStore()
	handler := NewStoreHandler(store)

	result := make(chan bool, 1)

	go func() {
		approved, err := handler.OnCheckpoint(context.Background(), "designer", "design_spec_approval", "spec v1")
		if err == nil {
			result <- approved
		}
	}()

	// Poll for the submitted checkpoint, then approve it as an operator
	// would through the API.
	var pendingID string

	require.Eventually(t, func() bool {
		pending := store.ListPending()
		if len(pending) == 1 {
			pendingID = pending[0].ID

			return true
		}

		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, store.Approve(pendingID))

	select {
	case approved := <-result:
		assert.True(t, approved)
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after approval")
	}
}
