package models

import "time"

// CheckpointStatus is the lifecycle state of an approval checkpoint.
type CheckpointStatus string

const (
	CheckpointPending  CheckpointStatus = "pending"
	CheckpointApproved CheckpointStatus = "approved"
	CheckpointRejected CheckpointStatus = "rejected"
)

// Checkpoint is a named approval gate. It is created in pending status,
// transitions exactly once to approved or rejected, and is then retained for
// inspection but accepts no further transitions.
type Checkpoint struct {
	ID              string           `json:"id"`
	WorkerName      string           `json:"worker_name,omitempty"`
	Phase           string           `json:"phase,omitempty"`
	Deliverable     any              `json:"deliverable,omitempty"`
	Status          CheckpointStatus `json:"status"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
}
