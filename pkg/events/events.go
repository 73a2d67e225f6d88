// Package events defines event types for pipeline and project lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/maestrohq/maestro/pkg/models"
)

type EventType string

// Topics.
const PipelineTopic = "maestro.pipeline.events"
const ProjectTopic = "maestro.project.events"

const EventKeyMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Pipeline lifecycle events.
	PipelineStartedEvent  EventType = "pipeline.started"
	PipelineFinishedEvent EventType = "pipeline.finished"

	// Node lifecycle events.
	NodeStartedEvent  EventType = "node.started"
	NodeFinishedEvent EventType = "node.finished"
	NodeFailedEvent   EventType = "node.failed"
	NodeSkippedEvent  EventType = "node.skipped"

	// Project orchestration events. These mirror the streaming event
	// sequence one orchestrator run produces.
	ProjectStartEvent    EventType = "project_start"
	PhaseStartEvent      EventType = "phase_start"
	PhaseCompleteEvent   EventType = "phase_complete"
	TaskAssignedEvent    EventType = "task_assigned"
	TaskCompleteEvent    EventType = "task_complete"
	TaskErrorEvent       EventType = "task_error"
	ProjectCompleteEvent EventType = "project_complete"
	ProjectErrorEvent    EventType = "error"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	PipelineName string         `json:"pipeline_name,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, pipelineName string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		PipelineName: pipelineName,
		Metadata:     make(map[string]any),
	}
}

type PipelineStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeCount   int    `json:"node_count"`
}

func (p PipelineStarted) GetType() EventType {
	return PipelineStartedEvent
}

type PipelineFinished struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Success     bool   `json:"success"`
	DurationMs  int64  `json:"duration_ms"`
}

func (p PipelineFinished) GetType() EventType {
	return PipelineFinishedEvent
}

type NodeStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	Attempt     int    `json:"attempt"`
}

func (n NodeStarted) GetType() EventType {
	return NodeStartedEvent
}

type NodeFinished struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	NodeID      string            `json:"node_id"`
	Result      models.NodeResult `json:"result"`
}

func (n NodeFinished) GetType() EventType {
	return NodeFinishedEvent
}

type NodeFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	Error       string `json:"error"`
	Attempts    int    `json:"attempts"`
}

func (n NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

type NodeSkipped struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	FailedDep   string `json:"failed_dependency"`
}

func (n NodeSkipped) GetType() EventType {
	return NodeSkippedEvent
}

// ProjectEvent is one entry in the ordered, finite, non-restartable event
// sequence of an orchestrator run. Each event is independently serializable,
// which makes the sequence suitable for server-sent-events transport.
type ProjectEvent struct {
	Type     EventType      `json:"type"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (p ProjectEvent) GetType() EventType {
	return p.Type
}
