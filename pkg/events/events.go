// Package events defines event types and structures for planning lifecycle
// notifications.
package events

import (
	"time"
)

type EventType string

// Topic is the event stream all planning lifecycle events are published to.
const Topic = "planweave.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// PlanAcceptedEvent fires when a candidate passed the full pipeline and
	// the workflow was persisted.
	PlanAcceptedEvent EventType = "plan.accepted"

	// PlanRejectedEvent fires when a candidate finished the pipeline with
	// residual defects.
	PlanRejectedEvent EventType = "plan.rejected"

	// WorkflowCreatedEvent fires when a validated workflow becomes available
	// to downstream consumers (execution engine, editor).
	WorkflowCreatedEvent EventType = "workflow.created"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// PlanAccepted carries the outcome of a successful planning session.
type PlanAccepted struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	NodeCount  int    `json:"node_count"`
	Cached     bool   `json:"cached,omitempty"`
}

func (p PlanAccepted) GetType() EventType {
	return PlanAcceptedEvent
}

// PlanRejected carries the defect list of a failed planning session.
type PlanRejected struct {
	BaseEvent

	Prompt  string   `json:"prompt"`
	Defects []string `json:"defects"`
}

func (p PlanRejected) GetType() EventType {
	return PlanRejectedEvent
}

// WorkflowCreated announces a newly persisted workflow.
type WorkflowCreated struct {
	BaseEvent

	WorkflowID   string `json:"workflow_id"`
	WorkflowName string `json:"workflow_name"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}
