package models

import "time"

// Event types
const (
	EventTypeOrderGenerated = "ORDER_GENERATED"
	EventTypeFeedIngested   = "FEED_INGESTED"
	EventTypeRunRequested   = "RUN_REQUESTED"
	EventTypeRunCompleted   = "RUN_COMPLETED"
	EventTypeRunFailed      = "RUN_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderGeneratedEvent published for every synthetic order the generator emits
type OrderGeneratedEvent struct {
	BaseEvent
	Order Order `json:"order"`
}

// FeedIngestedEvent published after a source feed is materialized in the store
type FeedIngestedEvent struct {
	BaseEvent
	Feed string `json:"feed"`
	Rows int    `json:"rows"`
}

// RunRequestedEvent asks the worker to execute an analytics run
type RunRequestedEvent struct {
	BaseEvent
	RequestedBy string `json:"requested_by,omitempty"`
}

// RunCompletedEvent published when an analytics run finishes and its
// report has been persisted
type RunCompletedEvent struct {
	BaseEvent
	RunID            string                `json:"run_id"`
	ReferenceInstant time.Time             `json:"reference_instant"`
	Rows             []IndustryFluctuation `json:"rows"`
}

// RunFailedEvent published when an analytics run aborts
type RunFailedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}
