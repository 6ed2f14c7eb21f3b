package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"industry-pulse/internal/models"
	"industry-pulse/internal/util"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderGenerated publishes an OrderGenerated event
func (ep *EventPublisher) PublishOrderGenerated(ctx context.Context, event *models.OrderGeneratedEvent) error {
	key := fmt.Sprintf("order-%s", event.Order.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishFeedIngested publishes a FeedIngested event
func (ep *EventPublisher) PublishFeedIngested(ctx context.Context, event *models.FeedIngestedEvent) error {
	key := fmt.Sprintf("feed-%s", event.Feed)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishRunRequested publishes a RunRequested event
func (ep *EventPublisher) PublishRunRequested(ctx context.Context, event *models.RunRequestedEvent) error {
	return ep.producer.PublishEvent(ctx, "run-requested", event)
}

// PublishRunCompleted publishes a RunCompleted event
func (ep *EventPublisher) PublishRunCompleted(ctx context.Context, event *models.RunCompletedEvent) error {
	key := fmt.Sprintf("run-%s", event.RunID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishRunFailed publishes a RunFailed event
func (ep *EventPublisher) PublishRunFailed(ctx context.Context, event *models.RunFailedEvent) error {
	return ep.producer.PublishEvent(ctx, "run-failed", event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onRunRequested func(context.Context, *models.RunRequestedEvent) error
	logger         *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.NamedLogger("broker")}
}

// OnRunRequested registers a handler for RunRequested events
func (eh *EventHandler) OnRunRequested(handler func(context.Context, *models.RunRequestedEvent) error) {
	eh.onRunRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeRunRequested:
		if eh.onRunRequested != nil {
			var event models.RunRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal RunRequested event: %w", err)
			}
			return eh.onRunRequested(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
