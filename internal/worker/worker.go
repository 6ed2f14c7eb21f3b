package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"industry-pulse/internal/broker"
	"industry-pulse/internal/models"
	"industry-pulse/internal/service"
	"industry-pulse/internal/util"
)

// RunWorker executes analytics runs requested over the event topic
type RunWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	analytics    *service.AnalyticsService
	logger       *zap.Logger
}

// NewRunWorker creates a new run worker
func NewRunWorker(consumer *broker.Consumer, analytics *service.AnalyticsService) *RunWorker {
	w := &RunWorker{
		consumer:  consumer,
		analytics: analytics,
		logger:    util.NamedLogger("worker"),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnRunRequested(w.handleRunRequested)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *RunWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting run worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *RunWorker) Stop() error {
	w.logger.Info("Stopping run worker")
	return w.consumer.Close()
}

func (w *RunWorker) handleRunRequested(ctx context.Context, event *models.RunRequestedEvent) error {
	w.logger.Info("Run requested",
		zap.String("event_id", event.EventID),
		zap.String("requested_by", event.RequestedBy))

	report, err := w.analytics.RunAnalytics(ctx)
	if errors.Is(err, service.ErrRunInProgress) {
		// another worker already picked this up, drop the request
		w.logger.Info("Run already in progress, skipping request",
			zap.String("event_id", event.EventID))
		return nil
	}
	if err != nil {
		return err
	}

	w.logger.Info("Run completed",
		zap.String("run_id", report.RunID),
		zap.Int("rows", len(report.Rows)))
	return nil
}
