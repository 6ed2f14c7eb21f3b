// Package service coordinates the analytics workflow: ingesting source
// feeds into the store, executing pipeline runs, and serving the
// resulting reports from cache or store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"industry-pulse/internal/ingest"
	"industry-pulse/internal/models"
	"industry-pulse/internal/pipeline"
	"industry-pulse/internal/store"
	"industry-pulse/internal/util"
)

// ErrRunInProgress is returned when another worker already holds the
// run lock.
var ErrRunInProgress = errors.New("an analytics run is already in progress")

// FeedStore is the store surface the service needs
type FeedStore interface {
	ReplaceOrderFeed(ctx context.Context, feed string, orders []models.Order) error
	ReplaceCustomers(ctx context.Context, customers []models.Customer) error
	LoadOrderFeed(ctx context.Context, feed string) ([]models.Order, error)
	LoadCustomers(ctx context.Context) ([]models.Customer, error)
	SaveReport(ctx context.Context, report *models.FluctuationReport) error
	LatestReport(ctx context.Context) (*models.FluctuationReport, error)
	GetReport(ctx context.Context, runID string) (*models.FluctuationReport, error)
}

// ReportCache caches reports and serializes runs
type ReportCache interface {
	CacheReport(ctx context.Context, report *models.FluctuationReport, ttl time.Duration) error
	LatestReport(ctx context.Context) (*models.FluctuationReport, error)
	AcquireRunLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context) error
}

// EventPublisher publishes run lifecycle events
type EventPublisher interface {
	PublishFeedIngested(ctx context.Context, event *models.FeedIngestedEvent) error
	PublishRunRequested(ctx context.Context, event *models.RunRequestedEvent) error
	PublishRunCompleted(ctx context.Context, event *models.RunCompletedEvent) error
	PublishRunFailed(ctx context.Context, event *models.RunFailedEvent) error
}

// FeedPaths locates the source feed files for an ingest
type FeedPaths struct {
	Historical string
	Recent     string
	Customers  string
}

// AnalyticsService orchestrates feed ingestion and pipeline runs
type AnalyticsService struct {
	store    FeedStore
	cache    ReportCache
	events   EventPublisher
	pipeline *pipeline.Pipeline
	cacheTTL time.Duration
	lockTTL  time.Duration
	logger   *zap.Logger
}

// NewAnalyticsService creates an analytics service. Cache and events
// are optional; a nil cache disables run locking and report caching.
func NewAnalyticsService(
	feedStore FeedStore,
	cache ReportCache,
	events EventPublisher,
	p *pipeline.Pipeline,
	cacheTTL time.Duration,
	lockTTL time.Duration,
) *AnalyticsService {
	return &AnalyticsService{
		store:    feedStore,
		cache:    cache,
		events:   events,
		pipeline: p,
		cacheTTL: cacheTTL,
		lockTTL:  lockTTL,
		logger:   util.NamedLogger("analytics"),
	}
}

// IngestFeeds reads the source files and materializes them in the
// store, overwriting any previous capture. A malformed row in any feed
// aborts the whole ingest.
func (s *AnalyticsService) IngestFeeds(ctx context.Context, paths FeedPaths) error {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.IngestFeeds")
	defer span.End()

	historical, err := ingest.ReadOrdersFile(paths.Historical, store.FeedHistorical)
	if err != nil {
		return fmt.Errorf("ingest historical orders: %w", err)
	}
	recent, err := ingest.ReadOrdersFile(paths.Recent, store.FeedRecent)
	if err != nil {
		return fmt.Errorf("ingest recent orders: %w", err)
	}
	customers, err := ingest.ReadCustomersFile(paths.Customers)
	if err != nil {
		return fmt.Errorf("ingest customers: %w", err)
	}

	if err := s.store.ReplaceOrderFeed(ctx, store.FeedHistorical, historical); err != nil {
		return err
	}
	if err := s.store.ReplaceOrderFeed(ctx, store.FeedRecent, recent); err != nil {
		return err
	}
	if err := s.store.ReplaceCustomers(ctx, customers); err != nil {
		return err
	}

	for feed, rows := range map[string]int{
		store.FeedHistorical: len(historical),
		store.FeedRecent:     len(recent),
		"customers":          len(customers),
	} {
		util.FeedRowsIngestedTotal.WithLabelValues(feed).Add(float64(rows))
		s.publishFeedIngested(ctx, feed, rows)
	}

	s.logger.Info("Feeds ingested",
		zap.Int("historical_orders", len(historical)),
		zap.Int("recent_orders", len(recent)),
		zap.Int("customers", len(customers)))
	return nil
}

// RunAnalytics loads the stored feeds, executes a pipeline run, and
// persists, caches and announces the report. Only one run executes at
// a time across all workers.
func (s *AnalyticsService) RunAnalytics(ctx context.Context) (*models.FluctuationReport, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.RunAnalytics")
	defer span.End()

	if s.cache != nil {
		acquired, err := s.cache.AcquireRunLock(ctx, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !acquired {
			return nil, ErrRunInProgress
		}
		defer func() {
			if err := s.cache.ReleaseRunLock(ctx); err != nil {
				s.logger.Error("Failed to release run lock", zap.Error(err))
			}
		}()
	}

	report, err := s.execute(ctx)
	if err != nil {
		s.publishRunFailed(ctx, err)
		return nil, err
	}

	if err := s.store.SaveReport(ctx, report); err != nil {
		s.publishRunFailed(ctx, err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheReport(ctx, report, s.cacheTTL); err != nil {
			// the store copy is authoritative
			s.logger.Warn("Failed to cache report", zap.Error(err))
		}
	}

	if s.events != nil {
		event := &models.RunCompletedEvent{
			BaseEvent:        newBaseEvent(models.EventTypeRunCompleted),
			RunID:            report.RunID,
			ReferenceInstant: report.ReferenceInstant,
			Rows:             report.Rows,
		}
		if err := s.events.PublishRunCompleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish RunCompleted event", zap.Error(err))
		}
	}

	return report, nil
}

func (s *AnalyticsService) execute(ctx context.Context) (*models.FluctuationReport, error) {
	historical, err := s.store.LoadOrderFeed(ctx, store.FeedHistorical)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.LoadOrderFeed(ctx, store.FeedRecent)
	if err != nil {
		return nil, err
	}
	customers, err := s.store.LoadCustomers(ctx)
	if err != nil {
		return nil, err
	}

	return s.pipeline.Run(ctx, pipeline.Inputs{
		Historical: historical,
		Recent:     recent,
		Customers:  customers,
	})
}

// RequestRun asks a worker to execute a run asynchronously by
// publishing a RunRequested event. Returns the event id for tracking.
func (s *AnalyticsService) RequestRun(ctx context.Context, requestedBy string) (string, error) {
	if s.events == nil {
		return "", fmt.Errorf("event publishing is not configured")
	}
	event := &models.RunRequestedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeRunRequested),
		RequestedBy: requestedBy,
	}
	if err := s.events.PublishRunRequested(ctx, event); err != nil {
		return "", fmt.Errorf("publish run request: %w", err)
	}
	return event.EventID, nil
}

// GetReport serves one report by run id
func (s *AnalyticsService) GetReport(ctx context.Context, runID string) (*models.FluctuationReport, error) {
	return s.store.GetReport(ctx, runID)
}

// LatestReport serves the most recent report, preferring the cache and
// falling back to the store. Returns nil when no run has completed.
func (s *AnalyticsService) LatestReport(ctx context.Context) (*models.FluctuationReport, error) {
	if s.cache != nil {
		report, err := s.cache.LatestReport(ctx)
		if err != nil {
			s.logger.Warn("Report cache lookup failed", zap.Error(err))
		} else if report != nil {
			return report, nil
		}
	}

	report, err := s.store.LatestReport(ctx)
	if err != nil || report == nil {
		return report, err
	}

	if s.cache != nil {
		if err := s.cache.CacheReport(ctx, report, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to re-cache report", zap.Error(err))
		}
	}
	return report, nil
}

func (s *AnalyticsService) publishFeedIngested(ctx context.Context, feed string, rows int) {
	if s.events == nil {
		return
	}
	event := &models.FeedIngestedEvent{
		BaseEvent: newBaseEvent(models.EventTypeFeedIngested),
		Feed:      feed,
		Rows:      rows,
	}
	if err := s.events.PublishFeedIngested(ctx, event); err != nil {
		s.logger.Error("Failed to publish FeedIngested event", zap.Error(err))
	}
}

func (s *AnalyticsService) publishRunFailed(ctx context.Context, runErr error) {
	if s.events == nil {
		return
	}
	event := &models.RunFailedEvent{
		BaseEvent: newBaseEvent(models.EventTypeRunFailed),
		Reason:    runErr.Error(),
	}
	if err := s.events.PublishRunFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish RunFailed event", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}
