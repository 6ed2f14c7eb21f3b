package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"industry-pulse/internal/models"
	"industry-pulse/internal/pipeline"
	"industry-pulse/internal/store"
)

type fakeStore struct {
	feeds     map[string][]models.Order
	customers []models.Customer
	saved     []*models.FluctuationReport
	loadErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{feeds: make(map[string][]models.Order)}
}

func (f *fakeStore) ReplaceOrderFeed(_ context.Context, feed string, orders []models.Order) error {
	f.feeds[feed] = orders
	return nil
}

func (f *fakeStore) ReplaceCustomers(_ context.Context, customers []models.Customer) error {
	f.customers = customers
	return nil
}

func (f *fakeStore) LoadOrderFeed(_ context.Context, feed string) ([]models.Order, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.feeds[feed], nil
}

func (f *fakeStore) LoadCustomers(context.Context) ([]models.Customer, error) {
	return f.customers, nil
}

func (f *fakeStore) SaveReport(_ context.Context, report *models.FluctuationReport) error {
	f.saved = append(f.saved, report)
	return nil
}

func (f *fakeStore) LatestReport(context.Context) (*models.FluctuationReport, error) {
	if len(f.saved) == 0 {
		return nil, nil
	}
	return f.saved[len(f.saved)-1], nil
}

func (f *fakeStore) GetReport(_ context.Context, runID string) (*models.FluctuationReport, error) {
	for _, r := range f.saved {
		if r.RunID == runID {
			return r, nil
		}
	}
	return nil, errors.New("report not found: " + runID)
}

type fakeCache struct {
	cached   *models.FluctuationReport
	locked   bool
	released int
}

func (f *fakeCache) CacheReport(_ context.Context, report *models.FluctuationReport, _ time.Duration) error {
	f.cached = report
	return nil
}

func (f *fakeCache) LatestReport(context.Context) (*models.FluctuationReport, error) {
	return f.cached, nil
}

func (f *fakeCache) AcquireRunLock(context.Context, time.Duration) (bool, error) {
	if f.locked {
		return false, nil
	}
	f.locked = true
	return true, nil
}

func (f *fakeCache) ReleaseRunLock(context.Context) error {
	f.locked = false
	f.released++
	return nil
}

type fakePublisher struct {
	completed []*models.RunCompletedEvent
	failed    []*models.RunFailedEvent
	ingested  []*models.FeedIngestedEvent
	requested []*models.RunRequestedEvent
}

func (f *fakePublisher) PublishRunRequested(_ context.Context, e *models.RunRequestedEvent) error {
	f.requested = append(f.requested, e)
	return nil
}

func (f *fakePublisher) PublishFeedIngested(_ context.Context, e *models.FeedIngestedEvent) error {
	f.ingested = append(f.ingested, e)
	return nil
}

func (f *fakePublisher) PublishRunCompleted(_ context.Context, e *models.RunCompletedEvent) error {
	f.completed = append(f.completed, e)
	return nil
}

func (f *fakePublisher) PublishRunFailed(_ context.Context, e *models.RunFailedEvent) error {
	f.failed = append(f.failed, e)
	return nil
}

func seededStore(ref time.Time) *fakeStore {
	fs := newFakeStore()
	fs.feeds[store.FeedRecent] = []models.Order{
		{OrderID: "o-1", CustomerID: "c-1", Amount: decimal.NewFromInt(100), Timestamp: ref},
	}
	fs.customers = []models.Customer{
		{CustomerID: "c-1", CompanyName: "Acme", SpecializedIndustries: []string{"Tech"}},
	}
	return fs
}

func TestRunAnalytics_PersistsCachesAndAnnounces(t *testing.T) {
	ref := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
	fs := seededStore(ref)
	cache := &fakeCache{}
	events := &fakePublisher{}

	svc := NewAnalyticsService(fs, cache, events, pipeline.New(pipeline.Options{}), time.Hour, time.Minute)

	report, err := svc.RunAnalytics(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "Tech", report.Rows[0].SpecializedIndustry)

	require.Len(t, fs.saved, 1)
	assert.Equal(t, report.RunID, fs.saved[0].RunID)
	require.NotNil(t, cache.cached)
	assert.Equal(t, report.RunID, cache.cached.RunID)
	require.Len(t, events.completed, 1)
	assert.Equal(t, report.RunID, events.completed[0].RunID)
	assert.Equal(t, 1, cache.released)
}

func TestRunAnalytics_LockContention(t *testing.T) {
	ref := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
	cache := &fakeCache{locked: true}

	svc := NewAnalyticsService(seededStore(ref), cache, &fakePublisher{}, pipeline.New(pipeline.Options{}), time.Hour, time.Minute)

	_, err := svc.RunAnalytics(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestRunAnalytics_FailurePublishesRunFailed(t *testing.T) {
	fs := newFakeStore()
	fs.loadErr = errors.New("database unavailable")
	events := &fakePublisher{}

	svc := NewAnalyticsService(fs, &fakeCache{}, events, pipeline.New(pipeline.Options{}), time.Hour, time.Minute)

	_, err := svc.RunAnalytics(context.Background())
	require.Error(t, err)
	require.Len(t, events.failed, 1)
	assert.Contains(t, events.failed[0].Reason, "database unavailable")
	assert.Empty(t, fs.saved)
}

func TestLatestReport_PrefersCacheThenStore(t *testing.T) {
	fs := newFakeStore()
	cache := &fakeCache{}
	svc := NewAnalyticsService(fs, cache, nil, pipeline.New(pipeline.Options{}), time.Hour, time.Minute)

	// nothing anywhere
	report, err := svc.LatestReport(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report)

	// store only: served and re-cached
	stored := &models.FluctuationReport{RunID: "run-1", GeneratedAt: time.Now().UTC()}
	fs.saved = append(fs.saved, stored)

	report, err = svc.LatestReport(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "run-1", report.RunID)
	require.NotNil(t, cache.cached)
	assert.Equal(t, "run-1", cache.cached.RunID)

	// cache hit wins
	cache.cached = &models.FluctuationReport{RunID: "run-2"}
	report, err = svc.LatestReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-2", report.RunID)
}

func TestRequestRun_PublishesRunRequested(t *testing.T) {
	events := &fakePublisher{}
	svc := NewAnalyticsService(newFakeStore(), nil, events, pipeline.New(pipeline.Options{}), time.Hour, time.Minute)

	eventID, err := svc.RequestRun(context.Background(), "scheduler")
	require.NoError(t, err)
	assert.NotEmpty(t, eventID)
	require.Len(t, events.requested, 1)
	assert.Equal(t, "scheduler", events.requested[0].RequestedBy)
}
