// Package redisclient caches the latest fluctuation report and guards
// pipeline runs with a distributed lock so two workers never execute a
// run concurrently.
package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"industry-pulse/internal/models"
)

const (
	latestReportKey = "report:latest"
	runLockKey      = "lock:pipeline-run"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CacheReport stores the latest report with a TTL
func (c *Client) CacheReport(ctx context.Context, report *models.FluctuationReport, ttl time.Duration) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := c.rdb.Set(ctx, latestReportKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// LatestReport returns the cached report, or nil on a cache miss
func (c *Client) LatestReport(ctx context.Context) (*models.FluctuationReport, error) {
	payload, err := c.rdb.Get(ctx, latestReportKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached report: %w", err)
	}

	var report models.FluctuationReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}
	return &report, nil
}

// AcquireRunLock acquires the pipeline run lock. The TTL bounds how
// long a crashed worker can keep other runs blocked.
func (c *Client) AcquireRunLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, runLockKey, "1", ttl).Result()
}

// ReleaseRunLock releases the pipeline run lock
func (c *Client) ReleaseRunLock(ctx context.Context) error {
	return c.rdb.Del(ctx, runLockKey).Err()
}
