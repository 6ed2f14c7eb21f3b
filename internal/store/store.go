// Package store persists the source feeds and the run reports in
// Postgres. It is the tabular substrate boundary: the analytics
// pipeline only ever sees whole datasets loaded from here, never the
// database itself.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// EnsureSchema creates the feed and report tables if they do not exist
// yet. feed_orders deliberately carries no uniqueness constraint on
// order_id: overlapping captures are expected and reconciling them is
// the pipeline's job, not the store's.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS feed_orders (
			feed TEXT NOT NULL,
			order_id TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			order_lines JSONB NOT NULL DEFAULT '[]',
			amount NUMERIC NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS feed_orders_feed_idx ON feed_orders (feed)`,
		`CREATE TABLE IF NOT EXISTS customers (
			customer_id TEXT NOT NULL,
			company_name TEXT NOT NULL DEFAULT '',
			specialized_industries TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS fluctuation_reports (
			run_id TEXT PRIMARY KEY,
			reference_instant TIMESTAMPTZ,
			generated_at TIMESTAMPTZ NOT NULL,
			duplicate_orders INT NOT NULL,
			dropped_orders INT NOT NULL,
			report_rows JSONB NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
