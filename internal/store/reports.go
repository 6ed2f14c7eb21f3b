package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"industry-pulse/internal/models"
)

type reportRow struct {
	RunID            string       `db:"run_id"`
	ReferenceInstant sql.NullTime `db:"reference_instant"`
	GeneratedAt      time.Time    `db:"generated_at"`
	DuplicateOrders  int          `db:"duplicate_orders"`
	DroppedOrders    int          `db:"dropped_orders"`
	ReportRows       []byte       `db:"report_rows"`
}

// SaveReport persists a completed run's report. Reports are only ever
// written whole: an aborted run never reaches this point.
func (s *Store) SaveReport(ctx context.Context, report *models.FluctuationReport) error {
	rows, err := json.Marshal(report.Rows)
	if err != nil {
		return fmt.Errorf("failed to marshal report rows: %w", err)
	}

	var ref sql.NullTime
	if !report.ReferenceInstant.IsZero() {
		ref = sql.NullTime{Time: report.ReferenceInstant, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fluctuation_reports
			(run_id, reference_instant, generated_at, duplicate_orders, dropped_orders, report_rows)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		report.RunID, ref, report.GeneratedAt, report.DuplicateOrders, report.DroppedOrders, rows)
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.RunID, err)
	}
	return nil
}

// LatestReport returns the most recently generated report, or nil if
// no run has completed yet.
func (s *Store) LatestReport(ctx context.Context) (*models.FluctuationReport, error) {
	var row reportRow
	err := s.db.GetContext(ctx, &row, `
		SELECT run_id, reference_instant, generated_at, duplicate_orders, dropped_orders, report_rows
		FROM fluctuation_reports ORDER BY generated_at DESC LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest report: %w", err)
	}

	report := &models.FluctuationReport{
		RunID:           row.RunID,
		GeneratedAt:     row.GeneratedAt,
		DuplicateOrders: row.DuplicateOrders,
		DroppedOrders:   row.DroppedOrders,
	}
	if row.ReferenceInstant.Valid {
		report.ReferenceInstant = row.ReferenceInstant.Time
	}
	if err := json.Unmarshal(row.ReportRows, &report.Rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report rows: %w", err)
	}
	return report, nil
}

// GetReport returns one report by run id
func (s *Store) GetReport(ctx context.Context, runID string) (*models.FluctuationReport, error) {
	var row reportRow
	err := s.db.GetContext(ctx, &row, `
		SELECT run_id, reference_instant, generated_at, duplicate_orders, dropped_orders, report_rows
		FROM fluctuation_reports WHERE run_id = $1`, runID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report not found: %s", runID)
	}
	if err != nil {
		return nil, err
	}

	report := &models.FluctuationReport{
		RunID:           row.RunID,
		GeneratedAt:     row.GeneratedAt,
		DuplicateOrders: row.DuplicateOrders,
		DroppedOrders:   row.DroppedOrders,
	}
	if row.ReferenceInstant.Valid {
		report.ReferenceInstant = row.ReferenceInstant.Time
	}
	if err := json.Unmarshal(row.ReportRows, &report.Rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report rows: %w", err)
	}
	return report, nil
}
