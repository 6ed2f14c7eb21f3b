package store

import (
	"context"
	"fmt"

	"industry-pulse/internal/models"
)

// Feed names for the two order captures
const (
	FeedHistorical = "historical_orders"
	FeedRecent     = "recent_orders"
)

// ReplaceOrderFeed atomically replaces the stored rows of one order
// feed with a fresh capture. Mirrors overwrite-mode materialization of
// a source file: the previous capture is discarded, never merged.
func (s *Store) ReplaceOrderFeed(ctx context.Context, feed string, orders []models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM feed_orders WHERE feed = $1", feed); err != nil {
		return fmt.Errorf("failed to clear %s feed: %w", feed, err)
	}

	insert := `
		INSERT INTO feed_orders (feed, order_id, customer_id, order_lines, amount, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range orders {
		o := &orders[i]
		if _, err := tx.ExecContext(ctx, insert,
			feed, o.OrderID, o.CustomerID, o.OrderLines, o.Amount, o.Timestamp); err != nil {
			return fmt.Errorf("failed to insert order %s into %s feed: %w", o.OrderID, feed, err)
		}
	}

	return tx.Commit()
}

// LoadOrderFeed loads all rows of one order feed
func (s *Store) LoadOrderFeed(ctx context.Context, feed string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `
		SELECT order_id, customer_id, order_lines, amount, timestamp
		FROM feed_orders WHERE feed = $1 ORDER BY timestamp`, feed)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s feed: %w", feed, err)
	}
	return orders, nil
}

type customerRow struct {
	CustomerID            string `db:"customer_id"`
	CompanyName           string `db:"company_name"`
	SpecializedIndustries string `db:"specialized_industries"`
}

// ReplaceCustomers atomically replaces the customer feed. Industries
// are stored packed, exactly as the feed carries them.
func (s *Store) ReplaceCustomers(ctx context.Context, customers []models.Customer) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM customers"); err != nil {
		return fmt.Errorf("failed to clear customers: %w", err)
	}

	insert := `
		INSERT INTO customers (customer_id, company_name, specialized_industries)
		VALUES ($1, $2, $3)`
	for _, c := range customers {
		if _, err := tx.ExecContext(ctx, insert,
			c.CustomerID, c.CompanyName, models.JoinIndustries(c.SpecializedIndustries)); err != nil {
			return fmt.Errorf("failed to insert customer %s: %w", c.CustomerID, err)
		}
	}

	return tx.Commit()
}

// LoadCustomers loads the full customer feed
func (s *Store) LoadCustomers(ctx context.Context) ([]models.Customer, error) {
	var rows []customerRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT customer_id, company_name, specialized_industries FROM customers`)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	customers := make([]models.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, models.Customer{
			CustomerID:            row.CustomerID,
			CompanyName:           row.CompanyName,
			SpecializedIndustries: models.SplitIndustries(row.SpecializedIndustries),
		})
	}
	return customers, nil
}
