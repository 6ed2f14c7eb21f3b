package pipeline

import (
	"fmt"

	"industry-pulse/internal/dataset"
	"industry-pulse/internal/models"
)

// TieBreak selects which duplicate survives when two captures carry the
// same natural key. The source feeds give no ordering guarantee, so the
// policy is an explicit parameter rather than an accident of iteration
// order.
type TieBreak string

const (
	// FirstWins keeps the row seen first in input order (historical
	// before recent)
	FirstWins TieBreak = "first_wins"
	// LastWins keeps the row seen last in input order
	LastWins TieBreak = "last_wins"
)

// ParseTieBreak validates a tie-break policy name from config
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case FirstWins, LastWins:
		return TieBreak(s), nil
	default:
		return "", fmt.Errorf("unknown tie-break policy: %q", s)
	}
}

// ReconcileOrders unions the historical and recent order captures and
// keeps exactly one row per order_id. The two captures overlap because
// the recent feed re-captures the tail of history; which duplicate
// survives is decided by the tie-break policy. Output preserves
// first-seen key order. Returns the reconciled rows and the number of
// duplicates dropped.
func ReconcileOrders(historical, recent []models.Order, policy TieBreak) ([]models.Order, int, error) {
	if err := dataset.ValidateOrders("historical_orders", historical); err != nil {
		return nil, 0, err
	}
	if err := dataset.ValidateOrders("recent_orders", recent); err != nil {
		return nil, 0, err
	}

	combined := make([]models.Order, 0, len(historical)+len(recent))
	combined = append(combined, historical...)
	combined = append(combined, recent...)

	out := make([]models.Order, 0, len(combined))
	seen := make(map[string]int, len(combined))
	dropped := 0
	for _, row := range combined {
		if i, ok := seen[row.OrderID]; ok {
			if policy == LastWins {
				out[i] = row
			}
			dropped++
			continue
		}
		seen[row.OrderID] = len(out)
		out = append(out, row)
	}
	return out, dropped, nil
}

// ReconcileCustomers deduplicates the customer feed by customer_id
// under the same one-row-per-key contract as ReconcileOrders.
func ReconcileCustomers(customers []models.Customer, policy TieBreak) ([]models.Customer, int, error) {
	if err := dataset.ValidateCustomers("customers", customers); err != nil {
		return nil, 0, err
	}

	out := make([]models.Customer, 0, len(customers))
	seen := make(map[string]int, len(customers))
	dropped := 0
	for _, row := range customers {
		if i, ok := seen[row.CustomerID]; ok {
			if policy == LastWins {
				out[i] = row
			}
			dropped++
			continue
		}
		seen[row.CustomerID] = len(out)
		out = append(out, row)
	}
	return out, dropped, nil
}
