package pipeline

import (
	"industry-pulse/internal/models"
)

// JoinCustomers inner-joins reconciled orders to reconciled customers
// on customer_id. An order whose customer is unknown cannot be
// attributed to any industry, so it is dropped rather than kept with
// empty attributes. The drop is silent policy, not an error; the count
// of dropped orders is returned so it stays observable.
func JoinCustomers(orders []models.Order, customers []models.Customer) ([]models.OrderWithCustomer, int) {
	byID := make(map[string]models.Customer, len(customers))
	for _, c := range customers {
		byID[c.CustomerID] = c
	}

	out := make([]models.OrderWithCustomer, 0, len(orders))
	dropped := 0
	for _, o := range orders {
		c, ok := byID[o.CustomerID]
		if !ok {
			dropped++
			continue
		}
		out = append(out, models.OrderWithCustomer{
			Order:                 o,
			CompanyName:           c.CompanyName,
			SpecializedIndustries: c.SpecializedIndustries,
		})
	}
	return out, dropped
}

// ExplodeIndustries fans each joined row out into one row per industry
// the customer serves. A customer with k industries contributes k rows
// per order, each carrying the full order amount: revenue is attributed
// once per industry, not split across them, so totals summed across
// industries can exceed the sum of order amounts. A customer with no
// industries contributes no rows.
func ExplodeIndustries(rows []models.OrderWithCustomer) []models.OrderWithIndustry {
	out := make([]models.OrderWithIndustry, 0, len(rows))
	for _, row := range rows {
		for _, industry := range row.SpecializedIndustries {
			out = append(out, models.OrderWithIndustry{
				OrderID:             row.OrderID,
				CustomerID:          row.CustomerID,
				CompanyName:         row.CompanyName,
				SpecializedIndustry: industry,
				Amount:              row.Amount,
				Timestamp:           row.Timestamp,
			})
		}
	}
	return out
}
