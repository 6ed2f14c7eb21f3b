// Package dataset defines the typed schema checks applied at every
// pipeline stage boundary. A stage never relies on a field being
// present by position; it validates the named fields it needs and
// fails the whole run on the first violation.
package dataset

import (
	"errors"
	"fmt"

	"industry-pulse/internal/models"
)

// SchemaError reports a row that is missing a required field
type SchemaError struct {
	Dataset string
	Row     int
	Field   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation in %s: row %d: missing required field %q", e.Dataset, e.Row, e.Field)
}

// IsSchemaError reports whether err is (or wraps) a SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// ValidateOrders checks every order row for its required fields:
// order_id, customer_id and timestamp. An empty dataset is valid.
func ValidateOrders(name string, rows []models.Order) error {
	for i, row := range rows {
		switch {
		case row.OrderID == "":
			return &SchemaError{Dataset: name, Row: i, Field: "order_id"}
		case row.CustomerID == "":
			return &SchemaError{Dataset: name, Row: i, Field: "customer_id"}
		case row.Timestamp.IsZero():
			return &SchemaError{Dataset: name, Row: i, Field: "timestamp"}
		}
	}
	return nil
}

// ValidateCustomers checks every customer row for its natural key
func ValidateCustomers(name string, rows []models.Customer) error {
	for i, row := range rows {
		if row.CustomerID == "" {
			return &SchemaError{Dataset: name, Row: i, Field: "customer_id"}
		}
	}
	return nil
}
