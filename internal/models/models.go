package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents a customer record from the customer feed
type Customer struct {
	CustomerID            string   `db:"customer_id" json:"customer_id"`
	CompanyName           string   `db:"company_name" json:"company_name"`
	SpecializedIndustries []string `json:"specialized_industries"`
}

// Product represents a product in the catalog
type Product struct {
	ProductID   string          `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

// OrderLine represents a single line item within an order. Price is the
// unit price recorded at order time, independent of the product's
// current catalog price.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Volume    int             `json:"volume"`
	Price     decimal.Decimal `json:"price"`
}

// OrderLines is stored as a JSON column in Postgres
type OrderLines []OrderLine

// Value implements driver.Valuer
func (ol OrderLines) Value() (driver.Value, error) {
	return json.Marshal(ol)
}

// Scan implements sql.Scanner
func (ol *OrderLines) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, ol)
	case string:
		return json.Unmarshal([]byte(v), ol)
	case nil:
		*ol = nil
		return nil
	default:
		return fmt.Errorf("cannot scan order lines from %T", src)
	}
}

// Order represents a customer order ingested from an order feed. Amount
// is trusted as recorded by the feed; it is never recomputed from the
// order lines by the analytics side.
type Order struct {
	OrderID    string          `db:"order_id" json:"order_id"`
	CustomerID string          `db:"customer_id" json:"customer_id"`
	OrderLines OrderLines      `db:"order_lines" json:"order_lines"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Timestamp  time.Time       `db:"timestamp" json:"timestamp"`
}

// OrderWithCustomer is an order enriched with the attributes of its
// customer, industries still packed as a list.
type OrderWithCustomer struct {
	Order
	CompanyName           string
	SpecializedIndustries []string
}

// OrderWithIndustry is the exploded form: one row per (order, industry)
// pair, with the single industry the row is attributed to.
type OrderWithIndustry struct {
	OrderID             string
	CustomerID          string
	CompanyName         string
	SpecializedIndustry string
	Amount              decimal.Decimal
	Timestamp           time.Time
}

// IndustryFluctuation is one row of the final ranking: the short-window
// revenue sum, the long-window revenue mean, and their difference.
type IndustryFluctuation struct {
	SpecializedIndustry string          `db:"specialized_industry" json:"specialized_industry"`
	DailyRevenue        decimal.Decimal `db:"daily_revenue" json:"daily_revenue"`
	MonthlyAvgRevenue   decimal.Decimal `db:"monthly_avg_revenue" json:"monthly_avg_revenue"`
	Fluctuation         decimal.Decimal `db:"fluctuation" json:"fluctuation"`
}

// FluctuationReport is the result of one full pipeline run
type FluctuationReport struct {
	RunID            string                `json:"run_id"`
	ReferenceInstant time.Time             `json:"reference_instant"`
	GeneratedAt      time.Time             `json:"generated_at"`
	Rows             []IndustryFluctuation `json:"rows"`
	DuplicateOrders  int                   `json:"duplicate_orders"`
	DroppedOrders    int                   `json:"dropped_orders"`
}

// IndustryDelimiter separates industries in the packed customer field
const IndustryDelimiter = ";"

// SplitIndustries splits the packed specialized_industries field into a
// list. Values are kept exactly as written: no trimming, no case
// folding. An empty field yields no industries.
func SplitIndustries(packed string) []string {
	if packed == "" {
		return nil
	}
	return strings.Split(packed, IndustryDelimiter)
}

// JoinIndustries packs an industry list back into the delimited feed form
func JoinIndustries(industries []string) string {
	return strings.Join(industries, IndustryDelimiter)
}
