// Package ingest reads and writes the source feed formats: NDJSON
// order feeds (one JSON object per line, RFC3339 timestamps) and CSV
// customer/product catalogs. Every reader validates required fields per
// row; a malformed row fails the whole read, it is never skipped.
package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"industry-pulse/internal/dataset"
	"industry-pulse/internal/models"
)

// ReadOrders decodes an NDJSON order feed. The feed name is used in
// schema-violation errors so the offending source is identifiable.
func ReadOrders(r io.Reader, feed string) ([]models.Order, error) {
	var orders []models.Order
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var order models.Order
		if err := json.Unmarshal(raw, &order); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", feed, line, err)
		}
		orders = append(orders, order)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", feed, err)
	}

	if err := dataset.ValidateOrders(feed, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ReadOrdersFile reads an NDJSON order feed from disk
func ReadOrdersFile(path, feed string) ([]models.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s feed: %w", feed, err)
	}
	defer f.Close()
	return ReadOrders(f, feed)
}

// WriteOrders encodes orders as NDJSON, one object per line
func WriteOrders(w io.Writer, orders []models.Order) error {
	enc := json.NewEncoder(w)
	for i := range orders {
		if err := enc.Encode(&orders[i]); err != nil {
			return fmt.Errorf("encode order %s: %w", orders[i].OrderID, err)
		}
	}
	return nil
}

// WriteOrdersFile writes an NDJSON order feed to disk
func WriteOrdersFile(path string, orders []models.Order) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create order feed: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WriteOrders(bw, orders); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush order feed: %w", err)
	}
	return nil
}

// ReadCustomers decodes the customer catalog CSV. Expected header
// columns: customer_id, company_name, specialized_industries (the
// latter a ;-delimited list).
func ReadCustomers(r io.Reader) ([]models.Customer, error) {
	records, cols, err := readCSV(r, "customers", "customer_id", "company_name", "specialized_industries")
	if err != nil {
		return nil, err
	}

	customers := make([]models.Customer, 0, len(records))
	for i, rec := range records {
		customer := models.Customer{
			CustomerID:            rec[cols["customer_id"]],
			CompanyName:           rec[cols["company_name"]],
			SpecializedIndustries: models.SplitIndustries(rec[cols["specialized_industries"]]),
		}
		if customer.CustomerID == "" {
			return nil, &dataset.SchemaError{Dataset: "customers", Row: i, Field: "customer_id"}
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

// ReadCustomersFile reads the customer catalog CSV from disk
func ReadCustomersFile(path string) ([]models.Customer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open customer catalog: %w", err)
	}
	defer f.Close()
	return ReadCustomers(f)
}

// ReadProducts decodes the product catalog CSV. Expected header
// columns: product_id, product_name, price.
func ReadProducts(r io.Reader) ([]models.Product, error) {
	records, cols, err := readCSV(r, "products", "product_id", "product_name", "price")
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(records))
	for i, rec := range records {
		product := models.Product{
			ProductID:   rec[cols["product_id"]],
			ProductName: rec[cols["product_name"]],
		}
		if product.ProductID == "" {
			return nil, &dataset.SchemaError{Dataset: "products", Row: i, Field: "product_id"}
		}
		price, err := decimal.NewFromString(rec[cols["price"]])
		if err != nil {
			return nil, fmt.Errorf("products: row %d: bad price %q: %w", i, rec[cols["price"]], err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("products: row %d: negative price %s", i, price)
		}
		product.Price = price
		products = append(products, product)
	}
	return products, nil
}

// ReadProductsFile reads the product catalog CSV from disk
func ReadProductsFile(path string) ([]models.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open product catalog: %w", err)
	}
	defer f.Close()
	return ReadProducts(f)
}

// readCSV parses a headered CSV and maps the required column names to
// their positions.
func readCSV(r io.Reader, name string, required ...string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s csv: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s csv has no header row", name)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		cols[col] = i
	}
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			return nil, nil, fmt.Errorf("%s csv missing required column %q", name, col)
		}
	}
	return rows[1:], cols, nil
}
