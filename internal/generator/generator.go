// Package generator fabricates synthetic customer orders from customer
// and product catalogs. It is an input producer for the analytics side:
// it emits Order records in the agreed feed schema with randomized
// timing and line items, and makes no analytical decisions itself.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"industry-pulse/internal/models"
	"industry-pulse/internal/util"
)

const (
	secondsPerDay    = 86400
	defaultMaxLines  = 100
	defaultMaxVolume = 100
)

// Config controls one generation run
type Config struct {
	// StartDate and EndDate bound the generated days, inclusive. Only
	// the date part is used; orders are spread over each day from
	// midnight UTC.
	StartDate time.Time
	EndDate   time.Time
	// MaxOrdersPerDay caps the orders fabricated per day; each day gets
	// a random count in [MaxOrdersPerDay/2, MaxOrdersPerDay].
	MaxOrdersPerDay int
	// MaxOrderLines caps the line items per order (default 100)
	MaxOrderLines int
	// MaxVolume caps the quantity per line (default 100)
	MaxVolume int
}

// Generator fabricates orders against fixed catalogs
type Generator struct {
	customers []models.Customer
	products  []models.Product
	rng       *rand.Rand
	logger    *zap.Logger
}

// New creates a generator. The seed makes a run reproducible; pass a
// time-derived seed for fresh data.
func New(customers []models.Customer, products []models.Product, seed int64) (*Generator, error) {
	if len(customers) == 0 {
		return nil, fmt.Errorf("customer catalog is empty")
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("product catalog is empty")
	}
	return &Generator{
		customers: customers,
		products:  products,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    util.NamedLogger("generator"),
	}, nil
}

// GenerateFeed fabricates orders for every day in the configured range.
// Timestamps are spread evenly across each day in UTC so the feed looks
// like a continuous order stream.
func (g *Generator) GenerateFeed(cfg Config) ([]models.Order, error) {
	if cfg.MaxOrdersPerDay < 2 {
		return nil, fmt.Errorf("max orders per day must be at least 2, got %d", cfg.MaxOrdersPerDay)
	}
	if cfg.MaxOrderLines <= 0 {
		cfg.MaxOrderLines = defaultMaxLines
	}
	if cfg.MaxVolume <= 0 {
		cfg.MaxVolume = defaultMaxVolume
	}

	start := midnightUTC(cfg.StartDate)
	end := midnightUTC(cfg.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s precedes start date %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	var orders []models.Order
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		ordersForDay := cfg.MaxOrdersPerDay/2 + g.rng.Intn(cfg.MaxOrdersPerDay-cfg.MaxOrdersPerDay/2+1)
		secondsPerOrder := float64(secondsPerDay) / float64(ordersForDay)
		for o := 0; o < ordersForDay; o++ {
			customer := g.customers[g.rng.Intn(len(g.customers))]
			ts := day.Add(time.Duration(float64(o) * secondsPerOrder * float64(time.Second)))
			orders = append(orders, g.generateOrder(customer, ts, cfg))
		}
	}

	g.logger.Info("Generated order feed",
		zap.Int("orders", len(orders)),
		zap.Time("start", start),
		zap.Time("end", end))
	util.OrdersGeneratedTotal.Add(float64(len(orders)))
	return orders, nil
}

// generateOrder fabricates a single order. The amount is the exact sum
// of volume times unit price over the generated lines.
func (g *Generator) generateOrder(customer models.Customer, ts time.Time, cfg Config) models.Order {
	lines := g.generateOrderLines(1+g.rng.Intn(cfg.MaxOrderLines), cfg.MaxVolume)

	amount := decimal.Zero
	for _, line := range lines {
		amount = amount.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Volume))))
	}

	return models.Order{
		OrderID:    uuid.New().String(),
		CustomerID: customer.CustomerID,
		OrderLines: lines,
		Amount:     amount,
		Timestamp:  ts,
	}
}

func (g *Generator) generateOrderLines(total, maxVolume int) models.OrderLines {
	lines := make(models.OrderLines, 0, total)
	for i := 0; i < total; i++ {
		product := g.products[g.rng.Intn(len(g.products))]
		lines = append(lines, models.OrderLine{
			ProductID: product.ProductID,
			Volume:    g.rng.Intn(maxVolume + 1),
			Price:     product.Price,
		})
	}
	return lines
}

func midnightUTC(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
