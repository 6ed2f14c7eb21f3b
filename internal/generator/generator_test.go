package generator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"industry-pulse/internal/models"
)

func testCatalogs() ([]models.Customer, []models.Product) {
	customers := []models.Customer{
		{CustomerID: "c-1", CompanyName: "Acme", SpecializedIndustries: []string{"Tech"}},
		{CustomerID: "c-2", CompanyName: "Globex", SpecializedIndustries: []string{"Finance"}},
	}
	products := []models.Product{
		{ProductID: "p-1", ProductName: "Widget", Price: decimal.NewFromFloat(9.99)},
		{ProductID: "p-2", ProductName: "Gadget", Price: decimal.NewFromFloat(24.50)},
	}
	return customers, products
}

func TestNew_RejectsEmptyCatalogs(t *testing.T) {
	customers, products := testCatalogs()

	_, err := New(nil, products, 1)
	assert.Error(t, err)

	_, err = New(customers, nil, 1)
	assert.Error(t, err)
}

func TestGenerateFeed_OrderCountPerDayWithinBounds(t *testing.T) {
	customers, products := testCatalogs()
	g, err := New(customers, products, 42)
	require.NoError(t, err)

	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	orders, err := g.GenerateFeed(Config{
		StartDate:       day,
		EndDate:         day.AddDate(0, 0, 2),
		MaxOrdersPerDay: 20,
		MaxOrderLines:   5,
	})
	require.NoError(t, err)

	perDay := make(map[string]int)
	for _, o := range orders {
		perDay[o.Timestamp.Format("2006-01-02")]++
	}
	require.Len(t, perDay, 3)
	for date, count := range perDay {
		assert.GreaterOrEqual(t, count, 10, "day %s", date)
		assert.LessOrEqual(t, count, 20, "day %s", date)
	}
}

func TestGenerateFeed_OrdersAreWellFormed(t *testing.T) {
	customers, products := testCatalogs()
	g, err := New(customers, products, 7)
	require.NoError(t, err)

	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	orders, err := g.GenerateFeed(Config{
		StartDate:       day,
		EndDate:         day,
		MaxOrdersPerDay: 10,
		MaxOrderLines:   8,
		MaxVolume:       50,
	})
	require.NoError(t, err)
	require.NotEmpty(t, orders)

	seen := make(map[string]bool)
	for _, o := range orders {
		assert.NotEmpty(t, o.OrderID)
		assert.False(t, seen[o.OrderID], "duplicate order_id %s", o.OrderID)
		seen[o.OrderID] = true

		assert.Contains(t, []string{"c-1", "c-2"}, o.CustomerID)
		assert.Equal(t, time.UTC, o.Timestamp.Location())
		assert.True(t, o.Timestamp.After(day.Add(-time.Second)))
		assert.True(t, o.Timestamp.Before(day.AddDate(0, 0, 1)))

		require.NotEmpty(t, o.OrderLines)
		assert.LessOrEqual(t, len(o.OrderLines), 8)

		// amount is the exact sum over lines
		want := decimal.Zero
		for _, line := range o.OrderLines {
			assert.GreaterOrEqual(t, line.Volume, 0)
			assert.LessOrEqual(t, line.Volume, 50)
			want = want.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Volume))))
		}
		assert.True(t, o.Amount.Equal(want), "order %s amount %s != %s", o.OrderID, o.Amount, want)
	}
}

func TestGenerateFeed_Reproducible(t *testing.T) {
	customers, products := testCatalogs()
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{StartDate: day, EndDate: day, MaxOrdersPerDay: 10}

	g1, err := New(customers, products, 99)
	require.NoError(t, err)
	first, err := g1.GenerateFeed(cfg)
	require.NoError(t, err)

	g2, err := New(customers, products, 99)
	require.NoError(t, err)
	second, err := g2.GenerateFeed(cfg)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		// order ids are random uuids, everything else must match
		assert.Equal(t, first[i].CustomerID, second[i].CustomerID)
		assert.True(t, first[i].Timestamp.Equal(second[i].Timestamp))
		assert.True(t, first[i].Amount.Equal(second[i].Amount))
	}
}

func TestGenerateFeed_RejectsInvertedRange(t *testing.T) {
	customers, products := testCatalogs()
	g, err := New(customers, products, 1)
	require.NoError(t, err)

	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = g.GenerateFeed(Config{
		StartDate:       day,
		EndDate:         day.AddDate(0, 0, -1),
		MaxOrdersPerDay: 10,
	})
	assert.Error(t, err)
}
