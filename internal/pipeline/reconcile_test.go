package pipeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"industry-pulse/internal/dataset"
	"industry-pulse/internal/models"
)

func makeOrder(orderID, customerID string, amount int64, ts time.Time) models.Order {
	return models.Order{
		OrderID:    orderID,
		CustomerID: customerID,
		Amount:     decimal.NewFromInt(amount),
		Timestamp:  ts,
	}
}

func TestReconcileOrders_DropsDuplicateKeys(t *testing.T) {
	ts := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	historical := []models.Order{
		makeOrder("o-1", "c-1", 100, ts),
		makeOrder("o-2", "c-1", 200, ts),
	}
	// recent re-captures the tail of history
	recent := []models.Order{
		makeOrder("o-2", "c-1", 200, ts),
		makeOrder("o-3", "c-2", 300, ts),
	}

	out, dropped, err := ReconcileOrders(historical, recent, FirstWins)
	require.NoError(t, err)

	assert.Len(t, out, 3)
	assert.Equal(t, 1, dropped)

	keys := make(map[string]bool)
	for _, o := range out {
		assert.False(t, keys[o.OrderID], "order %s appears twice", o.OrderID)
		keys[o.OrderID] = true
	}
}

func TestReconcileOrders_NoDuplicatesIsNoOp(t *testing.T) {
	ts := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	historical := []models.Order{
		makeOrder("o-1", "c-1", 100, ts),
		makeOrder("o-2", "c-1", 200, ts),
	}
	recent := []models.Order{
		makeOrder("o-3", "c-2", 300, ts),
	}

	out, dropped, err := ReconcileOrders(historical, recent, FirstWins)
	require.NoError(t, err)

	assert.Equal(t, 0, dropped)
	assert.Equal(t, append(historical, recent...), out)
}

func TestReconcileOrders_TieBreakPolicy(t *testing.T) {
	ts := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	historical := []models.Order{makeOrder("o-1", "c-1", 100, ts)}
	recent := []models.Order{makeOrder("o-1", "c-1", 999, ts)}

	first, _, err := ReconcileOrders(historical, recent, FirstWins)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].Amount.Equal(decimal.NewFromInt(100)))

	last, _, err := ReconcileOrders(historical, recent, LastWins)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.True(t, last[0].Amount.Equal(decimal.NewFromInt(999)))
}

func TestReconcileOrders_EmptyInputs(t *testing.T) {
	out, dropped, err := ReconcileOrders(nil, nil, FirstWins)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, dropped)
}

func TestReconcileOrders_MissingKeyFailsStage(t *testing.T) {
	ts := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	malformed := []models.Order{makeOrder("", "c-1", 100, ts)}

	_, _, err := ReconcileOrders(malformed, nil, FirstWins)
	require.Error(t, err)
	assert.True(t, dataset.IsSchemaError(err))
	assert.Contains(t, err.Error(), "order_id")
}

func TestReconcileCustomers_DropsDuplicateKeys(t *testing.T) {
	customers := []models.Customer{
		{CustomerID: "c-1", CompanyName: "Acme", SpecializedIndustries: []string{"Tech"}},
		{CustomerID: "c-1", CompanyName: "Acme Corp", SpecializedIndustries: []string{"Tech", "Finance"}},
		{CustomerID: "c-2", CompanyName: "Globex"},
	}

	out, dropped, err := ReconcileCustomers(customers, FirstWins)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, "Acme", out[0].CompanyName)

	out, _, err = ReconcileCustomers(customers, LastWins)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", out[0].CompanyName)
}

func TestReconcileCustomers_MissingKeyFailsStage(t *testing.T) {
	_, _, err := ReconcileCustomers([]models.Customer{{CompanyName: "NoKey"}}, FirstWins)
	require.Error(t, err)
	assert.True(t, dataset.IsSchemaError(err))
}

func TestParseTieBreak(t *testing.T) {
	policy, err := ParseTieBreak("last_wins")
	require.NoError(t, err)
	assert.Equal(t, LastWins, policy)

	_, err = ParseTieBreak("coin_flip")
	assert.Error(t, err)
}
