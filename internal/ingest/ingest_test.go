package ingest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"industry-pulse/internal/dataset"
	"industry-pulse/internal/models"
)

const orderFeedSample = `{"order_id":"o-1","customer_id":"c-1","order_lines":[{"product_id":"p-1","volume":2,"price":9.99}],"amount":19.98,"timestamp":"2023-06-15T10:00:00+00:00"}
{"order_id":"o-2","customer_id":"c-2","order_lines":[],"amount":0,"timestamp":"2023-06-14T08:30:00Z"}
`

func TestReadOrders_DecodesNDJSON(t *testing.T) {
	orders, err := ReadOrders(strings.NewReader(orderFeedSample), "recent_orders")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "o-1", orders[0].OrderID)
	assert.Equal(t, "c-1", orders[0].CustomerID)
	require.Len(t, orders[0].OrderLines, 1)
	assert.Equal(t, "p-1", orders[0].OrderLines[0].ProductID)
	assert.Equal(t, 2, orders[0].OrderLines[0].Volume)
	assert.True(t, orders[0].Amount.Equal(decimal.NewFromFloat(19.98)))

	want := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
	assert.True(t, orders[0].Timestamp.Equal(want))
}

func TestReadOrders_EmptyFeed(t *testing.T) {
	orders, err := ReadOrders(strings.NewReader(""), "historical_orders")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestReadOrders_MissingKeyFails(t *testing.T) {
	feed := `{"customer_id":"c-1","amount":10,"timestamp":"2023-06-15T10:00:00Z"}` + "\n"

	_, err := ReadOrders(strings.NewReader(feed), "recent_orders")
	require.Error(t, err)
	assert.True(t, dataset.IsSchemaError(err))
	assert.Contains(t, err.Error(), "recent_orders")
}

func TestReadOrders_MalformedJSONFailsWithLine(t *testing.T) {
	feed := orderFeedSample + "{not json}\n"

	_, err := ReadOrders(strings.NewReader(feed), "recent_orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestWriteOrders_RoundTrip(t *testing.T) {
	orders := []models.Order{
		{
			OrderID:    "o-1",
			CustomerID: "c-1",
			OrderLines: models.OrderLines{{ProductID: "p-1", Volume: 3, Price: decimal.NewFromFloat(5.25)}},
			Amount:     decimal.NewFromFloat(15.75),
			Timestamp:  time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, orders))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	got, err := ReadOrders(&buf, "generated")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, orders[0].OrderID, got[0].OrderID)
	assert.True(t, got[0].Amount.Equal(orders[0].Amount))
	assert.True(t, got[0].Timestamp.Equal(orders[0].Timestamp))
}

func TestReadCustomers_SplitsIndustries(t *testing.T) {
	csvData := "customer_id,company_name,specialized_industries\n" +
		"c-1,Acme,Tech;Finance\n" +
		"c-2,Globex,\n"

	customers, err := ReadCustomers(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, customers, 2)

	assert.Equal(t, []string{"Tech", "Finance"}, customers[0].SpecializedIndustries)
	assert.Empty(t, customers[1].SpecializedIndustries)
}

func TestReadCustomers_MissingColumnFails(t *testing.T) {
	csvData := "customer_id,company_name\nc-1,Acme\n"

	_, err := ReadCustomers(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specialized_industries")
}

func TestReadCustomers_EmptyKeyFails(t *testing.T) {
	csvData := "customer_id,company_name,specialized_industries\n,Acme,Tech\n"

	_, err := ReadCustomers(strings.NewReader(csvData))
	require.Error(t, err)
	assert.True(t, dataset.IsSchemaError(err))
}

func TestReadProducts_ParsesPrices(t *testing.T) {
	csvData := "product_id,product_name,price\np-1,Widget,9.99\np-2,Gadget,24.50\n"

	products, err := ReadProducts(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, products[0].Price.Equal(decimal.NewFromFloat(9.99)))
	assert.True(t, products[1].Price.Equal(decimal.NewFromFloat(24.5)))
}

func TestReadProducts_RejectsBadPrice(t *testing.T) {
	_, err := ReadProducts(strings.NewReader("product_id,product_name,price\np-1,Widget,free\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad price")

	_, err = ReadProducts(strings.NewReader("product_id,product_name,price\np-1,Widget,-1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative price")
}
