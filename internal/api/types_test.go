package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_AcceptsBackendShapes(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"InitialQty":"12","SalesPrice":null,"Cost":4.75}`), &p))
	assert.True(t, p.InitialQty.Equal(decimal.NewFromInt(12)))
	assert.True(t, p.SalesPrice.IsZero())
	assert.True(t, p.Cost.Equal(decimal.RequireFromString("4.75")))

	require.NoError(t, json.Unmarshal([]byte(`{"Cost":""}`), &p))
	assert.True(t, p.Cost.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"Cost":"abc"}`), &p))
}

func TestAmount_MarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(InvoiceItem{Quantity: NewAmount(decimal.RequireFromString("1.5"))})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"quantity":1.5`)
}

func TestAddressOneLineSkipsEmptyParts(t *testing.T) {
	a := Address{Street: "1 Main St", City: "Springfield", State: " ", PostalCode: "12345"}
	assert.Equal(t, "1 Main St, Springfield, 12345", a.OneLine())
	assert.Equal(t, "", Address{}.OneLine())
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), ParseDate("2026-03-04"))
	assert.Equal(t, 2026, ParseDate("2026-03-04T10:00:00.000Z").Year())
	assert.True(t, ParseDate("").IsZero())
	assert.True(t, ParseDate("soon").IsZero())
}
