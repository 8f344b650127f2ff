package ledger

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, label ...string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%v: want %s, got %s", label, want, got.String())
}

var widgets = CatalogFunc(func(id string) (Product, bool) {
	switch id {
	case "p-widget":
		return Product{ID: id, Name: "Widget", Cost: dec("50")}, true
	case "p-bolt":
		return Product{ID: id, Name: "Bolt", Cost: dec("0.1")}, true
	}
	return Product{}, false
})

func TestNew_HasActiveRowAndOpenSlot(t *testing.T) {
	l := New(nil)
	rows := l.Rows()
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Active)
	assert.False(t, rows[1].Active)
	assertDecimal(t, "0", l.Totals().Total)
}

func TestScenario_TwoLinesWithTax(t *testing.T) {
	l := New(widgets)
	require.NoError(t, l.SetField(0, FieldQuantity, "2"))
	require.NoError(t, l.SetField(0, FieldUnitPrice, "50"))
	require.NoError(t, l.ActivateRow(1))
	require.NoError(t, l.SetField(1, FieldQuantity, "1"))
	require.NoError(t, l.SetField(1, FieldUnitPrice, "30"))
	l.SetTax(dec("10"))

	require.Equal(t, 3, l.Len(), "open slot follows the two lines")
	assert.True(t, l.Rows()[2].Blank())

	tot := l.Totals()
	assertDecimal(t, "130", tot.SubTotal)
	assertDecimal(t, "13", tot.TaxAmount)
	assertDecimal(t, "143.00", tot.Total)
}

func TestAmountFollowsQuantityTimesPrice(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	l := New(nil)
	for step := 0; step < 200; step++ {
		i := rng.Intn(l.Len())
		field := FieldQuantity
		if rng.Intn(2) == 0 {
			field = FieldUnitPrice
		}
		value := fmt.Sprintf("%d.%02d", rng.Intn(100)-10, rng.Intn(100))
		require.NoError(t, l.SetField(i, field, value))

		sum := decimal.Zero
		for _, r := range l.Rows() {
			assertDecimal(t, r.QuantityValue().Mul(r.UnitPriceValue()).String(), r.Amount, fmt.Sprintf("step %d", step))
			if !r.Blank() {
				sum = sum.Add(r.Amount)
			}
		}
		assertDecimal(t, sum.String(), l.Totals().SubTotal, fmt.Sprintf("step %d", step))
	}
}

func TestInvalidInputCoercesToZeroButKeepsText(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.SetField(0, FieldQuantity, "abc"))
	require.NoError(t, l.SetField(0, FieldUnitPrice, "12"))

	row, err := l.Row(0)
	require.NoError(t, err)
	assert.Equal(t, "abc", row.Quantity)
	assertDecimal(t, "0", row.Amount)

	require.NoError(t, l.SetField(0, FieldQuantity, "-3"))
	row, _ = l.Row(0)
	assert.Equal(t, "-3", row.Quantity)
	assertDecimal(t, "0", row.Amount)
}

func TestSetTax_Clamps(t *testing.T) {
	tests := map[string]string{
		"-5":    "0",
		"0":     "0",
		"7.5":   "7.5",
		"100":   "100",
		"250":   "100",
		"1e3":   "100",
		"-0.01": "0",
	}
	for in, want := range tests {
		l := New(nil)
		l.SetTax(dec(in))
		assertDecimal(t, want, l.Tax(), "SetTax("+in+")")
	}

	l := New(nil)
	l.SetTaxInput("ten")
	assertDecimal(t, "0", l.Tax())
	assert.Equal(t, "ten", l.TaxText())
}

func TestRounding_HalfAwayFromZero(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.SetField(0, FieldQuantity, "1"))
	require.NoError(t, l.SetField(0, FieldUnitPrice, "10.05"))
	l.SetTax(dec("7.5"))

	tot := l.Totals()
	assertDecimal(t, "10.05", tot.SubTotal)
	assertDecimal(t, "0.75", tot.TaxAmount)
	assertDecimal(t, "10.80", tot.Total)

	l.SetTax(dec("5"))
	// 10.05 * 1.05 = 10.5525
	assertDecimal(t, "10.55", l.Totals().Total)
}

func TestDecimalArithmeticIsExact(t *testing.T) {
	l := New(widgets)
	require.NoError(t, l.SetField(0, FieldProduct, "p-bolt"))
	require.NoError(t, l.SetField(0, FieldQuantity, "3"))
	assertDecimal(t, "0.3", l.Totals().SubTotal)
}

func TestSelectProduct_CopiesNameAndPriceKeepingQuantity(t *testing.T) {
	l := New(widgets)
	require.NoError(t, l.SetField(0, FieldQuantity, "4"))
	require.NoError(t, l.SetField(0, FieldProduct, "p-widget"))

	row, _ := l.Row(0)
	assert.Equal(t, "Widget", row.Description)
	assert.Equal(t, "50", row.UnitPrice, "unit price is the product cost")
	assertDecimal(t, "200", row.Amount)

	require.NoError(t, l.SetField(0, FieldProduct, "missing"))
	row, _ = l.Row(0)
	assert.Equal(t, "", row.Description)
	assert.Equal(t, "0", row.UnitPrice)
	assertDecimal(t, "0", row.Amount)
}

func TestActivateRow_SingleActiveAndOpenSlot(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.ActivateRow(1))
	require.Equal(t, 3, l.Len())
	assert.Equal(t, 1, l.ActiveIndex())

	require.NoError(t, l.ActivateRow(0))
	assert.Equal(t, 3, l.Len(), "activating a non-last row adds nothing")
	active := 0
	for _, r := range l.Rows() {
		if r.Active {
			active++
		}
	}
	assert.Equal(t, 1, active)
	assert.ErrorIs(t, l.ActivateRow(9), ErrRowRange)
}

func TestActivateRow_DoesNotChangeTotals(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.SetField(0, FieldQuantity, "2"))
	require.NoError(t, l.SetField(0, FieldUnitPrice, "9.99"))
	before := l.Totals()
	require.NoError(t, l.ActivateRow(1))
	require.NoError(t, l.ActivateRow(0))
	after := l.Totals()
	assertDecimal(t, before.SubTotal.String(), after.SubTotal)
	assertDecimal(t, before.Total.String(), after.Total)
}

func TestEditingOpenSlotAppendsNewSlot(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.SetField(1, FieldDescription, "Consulting"))
	require.Equal(t, 3, l.Len())
	assert.Equal(t, 1, l.ActiveIndex())
	assert.True(t, l.Rows()[2].Blank())
}

func TestRemoveRow_Rules(t *testing.T) {
	l := New(nil)
	assert.False(t, l.RemoveRow(0), "only two rows remain")
	assert.False(t, l.RemoveRow(1), "open slot")

	require.NoError(t, l.SetField(1, FieldQuantity, "1"))
	require.NoError(t, l.SetField(1, FieldUnitPrice, "30"))
	require.Equal(t, 3, l.Len())
	assert.False(t, l.RemoveRow(2), "open slot")
	assert.False(t, l.RemoveRow(-1))

	assertDecimal(t, "30", l.Totals().SubTotal)
	require.True(t, l.RemoveRow(1))
	assert.Equal(t, 2, l.Len())
	assertDecimal(t, "0", l.Totals().SubTotal)
	assert.Equal(t, 0, l.ActiveIndex())
}

func TestItems_FiltersBlankRows(t *testing.T) {
	l := New(widgets)
	require.NoError(t, l.SetField(1, FieldDescription, "Setup fee"))
	require.NoError(t, l.SetField(1, FieldUnitPrice, "25"))
	require.NoError(t, l.ActivateRow(2))

	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Setup fee", items[0].Description)
	assertDecimal(t, "25", items[0].UnitPrice)
	assertDecimal(t, "0", items[0].Amount)
	assert.Equal(t, 4, l.Len(), "blank rows stay editable")
}

func TestSetField_RangeAndUnknownField(t *testing.T) {
	l := New(nil)
	assert.ErrorIs(t, l.SetField(5, FieldQuantity, "1"), ErrRowRange)
	assert.Error(t, l.SetField(0, Field(42), "1"))
}
