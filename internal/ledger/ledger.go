// Package ledger computes invoice line amounts and totals.
//
// Rows keep the text the user typed so invalid input is shown as entered;
// arithmetic uses the coerced value, where anything that is not a
// non-negative number counts as zero. The last row is always the open slot
// that accepts a new line.
//
// Amounts and the subtotal are exact. The tax amount and the total are
// rounded to two places, half away from zero.
package ledger

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrRowRange is returned for an index outside the ledger.
var ErrRowRange = errors.New("row index out of range")

// Field names an editable column of a row.
type Field int

const (
	FieldProduct Field = iota
	FieldDescription
	FieldQuantity
	FieldUnitPrice
)

func (f Field) String() string {
	switch f {
	case FieldProduct:
		return "product"
	case FieldDescription:
		return "description"
	case FieldQuantity:
		return "quantity"
	case FieldUnitPrice:
		return "unitPrice"
	default:
		return "unknown"
	}
}

// Product is the catalog view the ledger needs to seed a row. A selected
// product's cost becomes the row's unit price.
type Product struct {
	ID   string
	Name string
	Cost decimal.Decimal
}

// Catalog resolves product references.
type Catalog interface {
	Product(id string) (Product, bool)
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func(id string) (Product, bool)

// Product implements Catalog.
func (f CatalogFunc) Product(id string) (Product, bool) { return f(id) }

// Row is one line of the ledger.
type Row struct {
	ProductID   string
	Description string
	Quantity    string
	UnitPrice   string
	Amount      decimal.Decimal
	Active      bool
}

// QuantityValue returns the coerced quantity.
func (r Row) QuantityValue() decimal.Decimal { return Coerce(r.Quantity) }

// UnitPriceValue returns the coerced unit price.
func (r Row) UnitPriceValue() decimal.Decimal { return Coerce(r.UnitPrice) }

// Blank reports whether the row has no description and zero quantity, unit
// price and amount. Blank rows never reach the subtotal or a submission.
func (r Row) Blank() bool {
	return strings.TrimSpace(r.Description) == "" &&
		r.QuantityValue().IsZero() &&
		r.UnitPriceValue().IsZero() &&
		r.Amount.IsZero()
}

func (r *Row) recompute() {
	r.Amount = r.QuantityValue().Mul(r.UnitPriceValue())
}

// Item is a row as submitted to the backend.
type Item struct {
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// Totals are the derived aggregate values.
type Totals struct {
	SubTotal  decimal.Decimal
	Tax       decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Coerce parses raw as a non-negative decimal; anything else is zero.
func Coerce(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ClampTax limits t to [0, 100].
func ClampTax(t decimal.Decimal) decimal.Decimal {
	switch {
	case t.IsNegative():
		return decimal.Zero
	case t.GreaterThan(hundred):
		return hundred
	default:
		return t
	}
}

// Ledger is the ordered set of rows plus derived totals for one draft.
// It is not safe for concurrent use.
type Ledger struct {
	rows    []Row
	tax     decimal.Decimal
	taxText string
	catalog Catalog
	totals  Totals
}

// New returns a ledger with one active empty row followed by the open slot.
func New(catalog Catalog) *Ledger {
	l := &Ledger{
		rows:    []Row{{Active: true}, {}},
		catalog: catalog,
	}
	l.recalculate()
	return l
}

// Len returns the number of rows, open slot included.
func (l *Ledger) Len() int { return len(l.rows) }

// Rows returns a copy of the rows.
func (l *Ledger) Rows() []Row {
	out := make([]Row, len(l.rows))
	copy(out, l.rows)
	return out
}

// Row returns row i.
func (l *Ledger) Row(i int) (Row, error) {
	if i < 0 || i >= len(l.rows) {
		return Row{}, ErrRowRange
	}
	return l.rows[i], nil
}

// Totals returns the current totals.
func (l *Ledger) Totals() Totals { return l.totals }

// TaxText returns the tax as the user typed it.
func (l *Ledger) TaxText() string { return l.taxText }

// SetField updates one column of row i and recomputes. Editing the open slot
// activates it, which appends a fresh open slot.
func (l *Ledger) SetField(i int, field Field, value string) error {
	if i < 0 || i >= len(l.rows) {
		return ErrRowRange
	}
	if i == len(l.rows)-1 {
		l.activate(i)
	}
	row := &l.rows[i]
	switch field {
	case FieldProduct:
		row.ProductID = strings.TrimSpace(value)
		row.Description = ""
		row.UnitPrice = "0"
		if l.catalog != nil && row.ProductID != "" {
			if p, ok := l.catalog.Product(row.ProductID); ok {
				row.Description = p.Name
				row.UnitPrice = p.Cost.String()
			}
		}
		row.recompute()
	case FieldDescription:
		row.Description = value
	case FieldQuantity:
		row.Quantity = value
		row.recompute()
	case FieldUnitPrice:
		row.UnitPrice = value
		row.recompute()
	default:
		return errors.New("unknown field")
	}
	l.recalculate()
	return nil
}

// ActivateRow focuses row i. Activating the open slot appends a new one.
func (l *Ledger) ActivateRow(i int) error {
	if i < 0 || i >= len(l.rows) {
		return ErrRowRange
	}
	l.activate(i)
	return nil
}

func (l *Ledger) activate(i int) {
	for j := range l.rows {
		l.rows[j].Active = j == i
	}
	if i == len(l.rows)-1 {
		l.rows = append(l.rows, Row{})
	}
}

// ActiveIndex returns the index of the focused row, or -1.
func (l *Ledger) ActiveIndex() int {
	for i, r := range l.rows {
		if r.Active {
			return i
		}
	}
	return -1
}

// RemoveRow deletes row i. The open slot cannot be removed, nor can any row
// while only two remain. It reports whether a row was removed.
func (l *Ledger) RemoveRow(i int) bool {
	if len(l.rows) <= 2 || i < 0 || i >= len(l.rows)-1 {
		return false
	}
	wasActive := l.rows[i].Active
	l.rows = append(l.rows[:i], l.rows[i+1:]...)
	if wasActive {
		next := i
		if next >= len(l.rows)-1 {
			next = len(l.rows) - 2
		}
		l.rows[next].Active = true
	}
	l.recalculate()
	return true
}

// SetTax stores t clamped to [0, 100].
func (l *Ledger) SetTax(t decimal.Decimal) {
	l.tax = ClampTax(t)
	l.taxText = l.tax.String()
	l.recalculate()
}

// SetTaxInput stores typed tax text; the clamped coerced value is used.
func (l *Ledger) SetTaxInput(raw string) {
	l.tax = ClampTax(Coerce(raw))
	l.taxText = raw
	l.recalculate()
}

// Tax returns the stored, clamped tax rate.
func (l *Ledger) Tax() decimal.Decimal { return l.tax }

// Items returns the non-blank rows in submission form.
func (l *Ledger) Items() []Item {
	items := make([]Item, 0, len(l.rows))
	for _, r := range l.rows {
		if r.Blank() {
			continue
		}
		items = append(items, Item{
			ProductID:   r.ProductID,
			Description: r.Description,
			Quantity:    r.QuantityValue(),
			UnitPrice:   r.UnitPriceValue(),
			Amount:      r.Amount,
		})
	}
	return items
}

func (l *Ledger) recalculate() {
	sub := decimal.Zero
	for _, r := range l.rows {
		if r.Blank() {
			continue
		}
		sub = sub.Add(r.Amount)
	}
	raw := sub.Mul(l.tax).Div(hundred)
	l.totals = Totals{
		SubTotal:  sub,
		Tax:       l.tax,
		TaxAmount: raw.Round(2),
		Total:     sub.Add(raw).Round(2),
	}
}
