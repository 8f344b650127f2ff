// Package printview lays out a stored invoice for reading on screen and
// exports the same layout as a PDF.
package printview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/five82/invoicer/internal/api"
)

// Loader fetches the records a print view needs.
type Loader interface {
	GetInvoice(ctx context.Context, id string) (api.Invoice, error)
	GetCustomer(ctx context.Context, id string) (api.Customer, error)
}

// Issuer is the "From" block. A zero Issuer is omitted.
type Issuer struct {
	Name    string
	Address string
}

// Party is a name and address block.
type Party struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

// Document is an invoice ready to lay out.
type Document struct {
	Invoice  api.Invoice
	Customer *api.Customer
	Issuer   Issuer
}

// Load fetches the invoice and, when it names one, its customer. A failed
// customer lookup is logged and the invoice's own client fields are used.
func Load(ctx context.Context, l Loader, id string, issuer Issuer) (Document, error) {
	inv, err := l.GetInvoice(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("load invoice %s: %w", id, err)
	}
	doc := Document{Invoice: inv, Issuer: issuer}
	if cid := strings.TrimSpace(inv.CustomerID); cid != "" {
		cust, err := l.GetCustomer(ctx, cid)
		if err != nil {
			slog.Warn("print view customer lookup failed", "invoice", id, "customer", cid, "error", err)
		} else if cust.ID == "" || cust.ID == cid {
			doc.Customer = &cust
		}
	}
	return doc, nil
}

// BillTo is the customer when it was found, else the invoice's client fields.
func (d Document) BillTo() Party {
	if c := d.Customer; c != nil {
		name := strings.TrimSpace(c.FirstName)
		if name == "" {
			name = c.CompanyName
		}
		addr := c.BillingAddress.OneLine()
		if c.ShippingAddress != nil && c.ShippingAddress.OneLine() != "" {
			addr = c.ShippingAddress.OneLine()
		}
		return Party{Name: name, Address: addr, Email: c.Email, Phone: c.Phone}
	}
	inv := d.Invoice
	return Party{Name: inv.ClientName, Address: inv.ClientAddress, Email: inv.ClientEmail, Phone: inv.ClientPhone}
}

// TaxAmount is tax% of the subtotal, to two places.
func (d Document) TaxAmount() decimal.Decimal {
	return d.Invoice.SubTotal.Mul(d.Invoice.Tax.Decimal).Div(decimal.NewFromInt(100)).Round(2)
}

// FileName is the export file name for the invoice number.
func (d Document) FileName() string {
	number := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(d.Invoice.InvoiceNumber))
	if number == "" {
		number = d.Invoice.ID
	}
	return "invoice-" + number + ".pdf"
}

// Line is one rendered line item.
type Line struct {
	Index       int
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

// Lines returns the items numbered from 1.
func (d Document) Lines() []Line {
	out := make([]Line, 0, len(d.Invoice.Items))
	for i, it := range d.Invoice.Items {
		out = append(out, Line{
			Index:       i + 1,
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			Rate:        money(it.UnitPrice.Decimal),
			Amount:      money(it.Amount.Decimal),
		})
	}
	return out
}

// Summary holds the closing totals as display text.
type Summary struct {
	SubTotal  string
	TaxLabel  string
	TaxAmount string
	Total     string
}

// Summary formats the totals block.
func (d Document) Summary() Summary {
	return Summary{
		SubTotal:  money(d.Invoice.SubTotal.Decimal),
		TaxLabel:  fmt.Sprintf("Tax (%s%%)", d.Invoice.Tax.String()),
		TaxAmount: d.TaxAmount().StringFixed(2),
		Total:     money(d.Invoice.Total.Decimal),
	}
}

// Date formats a stored date as YYYY-MM-DD, or "-" when unset.
func Date(value string) string {
	ts := api.ParseDate(value)
	if ts.IsZero() {
		if strings.TrimSpace(value) == "" {
			return "-"
		}
		return value
	}
	return ts.UTC().Format("2006-01-02")
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
