package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/five82/invoicer/internal/query"
)

// Amount is a decimal that travels as a bare JSON number. It also accepts
// quoted numbers, empty strings and null, all of which the backend emits
// for values users left blank.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	text := strings.TrimSpace(strings.Trim(string(trimmed), `"`))
	if text == "" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("decode amount %s: %w", trimmed, err)
	}
	a.Decimal = d
	return nil
}

// Address is a postal address as stored on a customer.
type Address struct {
	Street     string `json:"Street"`
	City       string `json:"City"`
	State      string `json:"State"`
	PostalCode string `json:"PostalCode"`
	Country    string `json:"Country"`
}

// OneLine joins the non-empty components with ", ".
func (a Address) OneLine() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode, a.Country} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Customer mirrors the backend customer document.
type Customer struct {
	ID              string   `json:"_id,omitempty"`
	UserID          string   `json:"userId,omitempty"`
	FirstName       string   `json:"FirstName"`
	CompanyName     string   `json:"CompanyName"`
	Phone           string   `json:"Phone"`
	Email           string   `json:"Email"`
	Website         string   `json:"Website"`
	BillingAddress  Address  `json:"BillingAddress"`
	ShippingAddress *Address `json:"ShippingAddress,omitempty"`
	CreatedAt       string   `json:"createdAt,omitempty"`
}

// Product mirrors the backend item document.
type Product struct {
	ID          string `json:"_id,omitempty"`
	UserID      string `json:"userId,omitempty"`
	ProductName string `json:"ProductName"`
	SKU         string `json:"SKU"`
	Category    string `json:"Category"`
	InitialQty  Amount `json:"InitialQty"`
	SalesPrice  Amount `json:"SalesPrice"`
	Cost        Amount `json:"Cost"`
}

// UnitPrice is the price a new invoice line starts from: the cost, zero
// when the product has none. The sales price is not used.
func (p Product) UnitPrice() decimal.Decimal {
	return p.Cost.Decimal
}

// InvoiceStatus is the lifecycle label of a stored invoice.
type InvoiceStatus string

const (
	StatusDraft   InvoiceStatus = "draft"
	StatusSent    InvoiceStatus = "sent"
	StatusPaid    InvoiceStatus = "paid"
	StatusOverdue InvoiceStatus = "overdue"
)

// InvoiceStatuses lists the accepted statuses in display order.
var InvoiceStatuses = []InvoiceStatus{StatusDraft, StatusSent, StatusPaid, StatusOverdue}

// InvoiceItem is one stored invoice line.
type InvoiceItem struct {
	ItemID      string `json:"itemId"`
	Description string `json:"description"`
	Quantity    Amount `json:"quantity"`
	UnitPrice   Amount `json:"unitPrice"`
	Amount      Amount `json:"amount"`
}

// Invoice mirrors the backend invoice document.
type Invoice struct {
	ID            string        `json:"_id,omitempty"`
	UserID        string        `json:"userId"`
	CustomerID    string        `json:"customerId"`
	ClientName    string        `json:"clientName"`
	ClientAddress string        `json:"clientAddress"`
	ClientEmail   string        `json:"clientEmail"`
	ClientPhone   string        `json:"clientPhone"`
	InvoiceNumber string        `json:"invoiceNumber"`
	InvoiceDate   string        `json:"invoiceDate"`
	DueDate       string        `json:"dueDate"`
	Items         []InvoiceItem `json:"items"`
	SubTotal      Amount        `json:"subTotal"`
	Tax           Amount        `json:"tax"`
	Total         Amount        `json:"total"`
	Notes         string        `json:"notes"`
	Status        InvoiceStatus `json:"status"`
	CreatedAt     string        `json:"createdAt,omitempty"`
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseDate parses the date formats the backend stores. Invalid or empty
// values return the zero time.
func ParseDate(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// User is the authenticated account.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Page is one page of a list response.
type Page[T any] struct {
	Records    []T
	Pagination query.Pagination
}

type listEnvelope[T any] struct {
	Status     *bool            `json:"status"`
	Message    string           `json:"message"`
	Data       []T              `json:"data"`
	Pagination query.Pagination `json:"pagination"`
}

type dataEnvelope[T any] struct {
	Status  *bool  `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type createInvoiceEnvelope struct {
	Status  *bool   `json:"status"`
	Message string  `json:"message"`
	Invoice Invoice `json:"invoice"`
}

type statusEnvelope struct {
	Status  *bool  `json:"status"`
	Message string `json:"message"`
}

type userEnvelope struct {
	Status  *bool  `json:"status"`
	Message string `json:"message"`
	User    User   `json:"user"`
}

type errorBody struct {
	Message string `json:"message"`
}

func decodeMessage(body []byte) string {
	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}
