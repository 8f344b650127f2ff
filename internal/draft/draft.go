// Package draft composes invoice header fields with a line-item ledger and
// turns the result into a create request.
//
// The lifecycle is Empty → Editing → Submitting → Submitted, falling back
// from Submitting to Editing when the backend rejects the draft. A
// Controller is owned by one update loop; only the deferred Submission it
// hands out may run elsewhere.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/invoicer/internal/ledger"
	"github.com/five82/invoicer/internal/notify"
)

// RedirectDelay is how long the success notification shows before the
// editor navigates away.
const RedirectDelay = 2 * time.Second

// ErrInFlight is returned when a submission is already pending.
var ErrInFlight = errors.New("submission already in progress")

// ErrSubmitted is returned when the draft was already stored.
var ErrSubmitted = errors.New("draft already submitted")

// Phase is the draft's lifecycle position.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseEditing
	PhaseSubmitting
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// HeaderField names an editable header field.
type HeaderField int

const (
	FieldClientName HeaderField = iota
	FieldClientAddress
	FieldClientEmail
	FieldClientPhone
	FieldInvoiceNumber
	FieldInvoiceDate
	FieldDueDate
	FieldNotes
	FieldStatus
)

// Status values a draft may carry.
var Statuses = []string{"draft", "sent", "paid", "overdue"}

// Header holds the invoice header.
type Header struct {
	ClientName    string
	ClientAddress string
	ClientEmail   string
	ClientPhone   string
	CustomerID    string
	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	Notes         string
	Status        string
}

// Customer is the slice of a customer record the draft copies from.
type Customer struct {
	ID      string
	Name    string
	Address string
	Email   string
	Phone   string
}

// Payload is the complete draft as sent to the backend.
type Payload struct {
	Header   Header
	Items    []ledger.Item
	Totals   ledger.Totals
	OwnerID  string
	Printing bool
}

// CreateFunc stores a payload and returns the new invoice id.
type CreateFunc func(ctx context.Context, p Payload) (string, error)

// Submission is a deferred create request.
type Submission struct {
	Payload Payload
	create  CreateFunc
}

// Run performs the create request.
func (s Submission) Run(ctx context.Context) SubmitResult {
	if s.create == nil {
		return SubmitResult{Printing: s.Payload.Printing, Err: fmt.Errorf("create not configured")}
	}
	id, err := s.create(ctx, s.Payload)
	return SubmitResult{ID: id, Printing: s.Payload.Printing, Err: err}
}

// SubmitResult is the completed form of a Submission.
type SubmitResult struct {
	ID       string
	Printing bool
	Err      error
}

// Target is where the UI should go after a submission.
type Target int

const (
	TargetNone Target = iota
	TargetHome
	TargetPrint
)

// Outcome tells the UI how to react to a finished submission.
type Outcome struct {
	Notification *notify.Notification
	Target       Target
	InvoiceID    string
	Delay        time.Duration
}

// Options configures a Controller.
type Options struct {
	OwnerID string
	Catalog ledger.Catalog
	Create  CreateFunc
	// Now supplies today's date; defaults to time.Now.
	Now func() time.Time
}

// Controller is the invoice editor's model.
type Controller struct {
	owner     string
	create    CreateFunc
	header    Header
	ledger    *ledger.Ledger
	customers []Customer
	phase     Phase
}

// New returns an empty draft dated today with status "draft".
func New(opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		owner:  opts.OwnerID,
		create: opts.Create,
		header: Header{InvoiceDate: now().Format("2006-01-02"), Status: "draft"},
		ledger: ledger.New(opts.Catalog),
		phase:  PhaseEmpty,
	}
}

// Phase returns the lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// Header returns the header fields.
func (c *Controller) Header() Header { return c.header }

// Ledger exposes the line items for reading. Mutate through the Controller
// so the lifecycle tracks edits.
func (c *Controller) Ledger() *ledger.Ledger { return c.ledger }

// Totals returns the ledger totals.
func (c *Controller) Totals() ledger.Totals { return c.ledger.Totals() }

// SetCustomers replaces the customer list selectCustomer searches.
func (c *Controller) SetCustomers(customers []Customer) {
	c.customers = append([]Customer(nil), customers...)
}

// Customers returns the selectable customers.
func (c *Controller) Customers() []Customer {
	return append([]Customer(nil), c.customers...)
}

// SetHeader sets one header field.
func (c *Controller) SetHeader(field HeaderField, value string) error {
	switch field {
	case FieldClientName:
		c.header.ClientName = value
	case FieldClientAddress:
		c.header.ClientAddress = value
	case FieldClientEmail:
		c.header.ClientEmail = value
	case FieldClientPhone:
		c.header.ClientPhone = value
	case FieldInvoiceNumber:
		c.header.InvoiceNumber = value
	case FieldInvoiceDate:
		c.header.InvoiceDate = value
	case FieldDueDate:
		c.header.DueDate = value
	case FieldNotes:
		c.header.Notes = value
	case FieldStatus:
		if !validStatus(value) {
			return &notify.ValidationError{Err: notify.ErrInvalidValue, Field: "Status"}
		}
		c.header.Status = value
	default:
		return fmt.Errorf("unknown header field %d", int(field))
	}
	c.touch()
	return nil
}

// SelectCustomer copies the matching customer's details into the header.
// An unknown id leaves the header unchanged and reports false.
func (c *Controller) SelectCustomer(id string) bool {
	for _, cust := range c.customers {
		if cust.ID != id {
			continue
		}
		c.header.CustomerID = cust.ID
		c.header.ClientName = cust.Name
		c.header.ClientAddress = cust.Address
		c.header.ClientEmail = cust.Email
		c.header.ClientPhone = cust.Phone
		c.touch()
		return true
	}
	return false
}

// SetItemField edits a line item.
func (c *Controller) SetItemField(index int, field ledger.Field, value string) error {
	if err := c.ledger.SetField(index, field, value); err != nil {
		return err
	}
	c.touch()
	return nil
}

// ActivateRow focuses a line item.
func (c *Controller) ActivateRow(index int) error {
	return c.ledger.ActivateRow(index)
}

// RemoveRow deletes a line item when the ledger allows it.
func (c *Controller) RemoveRow(index int) bool {
	if !c.ledger.RemoveRow(index) {
		return false
	}
	c.touch()
	return true
}

// SetTaxInput sets the tax rate from typed text.
func (c *Controller) SetTaxInput(raw string) {
	c.ledger.SetTaxInput(raw)
	c.touch()
}

// Validate checks the fields a submission requires.
func (c *Controller) Validate() error {
	if strings.TrimSpace(c.header.CustomerID) == "" {
		return notify.Required("Customer")
	}
	if strings.TrimSpace(c.header.InvoiceNumber) == "" {
		return notify.Required("Invoice number")
	}
	return nil
}

// Payload builds the request body from the current draft.
func (c *Controller) Payload() Payload {
	return Payload{
		Header:  c.header,
		Items:   c.ledger.Items(),
		Totals:  c.ledger.Totals(),
		OwnerID: c.owner,
	}
}

// Submit validates the draft and returns the create request.
func (c *Controller) Submit() (Submission, error) {
	return c.begin(false)
}

// SubmitAndPrint is Submit, but success leads to the print view.
func (c *Controller) SubmitAndPrint() (Submission, error) {
	return c.begin(true)
}

func (c *Controller) begin(printing bool) (Submission, error) {
	switch c.phase {
	case PhaseSubmitting:
		return Submission{}, ErrInFlight
	case PhaseSubmitted:
		return Submission{}, ErrSubmitted
	}
	if err := c.Validate(); err != nil {
		return Submission{}, err
	}
	payload := c.Payload()
	payload.Printing = printing
	c.phase = PhaseSubmitting
	return Submission{Payload: payload, create: c.create}, nil
}

// ApplySubmit records a finished submission and says what to do next.
func (c *Controller) ApplySubmit(r SubmitResult) Outcome {
	if c.phase != PhaseSubmitting {
		return Outcome{}
	}
	if r.Err != nil {
		c.phase = PhaseEditing
		return Outcome{Notification: notify.FromError(r.Err, "Failed to create invoice")}
	}
	c.phase = PhaseSubmitted
	if r.Printing {
		return Outcome{Target: TargetPrint, InvoiceID: r.ID}
	}
	return Outcome{
		Notification: notify.Success("Invoice Created Successfully!"),
		Target:       TargetHome,
		InvoiceID:    r.ID,
		Delay:        RedirectDelay,
	}
}

func (c *Controller) touch() {
	if c.phase == PhaseEmpty {
		c.phase = PhaseEditing
	}
}

func validStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}
