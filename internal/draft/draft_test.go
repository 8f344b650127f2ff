package draft

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/invoicer/internal/ledger"
	"github.com/five82/invoicer/internal/notify"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 15, 14, 0, 0, 0, time.UTC) }

type recorder struct {
	payloads []Payload
	id       string
	err      error
}

func (r *recorder) create(_ context.Context, p Payload) (string, error) {
	r.payloads = append(r.payloads, p)
	return r.id, r.err
}

func newDraft(rec *recorder) *Controller {
	c := New(Options{
		OwnerID: "owner-1",
		Create:  rec.create,
		Now:     fixedNow,
		Catalog: ledger.CatalogFunc(func(id string) (ledger.Product, bool) {
			if id == "p1" {
				return ledger.Product{ID: "p1", Name: "Widget", Cost: decimal.NewFromInt(50)}, true
			}
			return ledger.Product{}, false
		}),
	})
	c.SetCustomers([]Customer{{
		ID:      "c1",
		Name:    "Ada",
		Address: "1 Main St, Springfield",
		Email:   "ada@example.com",
		Phone:   "555-0100",
	}})
	return c
}

func TestNew_DefaultsHeader(t *testing.T) {
	c := newDraft(&recorder{})
	assert.Equal(t, PhaseEmpty, c.Phase())
	assert.Equal(t, "2026-10-15", c.Header().InvoiceDate)
	assert.Equal(t, "draft", c.Header().Status)
	assert.Equal(t, 2, c.Ledger().Len())
}

func TestSelectCustomer_CopiesFields(t *testing.T) {
	c := newDraft(&recorder{})
	require.True(t, c.SelectCustomer("c1"))

	h := c.Header()
	assert.Equal(t, "c1", h.CustomerID)
	assert.Equal(t, "Ada", h.ClientName)
	assert.Equal(t, "1 Main St, Springfield", h.ClientAddress)
	assert.Equal(t, "ada@example.com", h.ClientEmail)
	assert.Equal(t, "555-0100", h.ClientPhone)
	assert.Equal(t, PhaseEditing, c.Phase())

	require.NoError(t, c.SetHeader(FieldClientName, "Ada Lovelace"))
	assert.Equal(t, "Ada Lovelace", c.Header().ClientName, "copied fields stay editable")
}

func TestSelectCustomer_UnknownIDLeavesHeaderUnchanged(t *testing.T) {
	c := newDraft(&recorder{})
	require.NoError(t, c.SetHeader(FieldClientName, "Manual"))
	before := c.Header()

	assert.False(t, c.SelectCustomer("nope"))
	assert.Equal(t, before, c.Header())
}

func TestSetHeader_RejectsUnknownStatus(t *testing.T) {
	c := newDraft(&recorder{})
	err := c.SetHeader(FieldStatus, "void")
	assert.ErrorIs(t, err, notify.ErrInvalidValue)
	assert.Equal(t, "draft", c.Header().Status)
	assert.Equal(t, PhaseEmpty, c.Phase())

	require.NoError(t, c.SetHeader(FieldStatus, "paid"))
	assert.Equal(t, "paid", c.Header().Status)
}

func TestSubmit_ValidationNeedsNoNetwork(t *testing.T) {
	rec := &recorder{id: "inv-1"}
	c := newDraft(rec)

	_, err := c.Submit()
	assert.Equal(t, "Customer is required", notify.Describe(err, ""))

	c.SelectCustomer("c1")
	_, err = c.Submit()
	assert.Equal(t, "Invoice number is required", notify.Describe(err, ""))

	assert.Empty(t, rec.payloads)
	assert.Equal(t, PhaseEditing, c.Phase())
}

func TestSubmit_SuccessNotifiesAndRedirectsAfterDelay(t *testing.T) {
	rec := &recorder{id: "inv-1"}
	c := newDraft(rec)
	c.SelectCustomer("c1")
	require.NoError(t, c.SetHeader(FieldInvoiceNumber, "INV-001"))
	require.NoError(t, c.SetItemField(0, ledger.FieldProduct, "p1"))
	require.NoError(t, c.SetItemField(0, ledger.FieldQuantity, "2"))
	require.NoError(t, c.SetItemField(1, ledger.FieldQuantity, "1"))
	require.NoError(t, c.SetItemField(1, ledger.FieldUnitPrice, "30"))
	c.SetTaxInput("10")

	sub, err := c.Submit()
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitting, c.Phase())
	require.Len(t, sub.Payload.Items, 2, "open slot filtered out")
	assert.True(t, sub.Payload.Totals.Total.Equal(decimal.NewFromInt(143)))
	assert.Equal(t, "owner-1", sub.Payload.OwnerID)

	_, err = c.Submit()
	assert.ErrorIs(t, err, ErrInFlight)

	out := c.ApplySubmit(sub.Run(context.Background()))
	assert.Equal(t, PhaseSubmitted, c.Phase())
	assert.Equal(t, TargetHome, out.Target)
	assert.Equal(t, RedirectDelay, out.Delay)
	require.NotNil(t, out.Notification)
	assert.Equal(t, notify.LevelSuccess, out.Notification.Level)
	assert.Len(t, rec.payloads, 1)

	_, err = c.Submit()
	assert.ErrorIs(t, err, ErrSubmitted)
}

func TestSubmitAndPrint_NavigatesToNewInvoice(t *testing.T) {
	rec := &recorder{id: "inv-9"}
	c := newDraft(rec)
	c.SelectCustomer("c1")
	require.NoError(t, c.SetHeader(FieldInvoiceNumber, "INV-009"))

	sub, err := c.SubmitAndPrint()
	require.NoError(t, err)
	assert.True(t, sub.Payload.Printing)

	out := c.ApplySubmit(sub.Run(context.Background()))
	assert.Equal(t, TargetPrint, out.Target)
	assert.Equal(t, "inv-9", out.InvoiceID)
	assert.Nil(t, out.Notification)
	assert.Zero(t, out.Delay)
}

func TestSubmit_FailureReturnsToEditingWithDraftKept(t *testing.T) {
	rec := &recorder{err: &notify.GatewayError{Status: 409, Message: "Invoice number already exists"}}
	c := newDraft(rec)
	c.SelectCustomer("c1")
	require.NoError(t, c.SetHeader(FieldInvoiceNumber, "INV-001"))

	sub, err := c.Submit()
	require.NoError(t, err)
	out := c.ApplySubmit(sub.Run(context.Background()))

	assert.Equal(t, PhaseEditing, c.Phase())
	assert.Equal(t, TargetNone, out.Target)
	require.NotNil(t, out.Notification)
	assert.Equal(t, "Invoice number already exists", out.Notification.Text)
	assert.Equal(t, "INV-001", c.Header().InvoiceNumber)

	rec.err = nil
	_, err = c.Submit()
	assert.NoError(t, err, "draft can be resubmitted after a failure")
}

func TestApplySubmit_IgnoredWhenNotSubmitting(t *testing.T) {
	c := newDraft(&recorder{})
	out := c.ApplySubmit(SubmitResult{ID: "x"})
	assert.Equal(t, Outcome{}, out)
	assert.Equal(t, PhaseEmpty, c.Phase())
}

func TestRemoveRow_TracksEdits(t *testing.T) {
	c := newDraft(&recorder{})
	assert.False(t, c.RemoveRow(0))
	assert.Equal(t, PhaseEmpty, c.Phase())

	require.NoError(t, c.SetItemField(1, ledger.FieldDescription, "Fee"))
	assert.True(t, c.RemoveRow(1))
	assert.Equal(t, PhaseEditing, c.Phase())
}
