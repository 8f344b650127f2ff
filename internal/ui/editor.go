package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/invoicer/internal/draft"
	"github.com/five82/invoicer/internal/ledger"
	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/state"
)

// submitResultMsg carries a finished draft submission.
type submitResultMsg draft.SubmitResult

// cellKind is the kind of an editor field.
type cellKind int

const (
	cellCustomer cellKind = iota
	cellStatus
	cellHeader
	cellItem
	cellTax
)

// cell addresses one focusable editor field.
type cell struct {
	kind   cellKind
	header draft.HeaderField
	row    int
	field  ledger.Field
}

func (c cell) picker() bool {
	return c.kind == cellCustomer || c.kind == cellStatus || (c.kind == cellItem && c.field == ledger.FieldProduct)
}

var headerCells = []struct {
	field draft.HeaderField
	label string
}{
	{draft.FieldInvoiceNumber, "Invoice number"},
	{draft.FieldInvoiceDate, "Invoice date"},
	{draft.FieldDueDate, "Due date"},
	{draft.FieldClientName, "Client name"},
	{draft.FieldClientAddress, "Client address"},
	{draft.FieldClientEmail, "Client email"},
	{draft.FieldClientPhone, "Client phone"},
	{draft.FieldNotes, "Notes"},
}

// editor is the invoice draft screen.
type editor struct {
	ctx     context.Context
	draft   *draft.Controller
	catalog *state.Store
	input   textinput.Model
	focus   int
}

func newEditor(ctx context.Context, store *state.Store, ownerID string, create draft.CreateFunc) *editor {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 200

	var catalog ledger.Catalog
	if store != nil {
		catalog = store
	}
	e := &editor{
		ctx:     ctx,
		draft:   draft.New(draft.Options{OwnerID: ownerID, Catalog: catalog, Create: create}),
		catalog: store,
		input:   ti,
	}
	e.syncCustomers()
	e.focusCell(0)
	return e
}

// syncCustomers refreshes the selectable customers from the catalog.
func (e *editor) syncCustomers() {
	if e.catalog != nil {
		e.draft.SetCustomers(e.catalog.DraftCustomers())
	}
}

// cells lists the focusable fields in tab order.
func (e *editor) cells() []cell {
	cells := []cell{{kind: cellCustomer}, {kind: cellStatus}}
	for _, h := range headerCells {
		cells = append(cells, cell{kind: cellHeader, header: h.field})
	}
	for i := 0; i < e.draft.Ledger().Len(); i++ {
		for _, f := range []ledger.Field{ledger.FieldProduct, ledger.FieldDescription, ledger.FieldQuantity, ledger.FieldUnitPrice} {
			cells = append(cells, cell{kind: cellItem, row: i, field: f})
		}
	}
	return append(cells, cell{kind: cellTax})
}

func (e *editor) current() cell {
	cells := e.cells()
	if e.focus >= len(cells) {
		e.focus = len(cells) - 1
	}
	return cells[e.focus]
}

// text returns the typed value of a text cell.
func (e *editor) text(c cell) string {
	h := e.draft.Header()
	switch c.kind {
	case cellHeader:
		return headerValue(h, c.header)
	case cellTax:
		return e.draft.Ledger().TaxText()
	case cellItem:
		row, err := e.draft.Ledger().Row(c.row)
		if err != nil {
			return ""
		}
		switch c.field {
		case ledger.FieldDescription:
			return row.Description
		case ledger.FieldQuantity:
			return row.Quantity
		case ledger.FieldUnitPrice:
			return row.UnitPrice
		}
	}
	return ""
}

func headerValue(h draft.Header, f draft.HeaderField) string {
	switch f {
	case draft.FieldClientName:
		return h.ClientName
	case draft.FieldClientAddress:
		return h.ClientAddress
	case draft.FieldClientEmail:
		return h.ClientEmail
	case draft.FieldClientPhone:
		return h.ClientPhone
	case draft.FieldInvoiceNumber:
		return h.InvoiceNumber
	case draft.FieldInvoiceDate:
		return h.InvoiceDate
	case draft.FieldDueDate:
		return h.DueDate
	case draft.FieldNotes:
		return h.Notes
	case draft.FieldStatus:
		return h.Status
	}
	return ""
}

// focusCell moves focus to index i. Focusing an existing line makes it the
// active line; the open slot only becomes a line once it is edited.
func (e *editor) focusCell(i int) tea.Cmd {
	cells := e.cells()
	e.focus = (i + len(cells)) % len(cells)
	c := cells[e.focus]
	if c.kind == cellItem && c.row < e.draft.Ledger().Len()-1 {
		_ = e.draft.ActivateRow(c.row)
	}
	if c.picker() {
		e.input.Blur()
		return nil
	}
	e.input.SetValue(e.text(c))
	e.input.CursorEnd()
	return e.input.Focus()
}

// setText writes the input's value back into the draft.
func (e *editor) setText(c cell, value string) error {
	switch c.kind {
	case cellHeader:
		return e.draft.SetHeader(c.header, value)
	case cellTax:
		e.draft.SetTaxInput(value)
	case cellItem:
		return e.draft.SetItemField(c.row, c.field, value)
	}
	return nil
}

// cycle steps a picker cell through its options.
func (e *editor) cycle(c cell, step int) {
	switch c.kind {
	case cellCustomer:
		customers := e.draft.Customers()
		if len(customers) == 0 {
			return
		}
		ids := make([]string, len(customers))
		for i, cust := range customers {
			ids[i] = cust.ID
		}
		e.draft.SelectCustomer(stepOption(ids, e.draft.Header().CustomerID, step))
	case cellStatus:
		_ = e.draft.SetHeader(draft.FieldStatus, stepOption(draft.Statuses, e.draft.Header().Status, step))
	case cellItem:
		if e.catalog == nil {
			return
		}
		products := e.catalog.Snapshot().Products
		if len(products) == 0 {
			return
		}
		ids := make([]string, len(products))
		for i, p := range products {
			ids[i] = p.ID
		}
		row, err := e.draft.Ledger().Row(c.row)
		if err != nil {
			return
		}
		_ = e.draft.SetItemField(c.row, ledger.FieldProduct, stepOption(ids, row.ProductID, step))
	}
}

// stepOption returns the option step places after current, wrapping. An
// unknown current starts from the first option.
func stepOption(options []string, current string, step int) string {
	if len(options) == 0 {
		return current
	}
	for i, o := range options {
		if o == current {
			n := len(options)
			return options[((i+step)%n+n)%n]
		}
	}
	return options[0]
}

// submit starts a submission. printing sends the user to the print view
// after the invoice is stored.
func (e *editor) submit(printing bool) (tea.Cmd, *notify.Notification) {
	var (
		sub draft.Submission
		err error
	)
	if printing {
		sub, err = e.draft.SubmitAndPrint()
	} else {
		sub, err = e.draft.Submit()
	}
	switch {
	case errors.Is(err, draft.ErrInFlight):
		return nil, notify.Info("Invoice is being saved")
	case errors.Is(err, draft.ErrSubmitted):
		return nil, notify.Info("Invoice already saved")
	case err != nil:
		return nil, notify.FromError(err, "Failed to create invoice")
	}
	ctx := e.ctx
	return func() tea.Msg {
		return submitResultMsg(sub.Run(ctx))
	}, nil
}

// handleKey processes editor input. It returns leave=true when the user
// backs out of the editor.
func (e *editor) handleKey(msg tea.KeyMsg, keys keyMap) (cmd tea.Cmd, n *notify.Notification, leave bool) {
	if e.draft.Phase() == draft.PhaseSubmitting && !key.Matches(msg, keys.Escape) {
		return nil, nil, false
	}
	c := e.current()
	switch {
	case key.Matches(msg, keys.Escape):
		return nil, nil, true
	case key.Matches(msg, keys.Save):
		cmd, n = e.submit(false)
		return cmd, n, false
	case key.Matches(msg, keys.SavePrint):
		cmd, n = e.submit(true)
		return cmd, n, false
	case key.Matches(msg, keys.NextField):
		return e.focusCell(e.focus + 1), nil, false
	case key.Matches(msg, keys.PrevField):
		return e.focusCell(e.focus - 1), nil, false
	case key.Matches(msg, keys.RemoveRow):
		if c.kind == cellItem && e.draft.RemoveRow(c.row) {
			return e.focusCell(e.focus), nil, false
		}
		return nil, nil, false
	}

	if c.picker() {
		switch {
		case key.Matches(msg, keys.PrevOption):
			e.cycle(c, -1)
		case key.Matches(msg, keys.NextOption), key.Matches(msg, keys.Confirm):
			e.cycle(c, 1)
		}
		return nil, nil, false
	}
	if key.Matches(msg, keys.Confirm) {
		return e.focusCell(e.focus + 1), nil, false
	}

	var inputCmd tea.Cmd
	e.input, inputCmd = e.input.Update(msg)
	if err := e.setText(c, e.input.Value()); err != nil {
		n = notify.FromError(err, "")
	}
	return inputCmd, n, false
}

// view renders the editor inside a titled box.
func (e *editor) view(theme Theme, width, height int) string {
	styles := theme.Styles().WithBackground(theme.FocusBg)
	bg := NewBgStyle(theme.FocusBg)
	inner := width - 2
	focused := e.current()

	var lines []string
	focusLine := 0
	mark := func(c cell) {
		if c == focused {
			focusLine = len(lines)
		}
	}
	field := func(label, value string, c cell) string {
		labelStyle := styles.MutedText
		if c == focused {
			labelStyle = styles.AccentText
		}
		return bg.Render(padRight(label, 16), labelStyle) + bg.Space() + value
	}

	h := e.draft.Header()
	customerCell := cell{kind: cellCustomer}
	mark(customerCell)
	customer := h.ClientName
	if h.CustomerID == "" {
		customer = "select with ← →"
	}
	lines = append(lines, field("Customer", e.pickerText(customer, customerCell, styles, bg), customerCell))

	statusCell := cell{kind: cellStatus}
	mark(statusCell)
	lines = append(lines, field("Status", e.pickerText(titleCase(h.Status), statusCell, styles, bg), statusCell))

	for _, hc := range headerCells {
		c := cell{kind: cellHeader, header: hc.field}
		mark(c)
		lines = append(lines, field(hc.label, e.textValue(c, headerValue(h, hc.field), styles, bg), c))
	}

	lines = append(lines, "")
	widths := layoutColumns([]int{1, 5, 6, 2, 3, 3}, inner)
	heading := []string{"#", "Product", "Description", "Qty", "Unit price", "Amount"}
	for i := range heading {
		heading[i] = bg.Render(fit(heading[i], widths[i]), styles.MutedText.Bold(true))
	}
	lines = append(lines, strings.Join(heading, bg.Space()))

	rows := e.draft.Ledger().Rows()
	for i, row := range rows {
		product := row.ProductID
		if row.ProductID != "" && e.catalog != nil {
			if p, ok := e.catalog.Product(row.ProductID); ok {
				product = p.Name
			}
		}
		num := fmt.Sprintf("%d", i+1)
		if i == len(rows)-1 {
			num = "+"
		}
		cols := []string{bg.Render(fit(num, widths[0]), styles.FaintText)}
		for j, f := range []ledger.Field{ledger.FieldProduct, ledger.FieldDescription, ledger.FieldQuantity, ledger.FieldUnitPrice} {
			c := cell{kind: cellItem, row: i, field: f}
			mark(c)
			var value string
			if f == ledger.FieldProduct {
				value = e.pickerText(product, c, styles, bg)
			} else {
				value = e.textValue(c, e.text(c), styles, bg)
			}
			cols = append(cols, bg.FillLine(value, widths[j+1]))
		}
		amount := ""
		if !row.Blank() {
			amount = row.Amount.StringFixed(2)
		}
		cols = append(cols, bg.Render(fit(amount, widths[5]), styles.Text))
		lines = append(lines, strings.Join(cols, bg.Space()))
	}

	totals := e.draft.Totals()
	taxCell := cell{kind: cellTax}
	lines = append(lines, "")
	lines = append(lines, field("Subtotal", bg.Render(totals.SubTotal.StringFixed(2), styles.Text), cell{kind: -1}))
	mark(taxCell)
	lines = append(lines, field("Tax %", e.textValue(taxCell, e.draft.Ledger().TaxText(), styles, bg)+
		bg.Spaces(2)+bg.Render(totals.TaxAmount.StringFixed(2), styles.MutedText), taxCell))
	lines = append(lines, field("Total", bg.Render(totals.Total.StringFixed(2), styles.SuccessText), cell{kind: -1}))

	body := window(lines, focusLine, height-3)
	for len(body) < height-3 {
		body = append(body, "")
	}
	body = append(body, bg.Render(e.statusLine(), styles.FaintText))

	return renderTitledBox(theme, "New invoice", strings.Join(body, "\n"), width, height, true)
}

func (e *editor) pickerText(value string, c cell, styles Styles, bg BgStyle) string {
	if c == e.current() {
		return bg.Render("‹ "+value+" ›", styles.AccentText)
	}
	return bg.Render(value, styles.Text)
}

func (e *editor) textValue(c cell, value string, styles Styles, bg BgStyle) string {
	if c == e.current() {
		return e.input.View()
	}
	return bg.Render(value, styles.Text)
}

func (e *editor) statusLine() string {
	switch e.draft.Phase() {
	case draft.PhaseSubmitting:
		return "Saving invoice..."
	case draft.PhaseSubmitted:
		return "Invoice saved"
	default:
		return "tab next · ← → choose · ctrl+x remove line · ctrl+s save · ctrl+p save and print · esc cancel"
	}
}
