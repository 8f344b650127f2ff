package ui

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/query"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// mutation is a write against one record.
type mutation int

const (
	mutCreate mutation = iota
	mutUpdate
	mutDelete
)

func (o mutation) past() string {
	switch o {
	case mutUpdate:
		return "updated"
	case mutDelete:
		return "deleted"
	default:
		return "created"
	}
}

func (o mutation) progressive() string {
	switch o {
	case mutUpdate:
		return "updating"
	case mutDelete:
		return "deleting"
	default:
		return "creating"
	}
}

// mutationMsg reports a finished create, update or delete.
type mutationMsg struct {
	kind query.Kind
	op   mutation
	err  error
}

func recordNoun(kind query.Kind) string {
	switch kind {
	case query.KindCustomers:
		return "Customer"
	case query.KindProducts:
		return "Item"
	default:
		return "Invoice"
	}
}

// mutationNotification is the toast for a finished mutation.
func mutationNotification(msg mutationMsg) *notify.Notification {
	noun := recordNoun(msg.kind)
	if msg.err != nil {
		return notify.FromError(msg.err, "Error "+msg.op.progressive()+" "+strings.ToLower(noun))
	}
	return notify.Success(noun + " " + msg.op.past() + " successfully")
}

func mutationCmd(kind query.Kind, op mutation, do func() error) tea.Cmd {
	return func() tea.Msg {
		return mutationMsg{kind: kind, op: op, err: do()}
	}
}

// Customer form fields, in display order.
const (
	cfFirstName = iota
	cfCompany
	cfEmail
	cfPhone
	cfWebsite
	cfStreet
	cfCity
	cfState
	cfPostalCode
	cfCountry
)

var customerLabels = []string{
	"First name", "Company", "Email", "Phone", "Website",
	"Street", "City", "State", "Postal code", "Country",
}

// Product form fields, in display order.
const (
	pfName = iota
	pfSKU
	pfCategory
	pfInitialQty
	pfSalesPrice
	pfCost
)

var productLabels = []string{"Product name", "SKU", "Category", "Initial quantity", "Sales price", "Cost"}

func customerValues(c api.Customer) []string {
	a := c.BillingAddress
	return []string{
		c.FirstName, c.CompanyName, c.Email, c.Phone, c.Website,
		a.Street, a.City, a.State, a.PostalCode, a.Country,
	}
}

// customerFromValues applies form values onto base, keeping fields the
// form does not show.
func customerFromValues(values []string, base api.Customer) api.Customer {
	v := trimAll(values)
	base.FirstName = v[cfFirstName]
	base.CompanyName = v[cfCompany]
	base.Email = v[cfEmail]
	base.Phone = v[cfPhone]
	base.Website = v[cfWebsite]
	base.BillingAddress = api.Address{
		Street:     v[cfStreet],
		City:       v[cfCity],
		State:      v[cfState],
		PostalCode: v[cfPostalCode],
		Country:    v[cfCountry],
	}
	return base
}

// validateCustomer requires a first name and a well-formed email.
func validateCustomer(c api.Customer) error {
	if c.FirstName == "" {
		return notify.Required("First name")
	}
	if c.Email == "" {
		return notify.Required("Email")
	}
	if !emailPattern.MatchString(c.Email) {
		return &notify.ValidationError{Err: notify.ErrInvalidEmail, Field: "Email"}
	}
	return nil
}

func productValues(p api.Product) []string {
	return []string{
		p.ProductName, p.SKU, p.Category,
		p.InitialQty.String(), p.SalesPrice.String(), p.Cost.String(),
	}
}

// productFromValues validates the form and applies it onto base. Product
// name, initial quantity and cost are required; numbers must not be
// negative. A blank sales price is zero.
func productFromValues(values []string, base api.Product) (api.Product, error) {
	v := trimAll(values)
	if v[pfName] == "" {
		return base, notify.Required("Product name")
	}
	qty, err := parseAmount(v[pfInitialQty], "Initial quantity", true)
	if err != nil {
		return base, err
	}
	cost, err := parseAmount(v[pfCost], "Cost", true)
	if err != nil {
		return base, err
	}
	price, err := parseAmount(v[pfSalesPrice], "Sales price", false)
	if err != nil {
		return base, err
	}
	base.ProductName = v[pfName]
	base.SKU = v[pfSKU]
	base.Category = v[pfCategory]
	base.InitialQty = api.NewAmount(qty)
	base.SalesPrice = api.NewAmount(price)
	base.Cost = api.NewAmount(cost)
	return base, nil
}

func parseAmount(raw, field string, required bool) (decimal.Decimal, error) {
	if raw == "" {
		if required {
			return decimal.Zero, notify.Required(field)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Zero, &notify.ValidationError{Err: notify.ErrInvalidValue, Field: field}
	}
	return d, nil
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

type formField struct {
	label string
	input textinput.Model
}

// recordForm edits one customer or item. It stays open while saving so a
// rejected save can be corrected.
type recordForm struct {
	title  string
	kind   query.Kind
	fields []formField
	focus  int
	err    string
	saving bool
	submit func(values []string) (tea.Cmd, error)
}

func newRecordForm(title string, kind query.Kind, labels, values []string, submit func([]string) (tea.Cmd, error)) *recordForm {
	f := &recordForm{title: title, kind: kind, submit: submit}
	for i, label := range labels {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 200
		ti.Width = 40
		if i < len(values) {
			ti.SetValue(values[i])
		}
		f.fields = append(f.fields, formField{label: label, input: ti})
	}
	f.fields[0].input.Focus()
	return f
}

// newCustomerForm opens a create form when existing is nil, else an edit form.
func newCustomerForm(ctx context.Context, gw api.Gateway, ownerID string, existing *api.Customer) *recordForm {
	base := api.Customer{}
	title := "New customer"
	if existing != nil {
		base = *existing
		title = "Edit customer"
	}
	return newRecordForm(title, query.KindCustomers, customerLabels, customerValues(base), func(values []string) (tea.Cmd, error) {
		c := customerFromValues(values, base)
		if err := validateCustomer(c); err != nil {
			return nil, err
		}
		if existing == nil {
			return mutationCmd(query.KindCustomers, mutCreate, func() error {
				_, err := gw.CreateCustomer(ctx, ownerID, c)
				return err
			}), nil
		}
		return mutationCmd(query.KindCustomers, mutUpdate, func() error {
			return gw.UpdateCustomer(ctx, c.ID, c)
		}), nil
	})
}

// newProductForm opens a create form when existing is nil, else an edit form.
func newProductForm(ctx context.Context, gw api.Gateway, ownerID string, existing *api.Product) *recordForm {
	base := api.Product{}
	values := make([]string, len(productLabels))
	title := "New item"
	if existing != nil {
		base = *existing
		values = productValues(base)
		title = "Edit item"
	}
	return newRecordForm(title, query.KindProducts, productLabels, values, func(values []string) (tea.Cmd, error) {
		p, err := productFromValues(values, base)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return mutationCmd(query.KindProducts, mutCreate, func() error {
				_, err := gw.CreateProduct(ctx, ownerID, p)
				return err
			}), nil
		}
		return mutationCmd(query.KindProducts, mutUpdate, func() error {
			return gw.UpdateProduct(ctx, p.ID, p)
		}), nil
	})
}

func (f *recordForm) values() []string {
	out := make([]string, len(f.fields))
	for i, fld := range f.fields {
		out[i] = fld.input.Value()
	}
	return out
}

func (f *recordForm) setFocus(i int) tea.Cmd {
	n := len(f.fields)
	f.fields[f.focus].input.Blur()
	f.focus = (i + n) % n
	return f.fields[f.focus].input.Focus()
}

// rejected reopens the form for editing after a failed save.
func (f *recordForm) rejected(text string) {
	f.saving = false
	f.err = text
}

// Update implements Modal.
func (f *recordForm) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil, false
	}
	if key.Matches(km, keys.Escape) {
		return f, nil, true
	}
	if f.saving {
		return f, nil, false
	}

	switch {
	case key.Matches(km, keys.Save),
		key.Matches(km, keys.Confirm) && f.focus == len(f.fields)-1:
		cmd, err := f.submit(f.values())
		if err != nil {
			f.err = notify.Describe(err, "")
			return f, nil, false
		}
		f.err = ""
		f.saving = true
		return f, cmd, false
	case key.Matches(km, keys.NextField), key.Matches(km, keys.Confirm):
		return f, f.setFocus(f.focus + 1), false
	case key.Matches(km, keys.PrevField):
		return f, f.setFocus(f.focus - 1), false
	}

	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(km)
	return f, cmd, false
}

// View implements Modal.
func (f *recordForm) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(f.title))
	b.WriteString("\n\n")
	for i, fld := range f.fields {
		label := styles.MutedText
		if i == f.focus {
			label = styles.AccentText
		}
		b.WriteString(label.Width(18).Render(fld.label))
		b.WriteString(fld.input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case f.saving:
		b.WriteString(styles.WarningText.Render("Saving..."))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(f.err))
	default:
		b.WriteString(styles.FaintText.Render("ctrl+s save · tab next field · esc cancel"))
	}
	return placeModal(theme, b.String(), 64, width, height)
}

// confirmModal asks before an irreversible action.
type confirmModal struct {
	title  string
	prompt string
	onYes  tea.Cmd
}

func newDeleteConfirm(kind query.Kind, label string, onYes tea.Cmd) *confirmModal {
	noun := strings.ToLower(recordNoun(kind))
	return &confirmModal{
		title:  "Delete " + noun,
		prompt: "Delete " + noun + " \"" + label + "\"? This cannot be undone.",
		onYes:  onYes,
	}
}

// Update implements Modal.
func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Yes):
		return c, c.onYes, true
	case key.Matches(km, keys.No):
		return c, nil, true
	}
	return c, nil, false
}

// View implements Modal.
func (c *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	content := styles.DangerText.Render(c.title) + "\n\n" +
		styles.Text.Render(c.prompt) + "\n\n" +
		styles.AccentText.Render("y") + styles.MutedText.Render(" delete   ") +
		styles.AccentText.Render("n") + styles.MutedText.Render(" cancel")
	return placeModal(theme, content, 50, width, height)
}

// placeModal centers content in a rounded box.
func placeModal(theme Theme, content string, modalWidth, width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(min(modalWidth, max(width-4, 20))).
		Render(content)
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
