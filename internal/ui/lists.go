package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/listsync"
	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/query"
)

// Lists holds the synchronizer behind each list view.
type Lists struct {
	Customers *listsync.Synchronizer[api.Customer]
	Products  *listsync.Synchronizer[api.Product]
	Invoices  *listsync.Synchronizer[api.Invoice]
}

// pageSizes is the page-size cycle offered by the size key.
var pageSizes = []int{10, 20, 50}

func nextPageSize(current int) int {
	for i, n := range pageSizes {
		if n == current {
			return pageSizes[(i+1)%len(pageSizes)]
		}
	}
	return pageSizes[0]
}

// listAction is what a list key asks the model to do beyond fetching.
type listAction int

const (
	actionNone listAction = iota
	actionOpen
	actionNew
	actionDelete
	actionPageSize
)

// listResultMsg carries a listsync.Result back to the update loop.
type listResultMsg struct {
	kind   query.Kind
	result any
}

// column describes one list column.
type column[T any] struct {
	title  string
	sort   string // sort field sent to the backend; empty when not sortable
	weight int
	value  func(T) string
	// status, when set, colors the cell by the invoice status it returns.
	status func(T) api.InvoiceStatus
}

// listPane is the kind-independent face of a list view.
type listPane interface {
	Kind() query.Kind
	Title() string
	Fetch() tea.Cmd
	HandleKey(msg tea.KeyMsg, keys keyMap) (tea.Cmd, listAction)
	Apply(result any) (tea.Cmd, *notify.Notification)
	Searching() bool
	Selected() (id, label string, ok bool)
	PageSize() int
	View(theme Theme, width, height int) string
}

// listView renders one Synchronizer as a selectable table.
type listView[T any] struct {
	ctx     context.Context
	sync    *listsync.Synchronizer[T]
	columns []column[T]
	id      func(T) string
	label   func(T) string

	selected  int
	searching bool
	search    textinput.Model
}

func newListView[T any](ctx context.Context, sync *listsync.Synchronizer[T], columns []column[T], id, label func(T) string) *listView[T] {
	ti := textinput.New()
	ti.Placeholder = "Search " + strings.ToLower(sync.Descriptor().Title) + "..."
	ti.CharLimit = 100
	ti.Prompt = "/"
	return &listView[T]{
		ctx:     ctx,
		sync:    sync,
		columns: columns,
		id:      id,
		label:   label,
		search:  ti,
	}
}

func (v *listView[T]) Kind() query.Kind { return v.sync.Descriptor().Kind }

func (v *listView[T]) Title() string { return v.sync.Descriptor().Title }

func (v *listView[T]) Searching() bool { return v.searching }

func (v *listView[T]) PageSize() int { return v.sync.State().PageSize }

// Fetch reloads the current page.
func (v *listView[T]) Fetch() tea.Cmd {
	return v.run(v.sync.Refresh())
}

func (v *listView[T]) run(f listsync.Fetch[T]) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		return listResultMsg{kind: f.Kind, result: f.Run(ctx)}
	}
}

// Apply reconciles a fetch result. A followup fetch is returned when the
// applied page lay past the end.
func (v *listView[T]) Apply(result any) (tea.Cmd, *notify.Notification) {
	r, ok := result.(listsync.Result[T])
	if !ok {
		return nil, nil
	}
	out := v.sync.Apply(r)
	v.clampSelection()
	var cmd tea.Cmd
	if out.Followup != nil {
		cmd = v.run(*out.Followup)
	}
	return cmd, out.Notification
}

func (v *listView[T]) Selected() (string, string, bool) {
	records := v.sync.Records()
	if v.selected < 0 || v.selected >= len(records) {
		return "", "", false
	}
	rec := records[v.selected]
	return v.id(rec), v.label(rec), true
}

func (v *listView[T]) record(id string) (T, bool) {
	for _, rec := range v.sync.Records() {
		if v.id(rec) == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

func (v *listView[T]) clampSelection() {
	n := len(v.sync.Records())
	if v.selected >= n {
		v.selected = n - 1
	}
	if v.selected < 0 {
		v.selected = 0
	}
}

// HandleKey processes keyboard input for the list.
func (v *listView[T]) HandleKey(msg tea.KeyMsg, keys keyMap) (tea.Cmd, listAction) {
	if v.searching {
		return v.handleSearchKey(msg, keys), actionNone
	}

	count := len(v.sync.Records())
	switch {
	case key.Matches(msg, keys.Down):
		if v.selected < count-1 {
			v.selected++
		}
	case key.Matches(msg, keys.Up):
		if v.selected > 0 {
			v.selected--
		}
	case key.Matches(msg, keys.Top):
		v.selected = 0
	case key.Matches(msg, keys.Bottom):
		v.selected = max(count-1, 0)
	case key.Matches(msg, keys.Search):
		v.searching = true
		v.search.SetValue(v.sync.State().SearchTerm)
		v.search.CursorEnd()
		return v.search.Focus(), actionNone
	case key.Matches(msg, keys.Escape):
		// Esc on a filtered list clears the search.
		if v.sync.State().SearchTerm != "" {
			return v.run(v.sync.SetSearchTerm("")), actionNone
		}
	case key.Matches(msg, keys.NextPage):
		if f, ok := v.sync.NextPage(); ok {
			v.selected = 0
			return v.run(f), actionNone
		}
	case key.Matches(msg, keys.PrevPage):
		if f, ok := v.sync.PrevPage(); ok {
			v.selected = 0
			return v.run(f), actionNone
		}
	case key.Matches(msg, keys.PageSize):
		v.selected = 0
		return v.run(v.sync.SetPageSize(nextPageSize(v.PageSize()))), actionPageSize
	case key.Matches(msg, keys.Refresh):
		return v.Fetch(), actionNone
	case key.Matches(msg, keys.Open):
		if count > 0 {
			return nil, actionOpen
		}
	case key.Matches(msg, keys.New):
		return nil, actionNew
	case key.Matches(msg, keys.Delete):
		if count > 0 {
			return nil, actionDelete
		}
	default:
		if field, ok := v.sortKey(msg.String()); ok {
			v.selected = 0
			return v.run(v.sync.SetSortField(field)), actionNone
		}
	}
	return nil, actionNone
}

// sortKey maps "1".."9" to the sort field of that column.
func (v *listView[T]) sortKey(s string) (string, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > len(v.columns) {
		return "", false
	}
	field := v.columns[n-1].sort
	if field == "" || !v.sync.Descriptor().Sortable(field) {
		return "", false
	}
	return field, true
}

// handleSearchKey edits the search box. Only Enter runs the search.
func (v *listView[T]) handleSearchKey(msg tea.KeyMsg, keys keyMap) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Confirm):
		v.searching = false
		v.search.Blur()
		v.selected = 0
		return v.run(v.sync.SetSearchTerm(v.search.Value()))
	case key.Matches(msg, keys.Escape):
		v.searching = false
		v.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	return cmd
}

// View renders the list inside a titled box.
func (v *listView[T]) View(theme Theme, width, height int) string {
	inner := width - 2
	bg := NewBgStyle(theme.FocusBg)
	styles := theme.Styles()

	lines := []string{v.renderColumnHeader(theme, inner)}
	records := v.sync.Records()
	switch {
	case !v.sync.Loaded():
		lines = append(lines, bg.Render("Loading...", styles.MutedText))
	case len(records) == 0:
		lines = append(lines, bg.Render("No "+strings.ToLower(v.Title())+" found", styles.MutedText))
	default:
		for i, rec := range records {
			lines = append(lines, v.renderRow(theme, rec, inner, i == v.selected))
		}
	}

	body := height - 2
	for len(lines) < body-1 {
		lines = append(lines, "")
	}
	if len(lines) > body-1 {
		lines = lines[:max(body-1, 1)]
	}
	lines = append(lines, v.renderFooter(theme, inner))

	return renderTitledBox(theme, v.boxTitle(), strings.Join(lines, "\n"), width, height, true)
}

func (v *listView[T]) boxTitle() string {
	p := v.sync.Pagination()
	title := fmt.Sprintf("%s (%d)", v.Title(), p.TotalRecords)
	if term := v.sync.State().SearchTerm; term != "" {
		title += " /" + truncate(term, 20)
	}
	return title
}

func (v *listView[T]) renderColumnHeader(theme Theme, width int) string {
	bg := NewBgStyle(theme.FocusBg)
	styles := theme.Styles()
	state := v.sync.State()
	widths := layoutColumns(v.weights(), width)

	parts := make([]string, len(v.columns))
	for i, col := range v.columns {
		title := col.title
		if col.sort != "" {
			title = fmt.Sprintf("%d %s", i+1, title)
			if col.sort == state.SortField {
				title += ternary(state.SortOrder == query.Asc, " ▲", " ▼")
			}
		}
		parts[i] = bg.Render(fit(title, widths[i]), styles.MutedText.Bold(true))
	}
	return strings.Join(parts, bg.Space())
}

func (v *listView[T]) renderRow(theme Theme, rec T, width int, selected bool) string {
	styles := theme.Styles()
	base := lipgloss.NewStyle().
		Background(lipgloss.Color(theme.FocusBg)).
		Foreground(lipgloss.Color(theme.Text))
	if selected {
		base = styles.Selected
	}

	widths := layoutColumns(v.weights(), width)
	cells := make([]string, len(v.columns))
	for i, col := range v.columns {
		style := base
		if col.status != nil && !selected {
			style = styles.StatusStyle(col.status(rec)).Background(lipgloss.Color(theme.FocusBg))
		}
		cells[i] = style.Render(fit(col.value(rec), widths[i]))
	}
	return base.Width(width).Render(strings.Join(cells, base.Render(" ")))
}

func (v *listView[T]) renderFooter(theme Theme, width int) string {
	bg := NewBgStyle(theme.FocusBg)
	styles := theme.Styles()
	p := v.sync.Pagination()

	parts := []string{
		bg.Render(pagerText(v.sync.Pager()), styles.AccentText),
		bg.Render(fmt.Sprintf("page %d of %d", p.CurrentPage, p.TotalPages), styles.MutedText),
		bg.Render(fmt.Sprintf("%d per page", v.PageSize()), styles.FaintText),
	}
	if v.sync.Loading() {
		parts = append(parts, bg.Render("loading", styles.WarningText))
	}
	line := bg.Join(parts, "  ")
	if v.searching {
		line = v.search.View()
	}
	return bg.FillLine(line, width)
}

func (v *listView[T]) weights() []int {
	w := make([]int, len(v.columns))
	for i, c := range v.columns {
		w[i] = c.weight
	}
	return w
}

// layoutColumns splits width, less one space between columns, in
// proportion to weights. Every column gets at least one cell.
func layoutColumns(weights []int, width int) []int {
	out := make([]int, len(weights))
	if len(weights) == 0 {
		return out
	}
	avail := width - (len(weights) - 1)
	total := 0
	for _, w := range weights {
		total += max(w, 1)
	}
	used := 0
	for i, w := range weights {
		out[i] = max(avail*max(w, 1)/total, 1)
		used += out[i]
	}
	// Hand the rounding remainder to the last column.
	if rest := avail - used; rest > 0 {
		out[len(out)-1] += rest
	}
	return out
}

// pagerText draws every page button with the current one bracketed.
func pagerText(p query.Pager) string {
	var b strings.Builder
	b.WriteString(ternary(p.PrevDisabled, "·", "‹"))
	for _, n := range p.Pages {
		b.WriteString(" ")
		if n == p.Current {
			fmt.Fprintf(&b, "[%d]", n)
		} else {
			b.WriteString(strconv.Itoa(n))
		}
	}
	b.WriteString(" ")
	b.WriteString(ternary(p.NextDisabled, "·", "›"))
	return b.String()
}

func customerColumns() []column[api.Customer] {
	return []column[api.Customer]{
		{title: "Name", sort: "FirstName", weight: 3, value: customerName},
		{title: "Email", sort: "Email", weight: 4, value: func(c api.Customer) string { return c.Email }},
		{title: "Phone", sort: "Phone", weight: 2, value: func(c api.Customer) string { return c.Phone }},
		{title: "Address", sort: "address", weight: 5, value: func(c api.Customer) string { return c.BillingAddress.OneLine() }},
		{title: "Added", sort: "createdAt", weight: 2, value: func(c api.Customer) string { return shortDate(c.CreatedAt) }},
	}
}

func productColumns() []column[api.Product] {
	return []column[api.Product]{
		{title: "Product", sort: "ProductName", weight: 4, value: func(p api.Product) string { return p.ProductName }},
		{title: "SKU", sort: "SKU", weight: 2, value: func(p api.Product) string { return p.SKU }},
		{title: "Category", sort: "Category", weight: 3, value: func(p api.Product) string { return p.Category }},
		{title: "Qty", sort: "InitialQty", weight: 1, value: func(p api.Product) string { return p.InitialQty.String() }},
		{title: "Price", sort: "SalesPrice", weight: 2, value: func(p api.Product) string { return p.SalesPrice.StringFixed(2) }},
		{title: "Cost", sort: "Cost", weight: 2, value: func(p api.Product) string { return p.Cost.StringFixed(2) }},
	}
}

func invoiceColumns() []column[api.Invoice] {
	return []column[api.Invoice]{
		{title: "Number", weight: 2, value: func(i api.Invoice) string { return i.InvoiceNumber }},
		{title: "Client", weight: 4, value: func(i api.Invoice) string { return i.ClientName }},
		{title: "Date", weight: 2, value: func(i api.Invoice) string { return shortDate(i.InvoiceDate) }},
		{title: "Due", weight: 2, value: func(i api.Invoice) string { return shortDate(i.DueDate) }},
		{title: "Total", weight: 2, value: func(i api.Invoice) string { return i.Total.StringFixed(2) }},
		{title: "Status", weight: 2, value: func(i api.Invoice) string { return titleCase(string(i.Status)) }, status: invoiceStatus},
		{title: "Created", sort: "createdAt", weight: 2, value: func(i api.Invoice) string { return shortDate(i.CreatedAt) }},
	}
}

func invoiceStatus(i api.Invoice) api.InvoiceStatus { return i.Status }

func customerName(c api.Customer) string {
	if strings.TrimSpace(c.FirstName) != "" {
		return c.FirstName
	}
	return c.CompanyName
}

func shortDate(value string) string {
	ts := api.ParseDate(value)
	if ts.IsZero() {
		return strings.TrimSpace(value)
	}
	return ts.Format("2006-01-02")
}
