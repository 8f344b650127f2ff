package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/config"
	"github.com/five82/invoicer/internal/draft"
	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/prefs"
	"github.com/five82/invoicer/internal/query"
	"github.com/five82/invoicer/internal/session"
	"github.com/five82/invoicer/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewCustomers View = iota
	ViewProducts
	ViewInvoices
	ViewEditor
	ViewPrint
	ViewLogs
)

// listViews is the tab order of the list views.
var listViews = []View{ViewCustomers, ViewProducts, ViewInvoices}

// Options configures the UI.
type Options struct {
	Context        context.Context
	Gateway        api.Gateway
	Store          *state.Store
	Session        session.Session
	Config         *config.Config
	Lists          Lists
	CreateInvoice  draft.CreateFunc
	RefreshCatalog func()
	ThemeName      string
	Prefs          prefs.Prefs
	PrefsPath      string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx            context.Context
	gateway        api.Gateway
	store          *state.Store
	session        session.Session
	config         *config.Config
	createInvoice  draft.CreateFunc
	refreshCatalog func()
	prefs          prefs.Prefs
	prefsPath      string

	// UI state
	keys        keyMap
	theme       Theme
	currentView View
	lastList    View
	width       int
	height      int
	ready       bool

	// Lists
	customers *listView[api.Customer]
	products  *listView[api.Product]
	invoices  *listView[api.Invoice]

	// Data state
	snapshot state.Snapshot
	tray     *notify.Tray

	modal    Modal
	showHelp bool

	editor *editor
	print  printState
	logs   logState

	now func() time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:            ctx,
		gateway:        opts.Gateway,
		store:          opts.Store,
		session:        opts.Session,
		config:         opts.Config,
		createInvoice:  opts.CreateInvoice,
		refreshCatalog: opts.RefreshCatalog,
		prefs:          opts.Prefs,
		prefsPath:      prefsPath,
		keys:           DefaultKeyMap(),
		theme:          GetTheme(themeName),
		currentView:    ViewInvoices,
		lastList:       ViewInvoices,
		tray:           notify.NewTray(maxToasts),
		now:            time.Now,
	}
	if opts.Lists.Customers != nil {
		m.customers = newListView(ctx, opts.Lists.Customers, customerColumns(),
			func(c api.Customer) string { return c.ID }, customerName)
	}
	if opts.Lists.Products != nil {
		m.products = newListView(ctx, opts.Lists.Products, productColumns(),
			func(p api.Product) string { return p.ID },
			func(p api.Product) string { return p.ProductName })
	}
	if opts.Lists.Invoices != nil {
		m.invoices = newListView(ctx, opts.Lists.Invoices, invoiceColumns(),
			func(i api.Invoice) string { return i.ID },
			func(i api.Invoice) string { return i.InvoiceNumber })
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(DefaultUIInterval),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	for _, v := range listViews {
		if p := m.paneFor(v); p != nil {
			cmds = append(cmds, p.Fetch())
		}
	}
	return tea.Batch(cmds...)
}

// paneFor returns the list pane behind v, or nil.
func (m Model) paneFor(v View) listPane {
	switch v {
	case ViewCustomers:
		if m.customers != nil {
			return m.customers
		}
	case ViewProducts:
		if m.products != nil {
			return m.products
		}
	case ViewInvoices:
		if m.invoices != nil {
			return m.invoices
		}
	}
	return nil
}

// pane returns the list pane in view, or nil outside the list views.
func (m Model) pane() listPane {
	return m.paneFor(m.currentView)
}

func viewForKind(k query.Kind) View {
	switch k {
	case query.KindCustomers:
		return ViewCustomers
	case query.KindProducts:
		return ViewProducts
	default:
		return ViewInvoices
	}
}

func isListView(v View) bool {
	return v == ViewCustomers || v == ViewProducts || v == ViewInvoices
}

// notify queues a toast.
func (m *Model) notify(n *notify.Notification) {
	if n != nil {
		m.tray.Push(n, m.now())
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogState()
		}
		m.ready = true
		m.updatePrintViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		if m.editor != nil {
			m.editor.syncCustomers()
		}
		return m, nil

	case listResultMsg:
		p := m.paneFor(viewForKind(msg.kind))
		if p == nil {
			return m, nil
		}
		cmd, n := p.Apply(msg.result)
		m.notify(n)
		return m, cmd

	case mutationMsg:
		return m.handleMutation(msg)

	case submitResultMsg:
		return m.handleSubmitResult(msg)

	case navigateMsg:
		m.editor = nil
		m.switchTo(msg.view)
		if p := m.pane(); p != nil {
			return m, p.Fetch()
		}
		return m, nil

	case printLoadedMsg:
		m.notify(m.handlePrintLoaded(msg))
		return m, nil

	case exportMsg:
		if msg.err != nil {
			m.notify(notify.FromError(msg.err, "Export failed"))
			return m, nil
		}
		slog.Info("invoice exported", "path", msg.path)
		m.notify(notify.Success("Exported " + msg.path))
		return m, nil

	case logBatchMsg:
		m.handleLogBatch(msg)
		return m, nil
	}

	// Cursor blink and similar messages belong to whichever input is live.
	return m.forwardToInputs(msg)
}

func (m Model) forwardToInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		var cmd tea.Cmd
		m.modal, cmd, _ = m.modal.Update(msg, m.keys)
		return m, cmd
	}
	if m.currentView == ViewEditor && m.editor != nil {
		var cmd tea.Cmd
		m.editor.input, cmd = m.editor.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMutation(msg mutationMsg) (tea.Model, tea.Cmd) {
	n := mutationNotification(msg)
	m.notify(n)
	if msg.err != nil {
		slog.Warn("record mutation failed",
			"kind", string(msg.kind), "op", msg.op.past(), "error", msg.err)
		if form, ok := m.modal.(*recordForm); ok {
			form.rejected(n.Text)
		}
		return m, nil
	}
	if _, ok := m.modal.(*recordForm); ok {
		m.modal = nil
	}

	var cmds []tea.Cmd
	if p := m.paneFor(viewForKind(msg.kind)); p != nil {
		cmds = append(cmds, p.Fetch())
	}
	if msg.kind != query.KindInvoices && m.refreshCatalog != nil {
		m.refreshCatalog()
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	if m.editor == nil {
		return m, nil
	}
	r := draft.SubmitResult(msg)
	out := m.editor.draft.ApplySubmit(r)
	m.notify(out.Notification)
	if r.Err != nil {
		slog.Warn("invoice create failed", "error", r.Err)
	} else {
		slog.Info("invoice created", "id", r.ID, "printing", r.Printing)
	}

	switch out.Target {
	case draft.TargetHome:
		return m, tea.Tick(out.Delay, func(time.Time) tea.Msg {
			return navigateMsg{view: ViewInvoices}
		})
	case draft.TargetPrint:
		m.editor = nil
		var cmds []tea.Cmd
		if m.invoices != nil {
			cmds = append(cmds, m.invoices.Fetch())
		}
		cmds = append(cmds, m.openPrint(out.InvoiceID))
		m.lastList = ViewInvoices
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

// switchTo changes the current view, remembering the last list.
func (m *Model) switchTo(v View) {
	if isListView(v) {
		m.lastList = v
	}
	m.currentView = v
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.currentView == ViewEditor && m.editor != nil {
		cmd, n, leave := m.editor.handleKey(msg, m.keys)
		m.notify(n)
		if leave {
			m.editor = nil
			m.switchTo(m.lastList)
		}
		return m, cmd
	}

	if p := m.pane(); p != nil && p.Searching() {
		cmd, _ := p.HandleKey(msg, m.keys)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.updatePrintViewport()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.switchTo(m.cycleList(1))
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.switchTo(m.cycleList(-1))
		return m, nil

	case key.Matches(msg, m.keys.ViewCustomers):
		m.switchTo(ViewCustomers)
		return m, nil

	case key.Matches(msg, m.keys.ViewProducts):
		m.switchTo(ViewProducts)
		return m, nil

	case key.Matches(msg, m.keys.ViewInvoices):
		m.switchTo(ViewInvoices)
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.switchTo(ViewLogs)
		return m, m.refreshLogs()
	}

	switch m.currentView {
	case ViewPrint:
		if key.Matches(msg, m.keys.Escape) {
			m.switchTo(m.lastList)
			return m, nil
		}
		return m, m.handlePrintKey(msg)
	case ViewLogs:
		if key.Matches(msg, m.keys.Escape) {
			m.switchTo(m.lastList)
			return m, nil
		}
		return m, m.handleLogsKey(msg)
	}

	p := m.pane()
	if p == nil {
		return m, nil
	}
	cmd, action := p.HandleKey(msg, m.keys)
	return m.handleListAction(p, action, cmd)
}

// cycleList returns the list view step positions away from the last list.
func (m Model) cycleList(step int) View {
	for i, v := range listViews {
		if v == m.lastList {
			return listViews[(i+step+len(listViews))%len(listViews)]
		}
	}
	return listViews[0]
}

func (m Model) handleListAction(p listPane, action listAction, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	ownerID := m.session.OwnerID

	switch action {
	case actionPageSize:
		m.prefs = m.prefs.WithPageSize(string(p.Kind()), p.PageSize())
		m.savePrefs()

	case actionNew:
		switch p.Kind() {
		case query.KindCustomers:
			m.modal = newCustomerForm(m.ctx, m.gateway, ownerID, nil)
		case query.KindProducts:
			m.modal = newProductForm(m.ctx, m.gateway, ownerID, nil)
		default:
			m.editor = newEditor(m.ctx, m.store, ownerID, m.createInvoice)
			m.currentView = ViewEditor
		}

	case actionOpen:
		id, _, ok := p.Selected()
		if !ok {
			break
		}
		switch p.Kind() {
		case query.KindCustomers:
			if c, found := m.customers.record(id); found {
				m.modal = newCustomerForm(m.ctx, m.gateway, ownerID, &c)
			}
		case query.KindProducts:
			if pr, found := m.products.record(id); found {
				m.modal = newProductForm(m.ctx, m.gateway, ownerID, &pr)
			}
		default:
			return m, tea.Batch(cmd, m.openPrint(id))
		}

	case actionDelete:
		id, label, ok := p.Selected()
		if !ok {
			break
		}
		m.modal = newDeleteConfirm(p.Kind(), label, m.deleteCmd(p.Kind(), id))
	}
	return m, cmd
}

func (m Model) deleteCmd(kind query.Kind, id string) tea.Cmd {
	ctx, gw := m.ctx, m.gateway
	return mutationCmd(kind, mutDelete, func() error {
		switch kind {
		case query.KindCustomers:
			return gw.DeleteCustomer(ctx, id)
		case query.KindProducts:
			return gw.DeleteProduct(ctx, id)
		default:
			return gw.DeleteInvoice(ctx, id)
		}
	})
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		slog.Warn("preferences not saved", "path", m.prefsPath, "error", err)
	}
}

// handleTick processes the UI tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	m.tray.Prune(m.now())

	if m.currentView == ViewLogs && m.logs.follow && m.now().Sub(m.logs.lastRefresh) >= LogRefreshInterval {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(DefaultUIInterval))
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderToasts())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	height := m.height - chromeHeight
	switch m.currentView {
	case ViewEditor:
		if m.editor != nil {
			return m.editor.view(m.theme, m.width, height)
		}
	case ViewPrint:
		return m.renderPrint()
	case ViewLogs:
		return m.renderLogs()
	default:
		if p := m.pane(); p != nil {
			return p.View(m.theme, m.width, height)
		}
	}
	return ""
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// navigateMsg switches views after a delay, such as the post-save redirect.
type navigateMsg struct {
	view View
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
