package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/printview"
)

type printLoadedMsg struct {
	id  string
	doc printview.Document
	err error
}

type exportMsg struct {
	path string
	err  error
}

// printState is the single-invoice print view.
type printState struct {
	id       string
	doc      printview.Document
	loaded   bool
	err      error
	viewport viewport.Model
}

func loadPrintCmd(ctx context.Context, l printview.Loader, id string, issuer printview.Issuer) tea.Cmd {
	return func() tea.Msg {
		doc, err := printview.Load(ctx, l, id, issuer)
		return printLoadedMsg{id: id, doc: doc, err: err}
	}
}

func exportCmd(doc printview.Document, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := printview.Export(doc, dir)
		return exportMsg{path: path, err: err}
	}
}

// openPrint switches to the print view and loads invoice id.
func (m *Model) openPrint(id string) tea.Cmd {
	m.currentView = ViewPrint
	m.print = printState{id: id, viewport: viewport.New(max(m.width-2, 1), max(m.height-chromeHeight-2, 1))}
	if m.gateway == nil {
		return nil
	}
	return loadPrintCmd(m.ctx, m.gateway, id, m.issuer())
}

func (m *Model) issuer() printview.Issuer {
	if m.config == nil {
		return printview.Issuer{}
	}
	return printview.Issuer{Name: m.config.IssuerName, Address: m.config.IssuerAddress}
}

func (m *Model) handlePrintLoaded(msg printLoadedMsg) *notify.Notification {
	if msg.id != m.print.id {
		return nil
	}
	m.print.loaded = true
	m.print.err = msg.err
	m.print.doc = msg.doc
	m.updatePrintViewport()
	if msg.err != nil {
		return notify.FromError(msg.err, "Error fetching invoice")
	}
	return nil
}

func (m *Model) updatePrintViewport() {
	m.print.viewport.Width = max(m.width-2, 1)
	m.print.viewport.Height = max(m.height-chromeHeight-2, 1)
	if m.print.loaded && m.print.err == nil {
		m.print.viewport.SetContent(printview.Text(m.print.doc, min(m.print.viewport.Width-2, 100)))
	}
}

func (m *Model) handlePrintKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ExportPDF):
		if !m.print.loaded || m.print.err != nil {
			return nil
		}
		dir := "."
		if m.config != nil && m.config.ExportDir != "" {
			dir = m.config.ExportDir
		}
		return exportCmd(m.print.doc, dir)
	case key.Matches(msg, m.keys.Down):
		m.print.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.print.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Top):
		m.print.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.print.viewport.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.print.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.print.viewport.HalfPageUp()
	}
	return nil
}

func (m Model) renderPrint() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	height := m.height - chromeHeight
	title := "Invoice"
	if m.print.loaded && m.print.err == nil && m.print.doc.Invoice.InvoiceNumber != "" {
		title = "Invoice " + m.print.doc.Invoice.InvoiceNumber
	}

	var content string
	switch {
	case !m.print.loaded:
		content = styles.MutedText.Render("Loading invoice...")
	case m.print.err != nil:
		content = styles.DangerText.Render(notify.Describe(m.print.err, "Error fetching invoice"))
	default:
		content = m.print.viewport.View()
	}
	return renderTitledBox(m.theme, title, content, m.width, height, true)
}
