package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/invoicer/internal/notify"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("invoicer", styles.Logo)}
	if label := m.session.Label(); label != "" {
		parts = append(parts, bg.Render(truncate(label, 24), styles.Text))
	}

	snap := m.snapshot
	switch {
	case snap.IsOffline():
		parts = append(parts,
			bg.Render("● "+classifyConnectionError(snap.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)))
	case !snap.Loaded && snap.LastError == nil:
		parts = append(parts, bg.Render("Connecting...", styles.WarningText.Bold(true)))
	default:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	if snap.Loaded {
		parts = append(parts,
			bg.Render("Customers:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(snap.Customers)), styles.Text)+
				bg.Space()+bg.Render("•", styles.FaintText)+bg.Space()+
				bg.Render("Items:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(snap.Products)), styles.Text))
	}

	if ts := formatTimestamp(snap.LastUpdated, m.now()); ts != "" && !compact {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if snap.LastError != nil && !snap.IsOffline() && !compact {
		parts = append(parts,
			bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(truncate(notify.Describe(snap.LastError, "Catalog refresh failed"), 40), styles.WarningText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// formatTimestamp formats the last catalog update with a relative hint.
func formatTimestamp(last, now time.Time) string {
	if last.IsZero() {
		return ""
	}
	since := now.Sub(last)
	ts := last.Format("15:04:05")
	switch {
	case since < time.Minute:
		return ts + " (now)"
	case since < time.Hour:
		return ts + fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		return ts + fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	default:
		return ts
	}
}

// classifyConnectionError returns a short description of a backend error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var gw *notify.GatewayError
	if errors.As(err, &gw) {
		return fmt.Sprintf("HTTP %d", gw.Status)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case errors.Is(err, notify.ErrTransport):
		return "NETWORK ERROR"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewEditor:
		commands = []cmd{
			{"tab", "Next"},
			{"←/→", "Choose"},
			{"ctrl+x", "Remove line"},
			{"ctrl+s", "Save"},
			{"ctrl+p", "Save+Print"},
			{"esc", "Cancel"},
		}
	case ViewPrint:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"x", "Export PDF"},
			{"esc", "Back"},
			{"?", "More"},
		}
	case ViewLogs:
		commands = []cmd{
			{"Space", ternary(m.logs.follow, "Pause", "Follow")},
			{"v", "Level"},
			{"r", "Reload"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default:
		size := 0
		if p := m.pane(); p != nil {
			size = p.PageSize()
		}
		commands = []cmd{
			{"c/p/i", "Lists"},
			{"/", "Search"},
			{"1-9", "Sort"},
			{"[/]", "Page"},
			{"s", fmt.Sprintf("%d/page", size)},
			{"n", "New"},
			{"enter", ternary(m.currentView == ViewInvoices, "Print", "Edit")},
			{"d", "Delete"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderToasts renders the active notifications on one line.
func (m Model) renderToasts() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	active := m.tray.Active(m.now())
	parts := make([]string, 0, len(active))
	for _, n := range active {
		parts = append(parts, bg.Render(n.Text, styles.NotificationStyle(n.Level)))
	}
	return bg.FillLine(bg.Join(parts, "  │  "), m.width)
}
