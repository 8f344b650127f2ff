package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "Navigation",
		items: []helpItem{
			{"c/p/i", "Customers/Products/Invoices"},
			{"tab", "Next list"},
			{"L", "Application log"},
			{"esc", "Back"},
			{"j/k", "Move down/up"},
			{"g/G", "Go to top/bottom"},
		},
	},
	{
		title: "Lists",
		items: []helpItem{
			{"/", "Search (enter runs it)"},
			{"1-9", "Sort by column, again to flip"},
			{"[ ]", "Previous/next page"},
			{"s", "Cycle page size"},
			{"r", "Refresh"},
			{"n", "New record"},
			{"enter", "Edit, or print an invoice"},
			{"d", "Delete"},
		},
	},
	{
		title: "Invoice editor",
		items: []helpItem{
			{"tab", "Next field"},
			{"←/→", "Choose customer, status, product"},
			{"ctrl+x", "Remove line"},
			{"ctrl+s", "Save"},
			{"ctrl+p", "Save and print"},
		},
	},
	{
		title: "General",
		items: []helpItem{
			{"x", "Export PDF (print view)"},
			{"T", "Cycle theme"},
			{"?", "Toggle help"},
			{"q/ctrl+c", "Quit"},
		},
	},
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 36)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(10)
	for i, section := range helpSections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(helpSections)-1 {
			b.WriteString("\n")
		}
	}

	return placeModal(m.theme, b.String(), 48, m.width, m.height)
}
