package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/invoicer/internal/logtail"
)

// logLevels is the minimum-level cycle of the log view.
var logLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

// logState holds the log view state.
type logState struct {
	path        string
	entries     []logtail.Entry
	minLevel    slog.Level
	follow      bool
	err         error
	lastRefresh time.Time
	viewport    viewport.Model
}

type logBatchMsg struct {
	entries []logtail.Entry
	err     error
}

func (m *Model) initLogState() {
	path := ""
	if m.config != nil {
		path = m.config.LogFile
	}
	m.logs = logState{
		path:     path,
		minLevel: slog.LevelInfo,
		follow:   true,
		viewport: viewport.New(max(m.width-4, 1), max(m.height-chromeHeight-3, 1)),
	}
}

// refreshLogs rereads the tail of the log file.
func (m *Model) refreshLogs() tea.Cmd {
	path := m.logs.path
	if path == "" {
		return nil
	}
	m.logs.lastRefresh = time.Now()
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogReadLimit)
		return logBatchMsg{entries: logtail.ParseAll(lines), err: err}
	}
}

func (m *Model) handleLogBatch(msg logBatchMsg) {
	m.logs.err = msg.err
	if msg.err == nil {
		m.logs.entries = msg.entries
	}
	m.updateLogViewport()
}

func (m *Model) updateLogViewport() {
	m.logs.viewport.Width = max(m.width-4, 1)
	m.logs.viewport.Height = max(m.height-chromeHeight-3, 1)
	m.logs.viewport.SetContent(m.renderLogContent())
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

func (m *Model) renderLogContent() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.FocusBg)
	width := m.logs.viewport.Width

	visible := logtail.Filter(m.logs.entries, m.logs.minLevel)
	if len(visible) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}
	var b strings.Builder
	for i, e := range visible {
		line := truncate(logtail.Format(e), width)
		b.WriteString(bg.FillLine(bg.Render(line, levelStyle(e.Severity(), styles)), width))
		if i < len(visible)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// levelStyle returns the style for a log level.
func levelStyle(level slog.Level, styles Styles) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return styles.DangerText
	case level >= slog.LevelWarn:
		return styles.WarningText
	case level < slog.LevelInfo:
		return styles.FaintText
	default:
		return styles.Text
	}
}

func nextLogLevel(current slog.Level) slog.Level {
	for i, l := range logLevels {
		if l == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return slog.LevelInfo
}

// handleLogsKey processes keyboard input for the log view.
func (m *Model) handleLogsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Follow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logs.viewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.ToggleLevel):
		m.logs.minLevel = nextLogLevel(m.logs.minLevel)
		m.updateLogViewport()
	case key.Matches(msg, m.keys.Refresh):
		return m.refreshLogs()
	case key.Matches(msg, m.keys.Top):
		m.logs.viewport.GotoTop()
		m.logs.follow = false
	case key.Matches(msg, m.keys.Bottom):
		m.logs.viewport.GotoBottom()
		m.logs.follow = true
	case key.Matches(msg, m.keys.Down):
		m.logs.viewport.ScrollDown(1)
		m.logs.follow = false
	case key.Matches(msg, m.keys.Up):
		m.logs.viewport.ScrollUp(1)
		m.logs.follow = false
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logs.viewport.HalfPageDown()
		m.logs.follow = false
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logs.viewport.HalfPageUp()
		m.logs.follow = false
	}
	return nil
}

// renderLogs renders the log view: a box plus a status line below it.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	box := renderTitledBox(m.theme, "Log", m.logs.viewport.View(), m.width, m.height-chromeHeight-1, true)

	status := fmt.Sprintf("%d entries · level ≥ %s · follow %s",
		len(m.logs.entries), m.logs.minLevel, ternary(m.logs.follow, "on", "off"))
	parts := []string{bg.Render(status, styles.FaintText)}
	if m.logs.path != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.logs.path, 50), styles.MutedText))
	}
	if m.logs.err != nil {
		parts = append(parts, bg.Render(m.logs.err.Error(), styles.DangerText))
	}
	return box + "\n" + bg.FillLine(bg.Join(parts, "  "), m.width)
}
