package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the header drops
	// secondary details.
	LayoutCompactWidth = 100

	// LayoutEditorWideWidth is the minimum width for the editor to show the
	// header fields in two columns.
	LayoutEditorWideWidth = 120
)

// Chrome rows around the content area: header, command bar and the
// notification line.
const chromeHeight = 3

// Log display limits.
const (
	// LogReadLimit is the number of lines read from the end of the log file.
	LogReadLimit = 2000
)

// Timing constants.
const (
	// DefaultUIInterval drives snapshot polling and toast expiry.
	DefaultUIInterval = time.Second

	// LogRefreshInterval is how often a following log view rereads the file.
	LogRefreshInterval = 2 * time.Second
)

// maxToasts is how many notifications are shown at once.
const maxToasts = 3
