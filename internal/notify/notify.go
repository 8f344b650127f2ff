// Package notify holds the error taxonomy shared by the list and draft
// controllers and the transient notifications they raise.
package notify

import "time"

// Lifetime is how long a notification stays visible.
const Lifetime = 4 * time.Second

// Level distinguishes notification styling.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient, non-blocking message for the user.
type Notification struct {
	Level Level
	Text  string
}

// Success builds a success notification.
func Success(text string) *Notification {
	return &Notification{Level: LevelSuccess, Text: text}
}

// Info builds an informational notification.
func Info(text string) *Notification {
	return &Notification{Level: LevelInfo, Text: text}
}

// FromError builds an error notification for err, or nil when err is nil.
func FromError(err error, fallback string) *Notification {
	if err == nil {
		return nil
	}
	return &Notification{Level: LevelError, Text: Describe(err, fallback)}
}

type entry struct {
	n       Notification
	expires time.Time
}

// Tray keeps the notifications currently on screen. It is owned by the UI
// update loop and is not safe for concurrent use.
type Tray struct {
	entries []entry
	max     int
}

// NewTray returns a tray that shows at most max notifications; older ones
// are dropped first.
func NewTray(max int) *Tray {
	if max <= 0 {
		max = 3
	}
	return &Tray{max: max}
}

// Push adds n, visible until now+Lifetime. Nil is ignored.
func (t *Tray) Push(n *Notification, now time.Time) {
	if n == nil || n.Text == "" {
		return
	}
	t.entries = append(t.entries, entry{n: *n, expires: now.Add(Lifetime)})
	if over := len(t.entries) - t.max; over > 0 {
		t.entries = append([]entry(nil), t.entries[over:]...)
	}
}

// Prune drops expired notifications and reports whether any were removed.
func (t *Tray) Prune(now time.Time) bool {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if now.Before(e.expires) {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(t.entries)
	t.entries = kept
	return removed
}

// Active returns the notifications still visible at now, oldest first.
func (t *Tray) Active(now time.Time) []Notification {
	out := make([]Notification, 0, len(t.entries))
	for _, e := range t.entries {
		if now.Before(e.expires) {
			out = append(out, e.n)
		}
	}
	return out
}

// Len reports how many notifications are held, expired or not.
func (t *Tray) Len() int {
	return len(t.entries)
}
