// Package logtail reads the end of invoicer's own log file for the in-app
// log view.
//
// Read keeps a ring buffer of the last N lines, so memory stays bounded by N
// rather than by file size. A missing file yields no lines and no error; the
// log is created lazily on first write.
//
// Parse understands the key=value records written by slog's text handler:
//
//	time=2026-10-15T14:03:07.120+02:00 level=WARN msg="list fetch failed" kind=customers
//
// Lines in any other shape are passed through untouched in Entry.Raw.
package logtail
