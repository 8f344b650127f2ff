package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/query"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"  short ", 10, "short"},
		{"exactly", 7, "exactly"},
		{"a longer value", 8, "a lon..."},
		{"abcdef", 3, "abc"},
		{"no limit", 0, "no limit"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle tiny limit = %q, want ab", got)
	}
	got := truncateMiddle("/var/log/invoicer/invoicer.log", 20)
	if len([]rune(got)) != 20 {
		t.Fatalf("got %q (%d runes), want 20", got, len([]rune(got)))
	}
	if !strings.HasSuffix(got, "voicer.log") || !strings.HasPrefix(got, "/var/l") {
		t.Fatalf("truncateMiddle dropped the file name: %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("overdue"); got != "Overdue" {
		t.Fatalf("titleCase = %q", got)
	}
	if got := titleCase("sent_reminder"); got != "Sent Reminder" {
		t.Fatalf("titleCase = %q", got)
	}
	if got := titleCase(""); got != "" {
		t.Fatalf("titleCase empty = %q", got)
	}
}

func TestFit(t *testing.T) {
	if got := fit("ab", 4); got != "ab  " {
		t.Fatalf("fit pad = %q", got)
	}
	if got := fit("abcdefgh", 6); got != "abc..." {
		t.Fatalf("fit cut = %q", got)
	}
}

func TestLayoutColumns(t *testing.T) {
	widths := layoutColumns([]int{1, 1, 2}, 43)
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum != 41 {
		t.Fatalf("layoutColumns total = %d, want 41 (43 less two gaps)", sum)
	}
	if widths[2] < widths[0] {
		t.Fatalf("heavier column narrower: %v", widths)
	}
	for _, w := range layoutColumns([]int{5, 5, 5}, 2) {
		if w < 1 {
			t.Fatalf("column collapsed below one cell")
		}
	}
	if got := layoutColumns(nil, 80); len(got) != 0 {
		t.Fatalf("layoutColumns(nil) = %v", got)
	}
}

func TestPagerText(t *testing.T) {
	cases := []struct {
		current, total int
		want           string
	}{
		{1, 1, "· [1] ·"},
		{2, 3, "‹ 1 [2] 3 ›"},
		{1, 3, "· [1] 2 3 ›"},
		{3, 3, "‹ 1 2 [3] ·"},
	}
	for _, tc := range cases {
		if got := pagerText(query.Pages(tc.current, tc.total)); got != tc.want {
			t.Fatalf("pagerText(%d/%d) = %q, want %q", tc.current, tc.total, got, tc.want)
		}
	}
}

func TestNextPageSize(t *testing.T) {
	cases := map[int]int{10: 20, 20: 50, 50: 10, 7: 10}
	for in, want := range cases {
		if got := nextPageSize(in); got != want {
			t.Fatalf("nextPageSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestStepOption(t *testing.T) {
	opts := []string{"draft", "sent", "paid", "overdue"}
	if got := stepOption(opts, "draft", 1); got != "sent" {
		t.Fatalf("forward = %q", got)
	}
	if got := stepOption(opts, "draft", -1); got != "overdue" {
		t.Fatalf("backward wrap = %q", got)
	}
	if got := stepOption(opts, "overdue", 1); got != "draft" {
		t.Fatalf("forward wrap = %q", got)
	}
	if got := stepOption(opts, "", 1); got != "draft" {
		t.Fatalf("unknown current = %q", got)
	}
	if got := stepOption(nil, "x", 1); got != "x" {
		t.Fatalf("no options = %q", got)
	}
}

func TestClassifyConnectionError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&notify.GatewayError{Op: "list customers", Status: 503}, "HTTP 503"},
		{errors.New("dial tcp 127.0.0.1:3000: connect: connection refused"), "OFFLINE"},
		{errors.New("lookup api.example: no such host"), "HOST NOT FOUND"},
		{errors.New("context deadline exceeded"), "TIMEOUT"},
		{fmt.Errorf("get: %w", notify.ErrTransport), "NETWORK ERROR"},
		{errors.New("weird"), "ERROR"},
	}
	for _, tc := range cases {
		if got := classifyConnectionError(tc.err); got != tc.want {
			t.Fatalf("classifyConnectionError(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	if got := formatTimestamp(time.Time{}, now); got != "" {
		t.Fatalf("zero time = %q", got)
	}
	if got := formatTimestamp(now.Add(-10*time.Second), now); got != "11:59:50 (now)" {
		t.Fatalf("recent = %q", got)
	}
	if got := formatTimestamp(now.Add(-5*time.Minute), now); got != "11:55:00 (5m ago)" {
		t.Fatalf("minutes = %q", got)
	}
	if got := formatTimestamp(now.Add(-3*time.Hour), now); got != "09:00:00 (3h ago)" {
		t.Fatalf("hours = %q", got)
	}
}
