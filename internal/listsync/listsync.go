// Package listsync keeps one resource list's displayed page consistent with
// its query parameters while fetches complete out of order.
//
// A Synchronizer is owned by a single update loop. Setters mutate the query
// state, notify subscribers and hand back a Fetch, which the caller runs off
// the loop. The Result of that run is handed back to Apply on the loop. Every
// Fetch carries a sequence number; a Result older than the last one applied
// is discarded.
package listsync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/query"
)

// Page is one page of records plus the server's pagination block.
type Page[T any] struct {
	Records    []T
	Pagination query.Pagination
}

// FetchFunc performs a list request.
type FetchFunc[T any] func(ctx context.Context, req query.Request) (Page[T], error)

// Fetch is a deferred list request stamped with a sequence number.
type Fetch[T any] struct {
	Seq     uint64
	Kind    query.Kind
	Request query.Request
	fetch   FetchFunc[T]
}

// Run performs the request. It is safe to call from any goroutine.
func (f Fetch[T]) Run(ctx context.Context) Result[T] {
	if f.fetch == nil {
		return Result[T]{Seq: f.Seq, Kind: f.Kind, Err: fmt.Errorf("fetch not configured")}
	}
	page, err := f.fetch(ctx, f.Request)
	return Result[T]{Seq: f.Seq, Kind: f.Kind, Page: page, Err: err}
}

// Result is the completed form of a Fetch.
type Result[T any] struct {
	Seq  uint64
	Kind query.Kind
	Page Page[T]
	Err  error
}

// Status says what Apply did with a Result.
type Status int

const (
	// Applied replaced the displayed page.
	Applied Status = iota
	// Empty mapped the backend's "no records" error to an empty page.
	Empty
	// Failed kept the displayed page and raised a notification.
	Failed
	// Stale discarded a result older than one already applied.
	Stale
)

func (s Status) String() string {
	switch s {
	case Applied:
		return "applied"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome reports the effect of Apply.
type Outcome[T any] struct {
	Status       Status
	Notification *notify.Notification
	// Followup is set when the applied page lay beyond the last page, for
	// example after deleting the only record on the last page. Running it
	// loads the new last page.
	Followup *Fetch[T]
}

// Options configures a Synchronizer.
type Options[T any] struct {
	Descriptor query.Descriptor
	OwnerID    string
	PageSize   int
	Fetch      FetchFunc[T]
}

// Synchronizer owns the query state and displayed page of one list.
type Synchronizer[T any] struct {
	desc       query.Descriptor
	owner      string
	fetch      FetchFunc[T]
	state      query.State
	records    []T
	pagination query.Pagination
	loaded     bool

	issued  uint64
	applied uint64
	// settled is the newest sequence that completed in any way, failures
	// included. It only drives Loading.
	settled uint64

	subscribers map[int]func(query.State)
	nextSubID   int
}

// New returns a Synchronizer with the descriptor's default query state.
func New[T any](opts Options[T]) *Synchronizer[T] {
	return &Synchronizer[T]{
		desc:        opts.Descriptor,
		owner:       opts.OwnerID,
		fetch:       opts.Fetch,
		state:       query.NewState(opts.Descriptor, opts.PageSize),
		pagination:  query.EmptyPagination,
		subscribers: make(map[int]func(query.State)),
	}
}

// Descriptor returns the resource kind description.
func (s *Synchronizer[T]) Descriptor() query.Descriptor { return s.desc }

// State returns the current query state.
func (s *Synchronizer[T]) State() query.State { return s.state }

// Pagination returns the pagination of the displayed page.
func (s *Synchronizer[T]) Pagination() query.Pagination { return s.pagination }

// Loaded reports whether any page has been applied yet.
func (s *Synchronizer[T]) Loaded() bool { return s.loaded }

// Loading reports whether the newest issued fetch has not completed yet. A
// failed fetch completes it without replacing the displayed page.
func (s *Synchronizer[T]) Loading() bool { return s.issued > s.settled }

// Records returns a copy of the displayed records.
func (s *Synchronizer[T]) Records() []T {
	if len(s.records) == 0 {
		return nil
	}
	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

// Pager returns the pagination controls for the displayed page.
func (s *Synchronizer[T]) Pager() query.Pager {
	return query.Pages(s.pagination.CurrentPage, s.pagination.TotalPages)
}

// Subscribe registers fn to be called with the new query state every time it
// changes. The returned func removes the subscription.
func (s *Synchronizer[T]) Subscribe(fn func(query.State)) func() {
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() { delete(s.subscribers, id) }
}

// SetSearchTerm replaces the search term and fetches page 1.
func (s *Synchronizer[T]) SetSearchTerm(term string) Fetch[T] {
	s.state.SetSearchTerm(strings.TrimSpace(term))
	return s.changed()
}

// Search re-runs the current search from page 1.
func (s *Synchronizer[T]) Search() Fetch[T] {
	s.state.SetPage(1)
	return s.changed()
}

// SetSortField toggles the order when field is the current sort field,
// otherwise sorts by field in the kind's default order. Fetches page 1.
func (s *Synchronizer[T]) SetSortField(field string) Fetch[T] {
	s.state.ToggleSort(s.desc, field)
	return s.changed()
}

// SetPageSize changes the page size and fetches page 1.
func (s *Synchronizer[T]) SetPageSize(n int) Fetch[T] {
	s.state.SetPageSize(n)
	return s.changed()
}

// SetPage fetches page p keeping search, sort and page size. Once a page has
// been applied, pages outside 1..TotalPages are refused.
func (s *Synchronizer[T]) SetPage(p int) (Fetch[T], bool) {
	if p < 1 || (s.loaded && !s.Pager().Offers(p)) {
		return Fetch[T]{}, false
	}
	s.state.SetPage(p)
	return s.changed(), true
}

// NextPage moves one page forward when the pager allows it.
func (s *Synchronizer[T]) NextPage() (Fetch[T], bool) {
	if s.Pager().NextDisabled {
		return Fetch[T]{}, false
	}
	return s.SetPage(s.state.Page + 1)
}

// PrevPage moves one page back when the pager allows it.
func (s *Synchronizer[T]) PrevPage() (Fetch[T], bool) {
	if s.Pager().PrevDisabled {
		return Fetch[T]{}, false
	}
	return s.SetPage(s.state.Page - 1)
}

// Refresh re-fetches the current page without changing the query.
func (s *Synchronizer[T]) Refresh() Fetch[T] {
	return s.next()
}

// Apply reconciles a completed fetch into the displayed page.
func (s *Synchronizer[T]) Apply(r Result[T]) Outcome[T] {
	if r.Seq <= s.applied {
		slog.Debug("discarding stale list result",
			"kind", s.desc.Kind, "seq", r.Seq, "applied", s.applied)
		return Outcome[T]{Status: Stale}
	}
	s.settled = max(s.settled, r.Seq)

	if r.Err != nil {
		if notify.IsEmptyResult(r.Err, s.desc.EmptyMessage) {
			s.applied = r.Seq
			s.records = nil
			s.pagination = query.EmptyPagination
			s.loaded = true
			s.state.Page = 1
			return Outcome[T]{Status: Empty}
		}
		// A failed fetch leaves the displayed page, and the sequence it was
		// applied at, untouched.
		slog.Warn("list fetch failed", "kind", s.desc.Kind, "seq", r.Seq, "error", r.Err)
		return Outcome[T]{
			Status:       Failed,
			Notification: notify.FromError(r.Err, "Failed to load "+strings.ToLower(s.desc.Title)),
		}
	}

	s.applied = r.Seq
	s.records = append([]T(nil), r.Page.Records...)
	s.pagination = normalizePagination(r.Page.Pagination)
	s.loaded = true
	s.state.Page = s.pagination.CurrentPage

	out := Outcome[T]{Status: Applied}
	if len(s.records) == 0 && s.pagination.TotalRecords > 0 && r.Page.Pagination.CurrentPage > s.pagination.TotalPages {
		s.state.Page = s.pagination.TotalPages
		f := s.next()
		out.Followup = &f
	}
	return out
}

func (s *Synchronizer[T]) changed() Fetch[T] {
	snapshot := s.state
	for _, fn := range s.subscribers {
		fn(snapshot)
	}
	return s.next()
}

func (s *Synchronizer[T]) next() Fetch[T] {
	s.issued++
	return Fetch[T]{
		Seq:     s.issued,
		Kind:    s.desc.Kind,
		Request: s.state.Request(s.desc, s.owner),
		fetch:   s.fetch,
	}
}

func normalizePagination(p query.Pagination) query.Pagination {
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if p.CurrentPage > p.TotalPages {
		p.CurrentPage = p.TotalPages
	}
	if p.TotalRecords < 0 {
		p.TotalRecords = 0
	}
	return p
}
