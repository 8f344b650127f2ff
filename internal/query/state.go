package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Flip returns the opposite direction.
func (o Order) Flip() Order {
	if o == Asc {
		return Desc
	}
	return Asc
}

// PageSizes are the page sizes a list offers.
var PageSizes = []int{10, 20, 50}

// DefaultPageSize is used when no valid size was requested.
const DefaultPageSize = 10

// ValidPageSize reports whether n is an offered page size.
func ValidPageSize(n int) bool {
	for _, size := range PageSizes {
		if n == size {
			return true
		}
	}
	return false
}

// State holds the search, sort and paging parameters of one list.
// Every setter that changes what the result set contains resets Page to 1.
type State struct {
	SearchTerm string
	Page       int
	PageSize   int
	SortField  string
	SortOrder  Order
}

// NewState returns the initial state for d.
func NewState(d Descriptor, pageSize int) State {
	s := State{
		Page:      1,
		PageSize:  pageSize,
		SortField: d.DefaultSortField,
		SortOrder: d.DefaultSortOrder,
	}
	s.Normalize()
	return s
}

// Normalize clamps Page to at least 1 and PageSize to an offered size.
func (s *State) Normalize() {
	if s.Page < 1 {
		s.Page = 1
	}
	if !ValidPageSize(s.PageSize) {
		s.PageSize = DefaultPageSize
	}
	if s.SortOrder != Asc && s.SortOrder != Desc {
		s.SortOrder = Desc
	}
}

// SetSearchTerm replaces the search term and resets to page 1.
func (s *State) SetSearchTerm(term string) {
	s.SearchTerm = term
	s.Page = 1
}

// ToggleSort flips the order when field is already the sort field; otherwise
// it switches to field with the descriptor's default order. Page resets to 1.
func (s *State) ToggleSort(d Descriptor, field string) {
	if field == s.SortField {
		s.SortOrder = s.SortOrder.Flip()
	} else {
		s.SortField = field
		s.SortOrder = d.DefaultSortOrder
	}
	s.Page = 1
}

// SetPageSize changes the page size and resets to page 1. Sizes that are not
// offered fall back to DefaultPageSize.
func (s *State) SetPageSize(n int) {
	s.PageSize = n
	s.Page = 1
	s.Normalize()
}

// SetPage moves to page p without touching the other parameters.
func (s *State) SetPage(p int) {
	s.Page = p
	s.Normalize()
}

// Request is a resolved list request: the path relative to the API base and
// its query parameters.
type Request struct {
	Path   string
	Values url.Values
}

// Encode returns Path?query.
func (r Request) Encode() string {
	if len(r.Values) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Values.Encode()
}

// Request builds the list request for d on behalf of ownerID.
func (s State) Request(d Descriptor, ownerID string) Request {
	values := url.Values{}
	values.Set("search", s.SearchTerm)
	values.Set("page", strconv.Itoa(s.Page))
	values.Set("limit", strconv.Itoa(s.PageSize))
	values.Set("sortField", s.SortField)
	values.Set("sortOrder", string(s.SortOrder))

	path := d.Endpoint
	owner := strings.TrimSpace(ownerID)
	switch d.Scope {
	case ScopePath:
		path = strings.TrimSuffix(path, "/") + "/" + owner
	case ScopeQuery:
		values.Set("userId", owner)
	}
	return Request{Path: path, Values: values}
}
