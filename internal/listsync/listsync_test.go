package listsync

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/query"
)

type customer struct {
	ID   string
	Name string
}

type fakeBackend struct {
	requests []query.Request
	page     Page[customer]
	err      error
}

func (f *fakeBackend) fetch(_ context.Context, req query.Request) (Page[customer], error) {
	f.requests = append(f.requests, req)
	return f.page, f.err
}

func newCustomers(t *testing.T, backend *fakeBackend) *Synchronizer[customer] {
	t.Helper()
	return New(Options[customer]{
		Descriptor: query.Customers,
		OwnerID:    "owner-1",
		PageSize:   10,
		Fetch:      backend.fetch,
	})
}

func pageOf(n, current, totalPages, totalRecords int) Page[customer] {
	records := make([]customer, n)
	for i := range records {
		records[i] = customer{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Customer %d", i)}
	}
	return Page[customer]{
		Records:    records,
		Pagination: query.Pagination{CurrentPage: current, TotalPages: totalPages, TotalRecords: totalRecords},
	}
}

func TestApply_SuccessReplacesPageAtomically(t *testing.T) {
	backend := &fakeBackend{page: pageOf(10, 1, 3, 25)}
	s := newCustomers(t, backend)

	out := s.Apply(s.Refresh().Run(context.Background()))
	assert.Equal(t, Applied, out.Status)
	assert.Nil(t, out.Notification)
	assert.Len(t, s.Records(), 10)
	assert.Equal(t, query.Pagination{CurrentPage: 1, TotalPages: 3, TotalRecords: 25}, s.Pagination())
	assert.True(t, s.Loaded())
	assert.False(t, s.Loading())
}

func TestSetPage_CustomersScenario(t *testing.T) {
	backend := &fakeBackend{page: pageOf(10, 1, 3, 25)}
	s := newCustomers(t, backend)
	s.Apply(s.Refresh().Run(context.Background()))

	sortFetch := s.SetSortField("FirstName")
	s.Apply(sortFetch.Run(context.Background()))
	sortFetch = s.SetSortField("FirstName")
	s.Apply(sortFetch.Run(context.Background()))

	backend.page = pageOf(10, 2, 3, 25)
	f, ok := s.SetPage(2)
	require.True(t, ok)
	assert.Equal(t, "2", f.Request.Values.Get("page"))
	assert.Equal(t, "10", f.Request.Values.Get("limit"))
	assert.Equal(t, "FirstName", f.Request.Values.Get("sortField"))
	assert.Equal(t, "asc", f.Request.Values.Get("sortOrder"))
	assert.Equal(t, "/customer/owner-1", f.Request.Path)

	s.Apply(f.Run(context.Background()))
	assert.Equal(t, 3, s.Pagination().TotalPages)
	assert.Equal(t, []int{1, 2, 3}, s.Pager().Pages)

	_, ok = s.SetPage(4)
	assert.False(t, ok, "page 4 must not be offered")
	assert.Equal(t, 2, s.State().Page)
}

func TestApply_NotFoundIsEmptyPageWithoutNotification(t *testing.T) {
	backend := &fakeBackend{page: pageOf(5, 1, 1, 5)}
	s := newCustomers(t, backend)
	s.Apply(s.Refresh().Run(context.Background()))
	require.Len(t, s.Records(), 5)

	backend.err = &notify.GatewayError{Op: "list customers", Status: 404, Message: "No customers found!"}
	out := s.Apply(s.SetSearchTerm("zzz").Run(context.Background()))

	assert.Equal(t, Empty, out.Status)
	assert.Nil(t, out.Notification)
	assert.Empty(t, s.Records())
	assert.Equal(t, query.Pagination{CurrentPage: 1, TotalPages: 1, TotalRecords: 0}, s.Pagination())
}

func TestApply_OtherErrorKeepsRecordsAndNotifies(t *testing.T) {
	backend := &fakeBackend{page: pageOf(3, 1, 1, 3)}
	s := newCustomers(t, backend)
	s.Apply(s.Refresh().Run(context.Background()))

	backend.err = &notify.GatewayError{Op: "list customers", Status: 500, Message: "database unavailable"}
	out := s.Apply(s.Search().Run(context.Background()))

	assert.Equal(t, Failed, out.Status)
	require.NotNil(t, out.Notification)
	assert.Equal(t, notify.LevelError, out.Notification.Level)
	assert.Equal(t, "database unavailable", out.Notification.Text)
	assert.Len(t, s.Records(), 3)
	assert.Len(t, backend.requests, 2, "no retry")
}

func TestApply_FailureClearsLoadingButKeepsPage(t *testing.T) {
	backend := &fakeBackend{page: pageOf(3, 1, 1, 3)}
	s := newCustomers(t, backend)
	s.Apply(s.Refresh().Run(context.Background()))

	backend.err = &notify.GatewayError{Status: 500, Message: "boom"}
	older := s.SetSearchTerm("a").Run(context.Background())
	failed := s.SetSearchTerm("ab").Run(context.Background())
	require.True(t, s.Loading())

	assert.Equal(t, Failed, s.Apply(failed).Status)
	assert.False(t, s.Loading(), "a failed fetch must not leave the list loading")
	assert.Len(t, s.Records(), 3)

	// The failure does not count as an applied page, so an older success
	// that lands late is still taken.
	backend.err = nil
	older.Err = nil
	older.Page = pageOf(1, 1, 1, 1)
	assert.Equal(t, Applied, s.Apply(older).Status)
	assert.False(t, s.Loading())
	assert.Len(t, s.Records(), 1)
}

func TestApply_TransportErrorUsesNetworkMessage(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("list customers: %w", notify.ErrTransport)}
	s := newCustomers(t, backend)

	out := s.Apply(s.Refresh().Run(context.Background()))
	require.NotNil(t, out.Notification)
	assert.Equal(t, "Network error", out.Notification.Text)
	assert.False(t, s.Loaded())
}

func TestApply_DiscardsOlderResponses(t *testing.T) {
	backend := &fakeBackend{}
	s := newCustomers(t, backend)

	backend.page = pageOf(10, 1, 3, 25)
	older := s.SetSearchTerm("a").Run(context.Background())
	backend.page = pageOf(2, 1, 1, 2)
	newer := s.SetSearchTerm("ab").Run(context.Background())
	require.Greater(t, newer.Seq, older.Seq)
	assert.True(t, s.Loading())

	assert.Equal(t, Applied, s.Apply(newer).Status)
	assert.Equal(t, Stale, s.Apply(older).Status)
	assert.Len(t, s.Records(), 2)
	assert.Equal(t, 2, s.Pagination().TotalRecords)
	assert.False(t, s.Loading())
}

func TestApply_StaleErrorIsIgnored(t *testing.T) {
	backend := &fakeBackend{page: pageOf(4, 1, 1, 4)}
	s := newCustomers(t, backend)

	f1 := s.SetSearchTerm("x")
	f2 := s.SetSearchTerm("xy")
	s.Apply(f2.Run(context.Background()))

	backend.err = &notify.GatewayError{Status: 500}
	out := s.Apply(f1.Run(context.Background()))
	assert.Equal(t, Stale, out.Status)
	assert.Nil(t, out.Notification)
}

func TestSubscribe_ReceivesQueryChanges(t *testing.T) {
	s := newCustomers(t, &fakeBackend{})
	var seen []query.State
	unsubscribe := s.Subscribe(func(st query.State) { seen = append(seen, st) })

	s.SetSearchTerm("  acme ")
	s.SetSortField("Email")
	s.SetPageSize(20)
	s.Refresh()

	require.Len(t, seen, 3)
	assert.Equal(t, "acme", seen[0].SearchTerm)
	assert.Equal(t, "Email", seen[1].SortField)
	assert.Equal(t, query.Desc, seen[1].SortOrder)
	assert.Equal(t, 20, seen[2].PageSize)
	assert.Equal(t, 1, seen[2].Page)

	unsubscribe()
	s.Search()
	assert.Len(t, seen, 3)
}

func TestProductsNewSortFieldResetsToAscending(t *testing.T) {
	s := New(Options[customer]{Descriptor: query.Products, OwnerID: "o", PageSize: 10})
	s.SetSortField("ProductName")
	assert.Equal(t, query.Desc, s.State().SortOrder)

	f := s.SetSortField("Cost")
	assert.Equal(t, query.Asc, s.State().SortOrder)
	assert.Equal(t, "1", f.Request.Values.Get("page"))
}

func TestNextPrevPage_RespectPager(t *testing.T) {
	backend := &fakeBackend{page: pageOf(10, 1, 2, 15)}
	s := newCustomers(t, backend)
	s.Apply(s.Refresh().Run(context.Background()))

	_, ok := s.PrevPage()
	assert.False(t, ok)

	backend.page = pageOf(5, 2, 2, 15)
	f, ok := s.NextPage()
	require.True(t, ok)
	s.Apply(f.Run(context.Background()))
	assert.Equal(t, 2, s.State().Page)

	_, ok = s.NextPage()
	assert.False(t, ok)

	f, ok = s.PrevPage()
	require.True(t, ok)
	assert.Equal(t, "1", f.Request.Values.Get("page"))
}

func TestApply_PageBeyondLastSchedulesFollowup(t *testing.T) {
	backend := &fakeBackend{page: pageOf(10, 1, 2, 11)}
	s := newCustomers(t, backend)
	s.Apply(s.Refresh().Run(context.Background()))
	f, ok := s.SetPage(2)
	require.True(t, ok)

	// The only record on page 2 was deleted before the fetch landed.
	backend.page = Page[customer]{Pagination: query.Pagination{CurrentPage: 2, TotalPages: 1, TotalRecords: 10}}
	out := s.Apply(f.Run(context.Background()))
	require.NotNil(t, out.Followup)
	assert.Equal(t, "1", out.Followup.Request.Values.Get("page"))
	assert.Equal(t, 1, s.State().Page)
}

func TestFetchWithoutBackendFails(t *testing.T) {
	s := New(Options[customer]{Descriptor: query.Invoices, OwnerID: "o"})
	r := s.Refresh().Run(context.Background())
	assert.Error(t, r.Err)
	assert.Equal(t, query.KindInvoices, r.Kind)
}
