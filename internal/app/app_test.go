package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/api/apitest"
	"github.com/five82/invoicer/internal/draft"
	"github.com/five82/invoicer/internal/ledger"
	"github.com/five82/invoicer/internal/listsync"
	"github.com/five82/invoicer/internal/prefs"
	"github.com/five82/invoicer/internal/query"
	"github.com/five82/invoicer/internal/state"
)

const owner = "owner-1"

func newBackend(t *testing.T) (*apitest.Server, *api.Client) {
	t.Helper()
	srv := apitest.NewServer(owner)
	t.Cleanup(srv.Close)
	client, err := api.NewClient(api.Options{BaseURL: srv.BaseURL(), Timeout: 2 * time.Second})
	require.NoError(t, err)
	return srv, client
}

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	for failures := 0; failures <= 20; failures++ {
		if got := calculateBackoff(failures, retryBase); got > maxBackoff {
			t.Errorf("calculateBackoff(%d) = %v, exceeds maxBackoff %v", failures, got, maxBackoff)
		}
	}
}

func TestRefresh_WalksEveryPage(t *testing.T) {
	srv, client := newBackend(t)
	for i := 0; i < 60; i++ {
		srv.AddCustomer(api.Customer{FirstName: "Customer", Email: "c@example.com"})
	}
	srv.AddProduct(api.Product{ProductName: "Widget", SalesPrice: api.NewAmount(decimal.NewFromInt(50))})

	store := &state.Store{}
	r := NewRefresher(store, client, owner, time.Minute)
	require.NoError(t, r.Refresh(context.Background()))

	snap := store.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Len(t, snap.Customers, 60)
	assert.Len(t, snap.Products, 1)

	var customerPages []string
	for _, req := range srv.Requests() {
		if req.Path == "/api/customer/"+owner {
			customerPages = append(customerPages, req.Query["page"])
			assert.Equal(t, "50", req.Query["limit"])
		}
	}
	assert.Equal(t, []string{"1", "2"}, customerPages)
}

func TestRefresh_EmptyBackendIsNotAFailure(t *testing.T) {
	_, client := newBackend(t)
	store := &state.Store{}
	require.NoError(t, NewRefresher(store, client, owner, time.Minute).Refresh(context.Background()))

	snap := store.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Empty(t, snap.Customers)
	assert.Zero(t, snap.ConsecutiveFailures)
}

func TestRefresh_FailureKeepsCatalogAndBacksOff(t *testing.T) {
	srv, client := newBackend(t)
	srv.AddProduct(api.Product{ProductName: "Widget"})
	store := &state.Store{}
	r := NewRefresher(store, client, owner, time.Minute)
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, time.Minute, r.nextDelay())

	srv.FailNext(http.StatusInternalServerError, "database down")
	require.Error(t, r.Refresh(context.Background()))

	snap := store.Snapshot()
	assert.Len(t, snap.Products, 1)
	assert.Equal(t, 1, snap.ConsecutiveFailures)
	assert.Equal(t, 4*time.Second, r.nextDelay())
}

func TestRefresher_TriggerReloads(t *testing.T) {
	srv, client := newBackend(t)
	store := &state.Store{}
	r := NewRefresher(store, client, owner, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	srv.AddProduct(api.Product{ProductName: "Late"})
	r.Trigger()
	r.Trigger() // coalesces

	require.Eventually(t, func() bool {
		return len(store.Snapshot().Products) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPageSizer(t *testing.T) {
	p := prefs.Prefs{}.WithPageSize("products", 50)

	assert.Equal(t, 20, pageSizer{fallback: 20, prefs: p}.For(query.KindCustomers))
	assert.Equal(t, 50, pageSizer{fallback: 20, prefs: p}.For(query.KindProducts))
	assert.Equal(t, 10, pageSizer{override: 10, fallback: 20, prefs: p}.For(query.KindProducts))
}

func TestNewLists_FetchThroughGateway(t *testing.T) {
	srv, client := newBackend(t)
	for _, name := range []string{"Ada", "Grace", "Linus"} {
		srv.AddCustomer(api.Customer{FirstName: name, Email: name + "@example.com"})
	}

	lists := newLists(client, owner, pageSizer{fallback: 10})
	f := lists.Customers.SetSortField("FirstName")
	out := lists.Customers.Apply(f.Run(context.Background()))

	assert.Equal(t, listsync.Applied, out.Status)
	records := lists.Customers.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "Linus", records[0].FirstName, "new sort field starts descending for customers")
	assert.Equal(t, query.Pagination{CurrentPage: 1, TotalPages: 1, TotalRecords: 3}, lists.Customers.Pagination())

	inv := lists.Invoices.Refresh()
	out2 := lists.Invoices.Apply(inv.Run(context.Background()))
	assert.Equal(t, listsync.Empty, out2.Status)
	assert.Nil(t, out2.Notification)
}

func TestInvoiceCreator_StoresDraft(t *testing.T) {
	srv, client := newBackend(t)

	l := ledger.New(ledger.CatalogFunc(func(string) (ledger.Product, bool) {
		return ledger.Product{ID: "p1", Name: "Widget", Cost: decimal.NewFromInt(50)}, true
	}))
	require.NoError(t, l.SetField(0, ledger.FieldProduct, "p1"))
	require.NoError(t, l.SetField(0, ledger.FieldQuantity, "2"))
	l.SetTaxInput("10")

	payload := draft.Payload{
		Header: draft.Header{
			CustomerID:    "c1",
			ClientName:    "Ada",
			InvoiceNumber: "INV-1",
			InvoiceDate:   "2026-10-15",
			Status:        "draft",
		},
		Items:   l.Items(),
		Totals:  l.Totals(),
		OwnerID: owner,
	}

	id, err := invoiceCreator(client)(context.Background(), payload)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	stored := srv.Invoices()
	require.Len(t, stored, 1)
	got := stored[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, "c1", got.CustomerID)
	assert.Equal(t, api.StatusDraft, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p1", got.Items[0].ItemID)
	assert.True(t, got.Items[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Total.Equal(decimal.NewFromInt(110)))

	_, err = invoiceCreator(client)(context.Background(), payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invoice number already exists")
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "invoicer/dev", userAgent(""))
	assert.Equal(t, "invoicer/1.2.0", userAgent("1.2.0"))
}
