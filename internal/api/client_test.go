package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	. "github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/api/apitest"
	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/query"
)

func newTestClient(t *testing.T, srv *apitest.Server, opts ...func(*Options)) *Client {
	t.Helper()
	o := Options{BaseURL: srv.BaseURL()}
	for _, fn := range opts {
		fn(&o)
	}
	c, err := NewClient(o)
	require.NoError(t, err)
	return c
}

func TestClient_ListCustomersEncodesQuery(t *testing.T) {
	srv := apitest.NewServer("owner-1")
	defer srv.Close()
	for _, name := range []string{"Cara", "Abe", "Bea"} {
		srv.AddCustomer(Customer{FirstName: name, Email: name + "@example.com"})
	}
	client := newTestClient(t, srv)

	st := query.NewState(query.Customers, 10)
	st.ToggleSort(query.Customers, "FirstName")
	st.ToggleSort(query.Customers, "FirstName")
	page, err := client.ListCustomers(context.Background(), st.Request(query.Customers, "owner-1"))
	require.NoError(t, err)

	require.Len(t, page.Records, 3)
	assert.Equal(t, "Abe", page.Records[0].FirstName)
	assert.Equal(t, query.Pagination{CurrentPage: 1, TotalPages: 1, TotalRecords: 3}, page.Pagination)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/customer/owner-1", reqs[0].Path)
	assert.Equal(t, "asc", reqs[0].Query["sortOrder"])
	assert.Equal(t, "10", reqs[0].Query["limit"])
	assert.NotEmpty(t, reqs[0].RequestID)
	assert.Equal(t, DefaultUserAgent, reqs[0].UserAgent)
}

func TestClient_ListNotFoundIsRecognisedAsEmpty(t *testing.T) {
	srv := apitest.NewServer("owner-1")
	defer srv.Close()
	client := newTestClient(t, srv)

	st := query.NewState(query.Invoices, 10)
	_, err := client.ListInvoices(context.Background(), st.Request(query.Invoices, "owner-1"))
	require.Error(t, err)
	assert.True(t, notify.IsEmptyResult(err, query.Invoices.EmptyMessage))

	var gw *notify.GatewayError
	require.ErrorAs(t, err, &gw)
	assert.Equal(t, http.StatusNotFound, gw.Status)
}

func TestClient_ProductsListAndGetShareRouteShape(t *testing.T) {
	srv := apitest.NewServer("owner-1")
	defer srv.Close()
	bolt := srv.AddProduct(Product{ProductName: "Bolt", Cost: NewAmount(decimal.RequireFromString("0.10"))})
	client := newTestClient(t, srv)

	st := query.NewState(query.Products, 20)
	page, err := client.ListProducts(context.Background(), st.Request(query.Products, "owner-1"))
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	got, err := client.GetProduct(context.Background(), bolt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bolt", got.ProductName)
	assert.True(t, got.Cost.Equal(decimal.RequireFromString("0.1")))
}

func TestClient_CustomerCRUD(t *testing.T) {
	srv := apitest.NewServer("owner-1")
	defer srv.Close()
	client := newTestClient(t, srv)
	ctx := context.Background()

	created, err := client.CreateCustomer(ctx, "owner-1", Customer{FirstName: "Dana", Email: "dana@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "owner-1", created.UserID)

	created.Phone = "555-0100"
	require.NoError(t, client.UpdateCustomer(ctx, created.ID, created))

	got, err := client.GetCustomer(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", got.Phone)

	require.NoError(t, client.DeleteCustomer(ctx, created.ID))
	err = client.DeleteCustomer(ctx, created.ID)
	assert.Equal(t, "Customer not found", notify.Describe(err, "Error deleting customer"))

	_, err = client.GetCustomer(ctx, "")
	assert.Error(t, err)
}

func TestClient_CreateInvoiceReturnsID(t *testing.T) {
	srv := apitest.NewServer("owner-1")
	defer srv.Close()
	client := newTestClient(t, srv)

	inv := Invoice{
		UserID:        "owner-1",
		InvoiceNumber: "INV-001",
		Items: []InvoiceItem{{
			Description: "Widget",
			Quantity:    NewAmount(decimal.NewFromInt(2)),
			UnitPrice:   NewAmount(decimal.NewFromInt(50)),
			Amount:      NewAmount(decimal.NewFromInt(100)),
		}},
		SubTotal: NewAmount(decimal.NewFromInt(100)),
		Total:    NewAmount(decimal.RequireFromString("110.00")),
		Status:   StatusDraft,
	}
	created, err := client.CreateInvoice(context.Background(), inv)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	stored := srv.Invoices()
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Total.Equal(decimal.NewFromInt(110)))

	_, err = client.CreateInvoice(context.Background(), inv)
	assert.Equal(t, "Invoice number already exists", notify.Describe(err, "fallback"))
}

func TestClient_GatewayErrorWithoutMessageFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.GetInvoice(context.Background(), "i1")
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch invoice", notify.Describe(err, "Failed to fetch invoice"))
}

func TestClient_StatusFalseOnSuccessIsGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":false,"message":"Session expired"}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.CurrentUser(context.Background())
	assert.Equal(t, "Session expired", notify.Describe(err, ""))
}

func TestClient_TransportErrorIsClassified(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client, err := NewClient(Options{BaseURL: base})
	require.NoError(t, err)
	_, err = client.CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, notify.ErrTransport))
	assert.Equal(t, "Network error", notify.Describe(err, "x"))
}

func TestClient_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"data":`))
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.GetCustomer(context.Background(), "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_RecordsRequestMetrics(t *testing.T) {
	srv := apitest.NewServer("owner-1")
	defer srv.Close()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	client := newTestClient(t, srv, func(o *Options) { o.MeterProvider = provider })
	ctx := context.Background()

	_, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	_, err = client.GetInvoice(ctx, "missing")
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counts[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), counts["invoicer_api_requests_total"])
	assert.Equal(t, int64(1), counts["invoicer_api_failures_total"])
}

func TestProductUnitPriceIsCost(t *testing.T) {
	p := Product{SalesPrice: NewAmount(decimal.NewFromInt(99)), Cost: NewAmount(decimal.NewFromInt(40))}
	assert.True(t, p.UnitPrice().Equal(decimal.NewFromInt(40)), "got %s", p.UnitPrice())

	p.Cost = Amount{}
	assert.True(t, p.UnitPrice().IsZero(), "no cost seeds zero even with a sales price")
}
