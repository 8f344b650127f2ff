package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/query"
)

// Gateway is the backend surface the application depends on.
type Gateway interface {
	CurrentUser(ctx context.Context) (User, error)

	ListCustomers(ctx context.Context, req query.Request) (Page[Customer], error)
	GetCustomer(ctx context.Context, id string) (Customer, error)
	CreateCustomer(ctx context.Context, ownerID string, c Customer) (Customer, error)
	UpdateCustomer(ctx context.Context, id string, c Customer) error
	DeleteCustomer(ctx context.Context, id string) error

	ListProducts(ctx context.Context, req query.Request) (Page[Product], error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, ownerID string, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id string, p Product) error
	DeleteProduct(ctx context.Context, id string) error

	ListInvoices(ctx context.Context, req query.Request) (Page[Invoice], error)
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	UpdateInvoice(ctx context.Context, id string, inv Invoice) error
	DeleteInvoice(ctx context.Context, id string) error
}

// Ensure Client implements Gateway at compile time.
var _ Gateway = (*Client)(nil)

// Client talks to the invoicing backend over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	metrics   *instruments
}

const (
	defaultBaseURL   = "http://127.0.0.1:8000/api"
	defaultUserAgent = "invoicer/0.1"
	defaultTimeout   = 10 * time.Second
	maxErrorBody     = 64 << 10
)

// Options configures NewClient. Zero values select defaults.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	UserAgent     string
	MeterProvider metric.MeterProvider
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// NewClient builds a Client for the backend at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	agent := strings.TrimSpace(opts.UserAgent)
	if agent == "" {
		agent = defaultUserAgent
	}
	metrics, err := newInstruments(opts.MeterProvider)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout, Transport: opts.Transport},
		userAgent: agent,
		metrics:   metrics,
	}, nil
}

// BaseURL returns the resolved backend URL.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// CurrentUser fetches the account the session belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var payload userEnvelope
	if err := c.do(ctx, "current user", http.MethodGet, "/user", nil, nil, &payload); err != nil {
		return User{}, err
	}
	if err := checkStatus("current user", payload.Status, payload.Message); err != nil {
		return User{}, err
	}
	return payload.User, nil
}

// ListCustomers fetches one page of customers.
func (c *Client) ListCustomers(ctx context.Context, req query.Request) (Page[Customer], error) {
	return list[Customer](ctx, c, "list customers", req)
}

// GetCustomer fetches a single customer.
func (c *Client) GetCustomer(ctx context.Context, id string) (Customer, error) {
	return get[Customer](ctx, c, "get customer", "/customers/", id)
}

// CreateCustomer stores a new customer owned by ownerID.
func (c *Client) CreateCustomer(ctx context.Context, ownerID string, cust Customer) (Customer, error) {
	cust.UserID = ownerID
	var payload dataEnvelope[Customer]
	if err := c.do(ctx, "create customer", http.MethodPost, "/customer", nil, cust, &payload); err != nil {
		return Customer{}, err
	}
	if err := checkStatus("create customer", payload.Status, payload.Message); err != nil {
		return Customer{}, err
	}
	return payload.Data, nil
}

// UpdateCustomer replaces the customer with id.
func (c *Client) UpdateCustomer(ctx context.Context, id string, cust Customer) error {
	return c.mutate(ctx, "update customer", http.MethodPut, "/customer/", id, cust)
}

// DeleteCustomer removes the customer with id.
func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.mutate(ctx, "delete customer", http.MethodDelete, "/customer/", id, nil)
}

// ListProducts fetches one page of catalog items.
func (c *Client) ListProducts(ctx context.Context, req query.Request) (Page[Product], error) {
	return list[Product](ctx, c, "list products", req)
}

// GetProduct fetches a single catalog item.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	return get[Product](ctx, c, "get product", "/item/", id)
}

// CreateProduct stores a new catalog item owned by ownerID.
func (c *Client) CreateProduct(ctx context.Context, ownerID string, p Product) (Product, error) {
	p.UserID = ownerID
	var payload dataEnvelope[Product]
	if err := c.do(ctx, "create product", http.MethodPost, "/item", nil, p, &payload); err != nil {
		return Product{}, err
	}
	if err := checkStatus("create product", payload.Status, payload.Message); err != nil {
		return Product{}, err
	}
	return payload.Data, nil
}

// UpdateProduct replaces the catalog item with id.
func (c *Client) UpdateProduct(ctx context.Context, id string, p Product) error {
	return c.mutate(ctx, "update product", http.MethodPut, "/item/", id, p)
}

// DeleteProduct removes the catalog item with id.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.mutate(ctx, "delete product", http.MethodDelete, "/item/", id, nil)
}

// ListInvoices fetches one page of invoices.
func (c *Client) ListInvoices(ctx context.Context, req query.Request) (Page[Invoice], error) {
	return list[Invoice](ctx, c, "list invoices", req)
}

// GetInvoice fetches a single invoice.
func (c *Client) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	return get[Invoice](ctx, c, "get invoice", "/invoice/", id)
}

// CreateInvoice stores inv and returns it with the server-assigned id.
func (c *Client) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	var payload createInvoiceEnvelope
	if err := c.do(ctx, "create invoice", http.MethodPost, "/invoice", nil, inv, &payload); err != nil {
		return Invoice{}, err
	}
	if err := checkStatus("create invoice", payload.Status, payload.Message); err != nil {
		return Invoice{}, err
	}
	if strings.TrimSpace(payload.Invoice.ID) == "" {
		return Invoice{}, &notify.GatewayError{Op: "create invoice", Status: http.StatusOK, Message: "response carried no invoice id"}
	}
	return payload.Invoice, nil
}

// UpdateInvoice replaces the invoice with id.
func (c *Client) UpdateInvoice(ctx context.Context, id string, inv Invoice) error {
	return c.mutate(ctx, "update invoice", http.MethodPut, "/invoice/", id, inv)
}

// DeleteInvoice removes the invoice with id.
func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	return c.mutate(ctx, "delete invoice", http.MethodDelete, "/invoice/", id, nil)
}

func list[T any](ctx context.Context, c *Client, op string, req query.Request) (Page[T], error) {
	var payload listEnvelope[T]
	if err := c.do(ctx, op, http.MethodGet, req.Path, req.Values, nil, &payload); err != nil {
		return Page[T]{}, err
	}
	if err := checkStatus(op, payload.Status, payload.Message); err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Records: payload.Data, Pagination: payload.Pagination}, nil
}

func get[T any](ctx context.Context, c *Client, op, prefix, id string) (T, error) {
	var zero T
	if strings.TrimSpace(id) == "" {
		return zero, fmt.Errorf("%s: id required", op)
	}
	var payload dataEnvelope[T]
	if err := c.do(ctx, op, http.MethodGet, prefix+id, nil, nil, &payload); err != nil {
		return zero, err
	}
	if err := checkStatus(op, payload.Status, payload.Message); err != nil {
		return zero, err
	}
	return payload.Data, nil
}

func (c *Client) mutate(ctx context.Context, op, method, prefix, id string, body any) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s: id required", op)
	}
	var payload statusEnvelope
	if err := c.do(ctx, op, method, prefix+id, nil, body, &payload); err != nil {
		return err
	}
	return checkStatus(op, payload.Status, payload.Message)
}

// checkStatus turns a 2xx response carrying status:false into a gateway error.
func checkStatus(op string, status *bool, message string) error {
	if status != nil && !*status {
		return &notify.GatewayError{Op: op, Status: http.StatusOK, Message: strings.TrimSpace(message)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, values url.Values, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}

	reqURL := *c.baseURL
	reqURL.Path = strings.TrimSuffix(c.baseURL.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	reqURL.RawPath = ""
	if len(values) > 0 {
		reqURL.RawQuery = values.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.record(ctx, op, method, 0, time.Since(start), true)
		slog.Warn("api request failed", "op", op, "request_id", requestID, "error", err)
		return fmt.Errorf("%s: execute request: %w: %w", op, notify.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	failed := resp.StatusCode >= 400
	c.metrics.record(ctx, op, method, resp.StatusCode, time.Since(start), failed)
	slog.Debug("api request", "op", op, "method", method, "path", reqURL.Path,
		"status", resp.StatusCode, "request_id", requestID, "elapsed", time.Since(start))

	if failed {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &notify.GatewayError{Op: op, Status: resp.StatusCode, Message: decodeMessage(raw)}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
