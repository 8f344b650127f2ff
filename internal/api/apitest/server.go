// Package apitest runs an in-memory invoicing backend for tests. It speaks
// the same routes, envelopes and "not found" messages as the real service.
package apitest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/five82/invoicer/internal/api"
)

// Recorded is a request the server received.
type Recorded struct {
	Method    string
	Path      string
	Query     map[string]string
	RequestID string
	UserAgent string
}

type failure struct {
	status  int
	message string
}

// Server is an httptest server backed by in-memory collections.
type Server struct {
	*httptest.Server
	UserID string

	mu        sync.Mutex
	customers []api.Customer
	products  []api.Product
	invoices  []api.Invoice
	nextID    int
	failures  []failure
	requests  []Recorded
	epoch     time.Time
}

// NewServer starts a backend whose /user endpoint reports userID.
func NewServer(userID string) *Server {
	s := &Server{
		UserID: userID,
		epoch:  time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// BaseURL is the API root to hand to api.NewClient.
func (s *Server) BaseURL() string {
	return s.Server.URL + "/api"
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)
	r.Use(s.injectFailures)

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/user", s.getUser).Methods(http.MethodGet)

	a.HandleFunc("/customer/{owner}", s.listCustomers).Methods(http.MethodGet)
	a.HandleFunc("/customers/{id}", s.getCustomer).Methods(http.MethodGet)
	a.HandleFunc("/customer", s.createCustomer).Methods(http.MethodPost)
	a.HandleFunc("/customer/{id}", s.updateCustomer).Methods(http.MethodPut)
	a.HandleFunc("/customer/{id}", s.deleteCustomer).Methods(http.MethodDelete)

	// Listing and fetching an item share a path shape; list requests always
	// carry a page parameter.
	a.HandleFunc("/item/{owner}", s.listProducts).Methods(http.MethodGet).Queries("page", "{page}")
	a.HandleFunc("/item/{id}", s.getProduct).Methods(http.MethodGet)
	a.HandleFunc("/item", s.createProduct).Methods(http.MethodPost)
	a.HandleFunc("/item/{id}", s.updateProduct).Methods(http.MethodPut)
	a.HandleFunc("/item/{id}", s.deleteProduct).Methods(http.MethodDelete)

	a.HandleFunc("/invoice", s.listInvoices).Methods(http.MethodGet)
	a.HandleFunc("/invoice/{id}", s.getInvoice).Methods(http.MethodGet)
	a.HandleFunc("/invoice", s.createInvoice).Methods(http.MethodPost)
	a.HandleFunc("/invoice/{id}", s.updateInvoice).Methods(http.MethodPut)
	a.HandleFunc("/invoice/{id}", s.deleteInvoice).Methods(http.MethodDelete)
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := map[string]string{}
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				q[k] = v[0]
			}
		}
		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     q,
			RequestID: r.Header.Get("X-Request-ID"),
			UserAgent: r.Header.Get("User-Agent"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var f *failure
		if len(s.failures) > 0 {
			f = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()
		if f != nil {
			writeJSON(w, f.status, map[string]any{"status": false, "message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next request fail with status and message.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, message: message})
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

func (s *Server) id(prefix string) (string, string) {
	s.nextID++
	return fmt.Sprintf("%s%04d", prefix, s.nextID), s.epoch.Add(time.Duration(s.nextID) * time.Minute).Format(time.RFC3339)
}

// AddCustomer seeds a customer and returns it with its id.
func (s *Server) AddCustomer(c api.Customer) api.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID, c.CreatedAt = s.id("c")
	if c.UserID == "" {
		c.UserID = s.UserID
	}
	s.customers = append(s.customers, c)
	return c
}

// AddProduct seeds a catalog item and returns it with its id.
func (s *Server) AddProduct(p api.Product) api.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID, _ = s.id("p")
	if p.UserID == "" {
		p.UserID = s.UserID
	}
	s.products = append(s.products, p)
	return p
}

// AddInvoice seeds an invoice and returns it with its id.
func (s *Server) AddInvoice(inv api.Invoice) api.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID, inv.CreatedAt = s.id("i")
	if inv.UserID == "" {
		inv.UserID = s.UserID
	}
	s.invoices = append(s.invoices, inv)
	return inv
}

// Invoices returns the stored invoices.
func (s *Server) Invoices() []api.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Invoice(nil), s.invoices...)
}

// Customers returns the stored customers.
func (s *Server) Customers() []api.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Customer(nil), s.customers...)
}

// Products returns the stored catalog items.
func (s *Server) Products() []api.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Product(nil), s.products...)
}

func (s *Server) getUser(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": true,
		"user":   api.User{ID: s.UserID, Name: "Test Owner", Email: "owner@example.com"},
	})
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	owner := mux.Vars(r)["owner"]
	s.mu.Lock()
	var matched []api.Customer
	for _, c := range s.customers {
		if c.UserID == owner && matches(r, c.FirstName, c.CompanyName, c.Email, c.Phone) {
			matched = append(matched, c)
		}
	}
	s.mu.Unlock()
	writePage(w, r, matched, "No customers found!")
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	owner := mux.Vars(r)["owner"]
	s.mu.Lock()
	var matched []api.Product
	for _, p := range s.products {
		if p.UserID == owner && matches(r, p.ProductName, p.SKU, p.Category) {
			matched = append(matched, p)
		}
	}
	s.mu.Unlock()
	writePage(w, r, matched, "Item not found")
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("userId")
	s.mu.Lock()
	var matched []api.Invoice
	for _, inv := range s.invoices {
		if inv.UserID == owner && matches(r, inv.InvoiceNumber, inv.ClientName) {
			matched = append(matched, inv)
		}
	}
	s.mu.Unlock()
	writePage(w, r, matched, "No invoices found for the user!")
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"status": true, "data": c})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Customer not found")
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"status": true, "data": p})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Item not found")
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"status": true, "data": inv})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Invoice not found")
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c api.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid customer payload")
		return
	}
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.Email) == "" {
		writeMessage(w, http.StatusBadRequest, "FirstName and Email are required")
		return
	}
	c = s.AddCustomer(c)
	writeJSON(w, http.StatusCreated, map[string]any{"status": true, "data": c})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p api.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid item payload")
		return
	}
	p = s.AddProduct(p)
	writeJSON(w, http.StatusCreated, map[string]any{"status": true, "data": p})
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var inv api.Invoice
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid invoice payload")
		return
	}
	s.mu.Lock()
	for _, existing := range s.invoices {
		if existing.UserID == inv.UserID && existing.InvoiceNumber == inv.InvoiceNumber {
			s.mu.Unlock()
			writeMessage(w, http.StatusConflict, "Invoice number already exists")
			return
		}
	}
	s.mu.Unlock()
	inv = s.AddInvoice(inv)
	writeJSON(w, http.StatusCreated, map[string]any{"status": true, "invoice": inv})
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var c api.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid customer payload")
		return
	}
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID == id {
			c.ID, c.UserID, c.CreatedAt = id, s.customers[i].UserID, s.customers[i].CreatedAt
			s.customers[i] = c
			writeJSON(w, http.StatusOK, map[string]any{"status": true})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Customer not found")
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var p api.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid item payload")
		return
	}
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			p.ID, p.UserID = id, s.products[i].UserID
			s.products[i] = p
			writeJSON(w, http.StatusOK, map[string]any{"status": true})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Item not found")
}

func (s *Server) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var inv api.Invoice
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid invoice payload")
		return
	}
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.invoices {
		if s.invoices[i].ID == id {
			inv.ID, inv.CreatedAt = id, s.invoices[i].CreatedAt
			if inv.UserID == "" {
				inv.UserID = s.invoices[i].UserID
			}
			s.invoices[i] = inv
			writeJSON(w, http.StatusOK, map[string]any{"status": true})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Invoice not found")
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var found bool
	s.customers, found = deleteFrom(s.customers, mux.Vars(r)["id"], func(c api.Customer) string { return c.ID })
	s.mu.Unlock()
	writeDeleted(w, found, "Customer deleted successfully", "Customer not found")
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var found bool
	s.products, found = deleteFrom(s.products, mux.Vars(r)["id"], func(p api.Product) string { return p.ID })
	s.mu.Unlock()
	writeDeleted(w, found, "Item deleted successfully", "Item not found")
}

func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var found bool
	s.invoices, found = deleteFrom(s.invoices, mux.Vars(r)["id"], func(inv api.Invoice) string { return inv.ID })
	s.mu.Unlock()
	writeDeleted(w, found, "Invoice deleted successfully", "Invoice not found")
}

func deleteFrom[T any](items []T, id string, key func(T) string) ([]T, bool) {
	for i, item := range items {
		if key(item) == id {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}

func writeDeleted(w http.ResponseWriter, found bool, ok, missing string) {
	if !found {
		writeMessage(w, http.StatusNotFound, missing)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": true, "message": ok})
}

func matches(r *http.Request, fields ...string) bool {
	term := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func writePage[T any](w http.ResponseWriter, r *http.Request, records []T, emptyMessage string) {
	if len(records) == 0 {
		writeMessage(w, http.StatusNotFound, emptyMessage)
		return
	}
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), 10)
	sortRecords(records, q.Get("sortField"), q.Get("sortOrder"))

	total := len(records)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": true,
		"data":   records[start:end],
		"pagination": map[string]int{
			"currentPage":  page,
			"totalPages":   totalPages,
			"totalRecords": total,
		},
	})
}

// sortRecords orders records by the JSON field named field, comparing
// numerically when both values are numbers.
func sortRecords[T any](records []T, field, order string) {
	if field == "" {
		return
	}
	keys := make([]any, len(records))
	for i, rec := range records {
		raw, _ := json.Marshal(rec)
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		keys[i] = m[field]
	}
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		less := compare(keys[idx[a]], keys[idx[b]])
		if order == "desc" {
			return less > 0
		}
		return less < 0
	})
	sorted := make([]T, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	copy(records, sorted)
}

func compare(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"status": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
