package state

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/draft"
	"github.com/five82/invoicer/internal/ledger"
)

// Snapshot is the customer and product catalog as last loaded.
type Snapshot struct {
	Customers           []api.Customer
	Products            []api.Product
	Loaded              bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the backend has been unreachable for multiple
// refreshes.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store holds the catalog the invoice editor picks from. The refresher
// writes it; the UI reads it.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the catalog. When err is non-nil the previous records are
// kept and the failure is counted.
func (s *Store) Update(customers []api.Customer, products []api.Product, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Customers = clone(customers)
	s.snapshot.Products = clone(products)
	s.snapshot.Loaded = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current catalog.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Customers = clone(s.snapshot.Customers)
	snap.Products = clone(s.snapshot.Products)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// Product implements ledger.Catalog. The seeded price is the product's cost.
func (s *Store) Product(id string) (ledger.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.snapshot.Products {
		if p.ID == id {
			return ledger.Product{ID: p.ID, Name: p.ProductName, Cost: p.UnitPrice()}, true
		}
	}
	return ledger.Product{}, false
}

// DraftCustomers returns the customers in the form the invoice editor copies
// into its header.
func (s *Store) DraftCustomers() []draft.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]draft.Customer, 0, len(s.snapshot.Customers))
	for _, c := range s.snapshot.Customers {
		out = append(out, DraftCustomer(c))
	}
	return out
}

// DraftCustomer maps a customer record onto the editor's header fields. The
// address is the shipping address only; a customer without one gets an empty
// address, never the billing address.
func DraftCustomer(c api.Customer) draft.Customer {
	var addr string
	if c.ShippingAddress != nil {
		addr = c.ShippingAddress.OneLine()
	}
	return draft.Customer{
		ID:      c.ID,
		Name:    strings.TrimSpace(c.FirstName),
		Address: addr,
		Email:   c.Email,
		Phone:   c.Phone,
	}
}

// FindCustomer returns the customer with the given id.
func (s Snapshot) FindCustomer(id string) (api.Customer, bool) {
	for _, c := range s.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return api.Customer{}, false
}

func clone[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
