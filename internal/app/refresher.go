package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/notify"
	"github.com/five82/invoicer/internal/query"
	"github.com/five82/invoicer/internal/state"
)

const (
	defaultRefreshInterval = 60 * time.Second
	retryBase              = 2 * time.Second
	maxBackoff             = 30 * time.Second

	catalogPageSize = 50
	maxCatalogPages = 100
)

// CatalogSource lists the records the invoice editor picks from.
type CatalogSource interface {
	ListCustomers(ctx context.Context, req query.Request) (api.Page[api.Customer], error)
	ListProducts(ctx context.Context, req query.Request) (api.Page[api.Product], error)
}

// Refresher keeps the catalog store loaded.
type Refresher struct {
	store    *state.Store
	source   CatalogSource
	owner    string
	interval time.Duration
	kick     chan struct{}
}

// NewRefresher returns a Refresher reloading every interval.
func NewRefresher(store *state.Store, source CatalogSource, ownerID string, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &Refresher{
		store:    store,
		source:   source,
		owner:    ownerID,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Trigger asks the running loop to reload now. It never blocks.
func (r *Refresher) Trigger() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Start runs the refresh loop in a goroutine until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Refresher) run(ctx context.Context) {
	timer := time.NewTimer(r.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-r.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		_ = r.Refresh(ctx)
		timer.Reset(r.nextDelay())
	}
}

// nextDelay waits the normal interval after a success and backs off from
// retryBase after failures.
func (r *Refresher) nextDelay() time.Duration {
	if failures := r.store.Snapshot().ConsecutiveFailures; failures > 0 {
		return calculateBackoff(failures, retryBase)
	}
	return r.interval
}

// Refresh loads every customer and product page into the store.
func (r *Refresher) Refresh(ctx context.Context) error {
	customers, err := loadAll(ctx, query.Customers, r.owner, r.source.ListCustomers)
	if err != nil {
		r.store.Update(nil, nil, err)
		slog.Warn("catalog customers refresh failed", "error", err)
		return err
	}
	products, err := loadAll(ctx, query.Products, r.owner, r.source.ListProducts)
	if err != nil {
		r.store.Update(nil, nil, err)
		slog.Warn("catalog products refresh failed", "error", err)
		return err
	}
	r.store.Update(customers, products, nil)
	slog.Debug("catalog refreshed", "customers", len(customers), "products", len(products))
	return nil
}

// calculateBackoff doubles base per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// loadAll walks every page of a list. The kind's "not found" reply ends the
// walk with whatever was collected.
func loadAll[T any](ctx context.Context, d query.Descriptor, ownerID string, list func(context.Context, query.Request) (api.Page[T], error)) ([]T, error) {
	st := query.NewState(d, catalogPageSize)
	var out []T
	for {
		page, err := list(ctx, st.Request(d, ownerID))
		if err != nil {
			if notify.IsEmptyResult(err, d.EmptyMessage) {
				return out, nil
			}
			return nil, fmt.Errorf("load %s page %d: %w", d.Kind, st.Page, err)
		}
		out = append(out, page.Records...)
		if len(page.Records) == 0 || page.Pagination.CurrentPage >= page.Pagination.TotalPages || st.Page >= maxCatalogPages {
			return out, nil
		}
		st.SetPage(st.Page + 1)
	}
}
