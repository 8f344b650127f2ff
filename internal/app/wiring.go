package app

import (
	"context"

	"github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/draft"
	"github.com/five82/invoicer/internal/listsync"
	"github.com/five82/invoicer/internal/prefs"
	"github.com/five82/invoicer/internal/query"
	"github.com/five82/invoicer/internal/ui"
)

// listFetch adapts a gateway list call to a synchronizer fetch.
func listFetch[T any](list func(context.Context, query.Request) (api.Page[T], error)) listsync.FetchFunc[T] {
	return func(ctx context.Context, req query.Request) (listsync.Page[T], error) {
		page, err := list(ctx, req)
		if err != nil {
			return listsync.Page[T]{}, err
		}
		return listsync.Page[T]{Records: page.Records, Pagination: page.Pagination}, nil
	}
}

// pageSizer picks each list's starting page size. An explicit override wins
// over remembered preferences, which win over the configured default.
type pageSizer struct {
	override int
	fallback int
	prefs    prefs.Prefs
}

func (p pageSizer) For(kind query.Kind) int {
	if query.ValidPageSize(p.override) {
		return p.override
	}
	return p.prefs.PageSize(string(kind), p.fallback)
}

// newLists builds the three list synchronizers.
func newLists(gw api.Gateway, ownerID string, sizes pageSizer) ui.Lists {
	return ui.Lists{
		Customers: listsync.New(listsync.Options[api.Customer]{
			Descriptor: query.Customers,
			OwnerID:    ownerID,
			PageSize:   sizes.For(query.KindCustomers),
			Fetch:      listFetch(gw.ListCustomers),
		}),
		Products: listsync.New(listsync.Options[api.Product]{
			Descriptor: query.Products,
			OwnerID:    ownerID,
			PageSize:   sizes.For(query.KindProducts),
			Fetch:      listFetch(gw.ListProducts),
		}),
		Invoices: listsync.New(listsync.Options[api.Invoice]{
			Descriptor: query.Invoices,
			OwnerID:    ownerID,
			PageSize:   sizes.For(query.KindInvoices),
			Fetch:      listFetch(gw.ListInvoices),
		}),
	}
}

// invoiceCreator stores drafts through gw.
func invoiceCreator(gw api.Gateway) draft.CreateFunc {
	return func(ctx context.Context, p draft.Payload) (string, error) {
		inv, err := gw.CreateInvoice(ctx, invoiceFromDraft(p))
		if err != nil {
			return "", err
		}
		return inv.ID, nil
	}
}

func invoiceFromDraft(p draft.Payload) api.Invoice {
	items := make([]api.InvoiceItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, api.InvoiceItem{
			ItemID:      it.ProductID,
			Description: it.Description,
			Quantity:    api.NewAmount(it.Quantity),
			UnitPrice:   api.NewAmount(it.UnitPrice),
			Amount:      api.NewAmount(it.Amount),
		})
	}
	h := p.Header
	return api.Invoice{
		UserID:        p.OwnerID,
		CustomerID:    h.CustomerID,
		ClientName:    h.ClientName,
		ClientAddress: h.ClientAddress,
		ClientEmail:   h.ClientEmail,
		ClientPhone:   h.ClientPhone,
		InvoiceNumber: h.InvoiceNumber,
		InvoiceDate:   h.InvoiceDate,
		DueDate:       h.DueDate,
		Items:         items,
		SubTotal:      api.NewAmount(p.Totals.SubTotal),
		Tax:           api.NewAmount(p.Totals.Tax),
		Total:         api.NewAmount(p.Totals.Total),
		Notes:         h.Notes,
		Status:        api.InvoiceStatus(h.Status),
	}
}

func userAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return "invoicer/" + version
}
