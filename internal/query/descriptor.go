package query

// Kind identifies a resource kind.
type Kind string

const (
	KindCustomers Kind = "customers"
	KindProducts  Kind = "products"
	KindInvoices  Kind = "invoices"
)

// Scope says where the owner id goes in a list request.
type Scope int

const (
	// ScopePath appends the owner id to the endpoint path: /customer/{owner}.
	ScopePath Scope = iota
	// ScopeQuery sends the owner id as the userId query parameter.
	ScopeQuery
)

// Descriptor parameterizes list behavior for one resource kind.
type Descriptor struct {
	Kind             Kind
	Title            string
	Endpoint         string
	Scope            Scope
	DefaultSortField string
	DefaultSortOrder Order
	SortFields       []string
	// EmptyMessage is the backend's fixed "no records" message for this
	// kind's list endpoint.
	EmptyMessage string
}

// Sortable reports whether field is one of the descriptor's sort keys.
func (d Descriptor) Sortable(field string) bool {
	if field == d.DefaultSortField {
		return true
	}
	for _, f := range d.SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// Customers lists customers, newest first.
var Customers = Descriptor{
	Kind:             KindCustomers,
	Title:            "Customers",
	Endpoint:         "/customer",
	Scope:            ScopePath,
	DefaultSortField: "createdAt",
	DefaultSortOrder: Desc,
	SortFields:       []string{"FirstName", "Email", "Phone", "address"},
	EmptyMessage:     "No customers found!",
}

// Products lists catalog items alphabetically.
var Products = Descriptor{
	Kind:             KindProducts,
	Title:            "Products",
	Endpoint:         "/item",
	Scope:            ScopePath,
	DefaultSortField: "ProductName",
	DefaultSortOrder: Asc,
	SortFields:       []string{"ProductName", "SKU", "Category", "InitialQty", "SalesPrice", "Cost"},
	EmptyMessage:     "Item not found",
}

// Invoices lists the owner's invoices, newest first.
var Invoices = Descriptor{
	Kind:             KindInvoices,
	Title:            "Invoices",
	Endpoint:         "/invoice",
	Scope:            ScopeQuery,
	DefaultSortField: "createdAt",
	DefaultSortOrder: Desc,
	SortFields:       []string{"invoiceNumber", "clientName", "total", "status"},
	EmptyMessage:     "No invoices found for the user!",
}
