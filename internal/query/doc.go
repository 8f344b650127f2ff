// Package query models the search, sort and paging parameters of a resource
// list and turns them into backend list requests.
//
// A Descriptor captures everything that differs between the customer,
// product and invoice lists: endpoint, how the owner id is scoped, the
// default sort, and the fixed message the backend returns when a list is
// empty. State is pure data with no I/O; package listsync drives fetches
// from it.
//
// Request encoding follows the backend's paginated query contract:
//
//	GET /customer/{owner}?search=&page=1&limit=10&sortField=createdAt&sortOrder=desc
//	GET /invoice?userId={owner}&search=&page=1&limit=10&sortField=createdAt&sortOrder=desc
package query
