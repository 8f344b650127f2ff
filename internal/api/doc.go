// Package api provides the HTTP client for the invoicing backend.
//
// # Overview
//
// Client implements Gateway: a paginated list, a single-record fetch and
// create/update/delete for each resource kind (customers, catalog items,
// invoices), plus the current-user lookup used to bootstrap a session.
// List requests are built by package query; this package only moves them
// over the wire.
//
// # Endpoints
//
//	GET    /user                         current user
//	GET    /customer/{owner}?...         list customers
//	GET    /customers/{id}               one customer
//	POST   /customer                     create (body carries userId)
//	PUT    /customer/{id}, DELETE ...    update, delete
//	GET    /item/{owner}?...             list items
//	GET    /item/{id}                    one item
//	POST   /item, PUT|DELETE /item/{id}
//	GET    /invoice?userId=...           list invoices
//	GET    /invoice/{id}                 one invoice ({data: Invoice})
//	POST   /invoice                      create ({invoice: {_id}})
//	PUT    /invoice/{id}, DELETE ...
//
// All paths are relative to the configured base URL, which may carry a path
// prefix such as /api.
//
// # Errors
//
// Failures come back as the types in package notify:
//
//   - no response at all wraps notify.ErrTransport
//   - a non-2xx status, or a 2xx body with "status": false, is a
//     *notify.GatewayError carrying the body's message field when present
//   - a malformed body is a plain wrapped "decode response" error
//
// List endpoints report an empty result as a 404 with a fixed message;
// notify.IsEmptyResult recognises it.
//
// # Request Handling
//
// Every request sets Accept: application/json, a User-Agent and a fresh
// X-Request-ID, and is recorded on the OpenTelemetry meter given in Options
// (the global provider by default): a request counter, a failure counter
// and a latency histogram.
//
// Money fields use Amount, a shopspring decimal that encodes as a bare JSON
// number and tolerates the quoted, empty and null values the backend stores.
package api
