// Package state keeps the customer and product catalog shared between the
// background refresher and the UI.
//
// The refresher calls Update after each load; the UI reads Snapshot copies
// and hands the Store to the invoice editor as its product lookup. A failed
// refresh keeps the previous records and bumps ConsecutiveFailures, which the
// header uses to show the backend as offline.
//
// The zero Store is ready to use.
package state
