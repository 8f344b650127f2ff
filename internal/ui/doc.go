// Package ui is the Bubble Tea terminal interface for invoicer.
//
// The Model owns three list views (customers, products, invoices), the
// invoice editor, the print view and a log viewer. Every network call runs
// inside a tea.Cmd; its result comes back as a message and is applied in
// Update, so synchronizers and the draft controller are only ever touched
// from the update loop.
//
// Record forms and delete confirmations are modals drawn over the current
// view. Notifications go to a small tray shown on the last line.
package ui
