// Package app is invoicer's composition root.
//
// Run loads configuration, opens the log file, resolves the session owner,
// builds the API client and the three list synchronizers, starts the catalog
// refresher and then hands control to the UI until the user quits.
//
// # Catalog refresher
//
// The invoice editor picks customers and products from a catalog held in
// state.Store. The Refresher walks every page of both lists at startup and
// then every refresh_interval. After a failure it retries sooner, doubling
// from 2s up to 30s, and returns to the normal interval once a load
// succeeds. The UI calls Trigger after creating or editing a record so the
// editor sees it without waiting.
package app
