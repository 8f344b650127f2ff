// Package config loads invoicer's configuration.
//
// # Sources
//
// Settings are resolved in three layers, later layers winning:
//
//  1. Built-in defaults (see Default).
//  2. A TOML file, by default ~/.config/invoicer/config.toml. A missing file
//     is not an error.
//  3. Environment variables prefixed with INVOICER_. A .env file in the
//     working directory is read first and only fills variables that are not
//     already set.
//
// # Recognised keys
//
//	api_url          backend base URL, e.g. http://127.0.0.1:8000/api
//	user_id          owner id used to scope list queries (optional)
//	page_size        initial list page size: 10, 20 or 50
//	request_timeout  per-request HTTP timeout, Go duration syntax
//	log_file         path of the application log
//	log_level        debug, info, warn or error
//	export_dir       directory for exported invoice PDFs
//	refresh_interval how often the customer/product catalog is reloaded
//	issuer_name      "From" name on printed invoices (optional)
//	issuer_address   "From" address on printed invoices (optional)
//
// Paths beginning with ~ are expanded against the user's home directory.
// Unsupported page sizes fall back to 10.
package config
