package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/config"
	"github.com/five82/invoicer/internal/logging"
	"github.com/five82/invoicer/internal/prefs"
	"github.com/five82/invoicer/internal/query"
	"github.com/five82/invoicer/internal/session"
	"github.com/five82/invoicer/internal/state"
	"github.com/five82/invoicer/internal/ui"
)

// Options configure the invoicer application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/invoicer/prefs.toml
	UserID     string // overrides the configured owner id
	PageSize   int    // overrides every list's starting page size
	Version    string
}

// Run boots the invoicer TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if id := strings.TrimSpace(opts.UserID); id != "" {
		cfg.UserID = id
	}
	if opts.PageSize != 0 && !query.ValidPageSize(opts.PageSize) {
		return fmt.Errorf("page size %d: must be one of 10, 20, 50", opts.PageSize)
	}

	closeLog, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		slog.Warn("preferences unreadable, using defaults", "error", err)
	}

	client, err := api.NewClient(api.Options{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.RequestTimeout,
		UserAgent: userAgent(opts.Version),
	})
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	sess, err := session.Bootstrap(ctx, cfg.UserID, client)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	slog.Info("session started", "owner", sess.OwnerID, "api", client.BaseURL())

	store := &state.Store{}
	refresher := NewRefresher(store, client, sess.OwnerID, cfg.RefreshInterval)
	// Populate the catalog before the editor can be opened; failures are
	// recorded in the store and retried by the loop.
	_ = refresher.Refresh(ctx)
	refresher.Start(ctx)

	sizes := pageSizer{override: opts.PageSize, fallback: cfg.PageSize, prefs: userPrefs}
	return ui.Run(ui.Options{
		Context:        ctx,
		Gateway:        client,
		Store:          store,
		Session:        sess,
		Config:         &cfg,
		Lists:          newLists(client, sess.OwnerID, sizes),
		CreateInvoice:  invoiceCreator(client),
		RefreshCatalog: refresher.Trigger,
		Prefs:          userPrefs,
		PrefsPath:      opts.PrefsPath,
	})
}
