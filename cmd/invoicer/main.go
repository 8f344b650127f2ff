package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/invoicer/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/invoicer/config.toml)")
	prefsPath := flag.String("prefs", "", "UI preferences path (optional)")
	userID := flag.String("user", "", "owner id to act as (overrides config)")
	pageSize := flag.Int("page-size", 0, "rows per page: 10, 20 or 50 (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		UserID:     *userID,
		PageSize:   *pageSize,
		Version:    version,
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "invoicer: %v\n", err)
		return 1
	}
	return 0
}
