package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/starford/koinecards/internal/manifest"
	"github.com/starford/koinecards/internal/mcpserver"
	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/offline"
	"github.com/starford/koinecards/internal/storage"
	"github.com/starford/koinecards/internal/tui"
)

// View runs the terminal viewer. The deck is loaded by the program itself
// so the error panel can show a failed load.
func View(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Logs would corrupt the alternate screen.
	logger, closeLog, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	svc, closeDeck, err := newDeckService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeck()

	return tui.Run(ctx, svc)
}

// MCP serves the deck over MCP stdio. Stdout carries the protocol, so logs
// go to stderr unless a log file is configured.
func MCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	svc, closeDeck, err := newDeckService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeck()

	// Tools report a failed load themselves.
	_ = svc.Load(ctx)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, Version).ServeStdio()
}

// Manifest writes the manifest of the local cards directory. With watch it
// keeps rewriting it until interrupted.
func Manifest(ctx context.Context, watch bool, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	out := app.output()

	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	if cfg.Deck.Dir == "" {
		return fmt.Errorf("manifest: deck.dir is not set")
	}
	store, err := storage.NewFS(cfg.Deck.Dir)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	m, written, err := manifest.Write(store, cfg.Deck.Manifest)
	if err != nil {
		return err
	}
	report := func(m *models.Manifest, written bool) {
		state := "unchanged"
		if written {
			state = "written"
		}
		fmt.Fprintf(out, "%s: %d files (%s)\n", cfg.Deck.Manifest, len(m.Files), state)
	}
	report(m, written)

	if !watch {
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		waitForShutdown(watchCtx, logger)
		cancel()
	}()
	return manifest.Watch(watchCtx, store, cfg.Deck.Manifest, logger, func(m *models.Manifest) {
		report(m, true)
	})
}

// Cache lists the offline cache stores with their entry counts. The store
// named by cache.version is marked active.
func Cache(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	out := app.output()

	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := offline.OpenSQLite(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("open offline cache: %w", err)
	}
	defer store.Close()

	keys, err := store.Keys(ctx)
	if err != nil {
		return err
	}
	logger.Debug("offline: stores listed", slog.Int("count", len(keys)))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STORE\tENTRIES\tACTIVE")
	for _, k := range keys {
		n, err := store.Len(ctx, k)
		if err != nil {
			return err
		}
		active := ""
		if k == cfg.Cache.Version {
			active = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", k, n, active)
	}
	return tw.Flush()
}
