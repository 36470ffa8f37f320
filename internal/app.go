package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/starford/koinecards/internal/deckservice"
	"github.com/starford/koinecards/internal/loader"
	"github.com/starford/koinecards/internal/offline"
)

// Version is reported by the MCP server and the CLI.
const Version = "1.0.0"

var errConfigRequired = errors.New("config is required")

// newLogger installs the structured JSON logger. Logs go to app.log_file
// when set, otherwise to fallback.
func newLogger(cfg *Config, fallback io.Writer) (*slog.Logger, func(), error) {
	w, closeFn := fallback, func() {}
	if cfg.App.LogFile != "" {
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, func() { _ = f.Close() }
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

// newClient returns the HTTP client the deck is loaded with. Requests go
// through the offline cache when it is enabled and this version's store is
// installed, either now or by an earlier run; otherwise they go straight to
// the network.
func newClient(ctx context.Context, cfg *Config, l *loader.Loader, logger *slog.Logger) (*http.Client, func(), error) {
	transport := loader.NewTransport()
	plain := &http.Client{Transport: transport}
	if !cfg.Cache.Enabled {
		return plain, func() {}, nil
	}

	store, err := offline.OpenSQLite(cfg.Cache.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open offline cache: %w", err)
	}

	assets := make([]string, 0, len(cfg.Cache.Assets))
	for _, a := range cfg.Cache.Assets {
		assets = append(assets, l.Resolve(a))
	}
	cache := offline.New(store, offline.Options{
		Version: cfg.Cache.Version,
		Assets:  assets,
		Next:    transport,
		Logger:  logger,
	})

	if err := cache.Install(ctx); err != nil {
		installed, keysErr := cache.Installed(ctx)
		if keysErr != nil || !installed {
			logger.Warn("offline: install failed, cache disabled", slog.String("error", err.Error()))
			_ = store.Close()
			return plain, func() {}, nil
		}
		// An earlier install of this version stays in service.
		logger.Warn("offline: install failed, using existing cache",
			slog.String("version", cache.Version()),
			slog.String("error", err.Error()))
	} else if _, err := cache.Activate(ctx); err != nil {
		logger.Warn("offline: activate failed", slog.String("error", err.Error()))
	}

	return &http.Client{Transport: cache}, func() { _ = store.Close() }, nil
}

// newDeckService wires loader, client and service. The deck is not loaded
// yet.
func newDeckService(ctx context.Context, cfg *Config, logger *slog.Logger) (*deckservice.Service, func(), error) {
	base, err := cfg.Deck.BaseURL()
	if err != nil {
		return nil, nil, err
	}

	// The loader resolves asset paths before its client exists.
	resolver, err := loader.New(nil, base, cfg.Deck.Manifest, logger)
	if err != nil {
		return nil, nil, err
	}
	client, closeFn, err := newClient(ctx, cfg, resolver, logger)
	if err != nil {
		return nil, nil, err
	}
	l, err := loader.New(client, base, cfg.Deck.Manifest, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	logger.Info("deck configured",
		slog.String("url", base),
		slog.String("manifest", cfg.Deck.Manifest),
		slog.Bool("offline_cache", cfg.Cache.Enabled))

	return deckservice.NewService(l, logger), closeFn, nil
}
