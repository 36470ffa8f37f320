// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/koinecards/internal/deckservice"
	"github.com/starford/koinecards/internal/loader"
	"github.com/starford/koinecards/internal/manifest"
	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/storage"
	"github.com/starford/koinecards/internal/web"
)

// Serve runs the web viewer until a shutdown signal arrives or ctx ends.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger, closeLog, err := newLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("deck_url", cfg.Deck.URL),
		slog.String("deck_dir", cfg.Deck.Dir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// The local cards directory is optional when the deck comes from a URL.
	var origin storage.Provider
	if cfg.Deck.Dir != "" {
		fsStore, fsErr := storage.NewFS(cfg.Deck.Dir)
		switch {
		case fsErr == nil:
			origin = fsStore
		case cfg.Deck.URL == "" || cfg.Deck.Watch:
			return fmt.Errorf("init cards dir: %w", fsErr)
		default:
			logger.Warn("cards dir unavailable, not serving /cards", slog.String("error", fsErr.Error()))
		}
	}

	if origin != nil && cfg.Deck.Watch {
		if _, _, err := manifest.Write(origin, cfg.Deck.Manifest); err != nil {
			logger.Warn("initial manifest build failed", slog.String("error", err.Error()))
		}
	}

	svc, closeDeck, err := newDeckService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeck()

	// A failed load is kept by the service and shown in place of the domain
	// listing.
	_ = svc.Load(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", readyHandler(svc))

	r.Mount("/", web.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, origin))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if origin != nil && cfg.Deck.Watch {
		live, err := newLiveLoader(cfg, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return manifest.Watch(gCtx, origin, cfg.Deck.Manifest, logger, reloadDeck(gCtx, svc, live, logger))
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		waitForShutdown(gCtx, logger)

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newLiveLoader returns a loader for the configured deck that bypasses the
// offline cache, whose stored manifest would hide a rewrite.
func newLiveLoader(cfg *Config, logger *slog.Logger) (*loader.Loader, error) {
	base, err := cfg.Deck.BaseURL()
	if err != nil {
		return nil, err
	}
	client := &http.Client{Transport: loader.NewTransport()}
	return loader.New(client, base, cfg.Deck.Manifest, logger)
}

// reloadDeck is the manifest watcher callback: it reloads svc from src.
func reloadDeck(ctx context.Context, svc *deckservice.Service, src deckservice.Source, logger *slog.Logger) manifest.UpdateCallback {
	return func(m *models.Manifest) {
		if err := svc.LoadFrom(ctx, src); err == nil {
			logger.Info("deck reloaded", slog.Int("files", len(m.Files)))
		}
	}
}

// waitForShutdown blocks until SIGINT/SIGTERM or until ctx is done.
func waitForShutdown(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}

// readyHandler reports ready once the deck is loaded.
func readyHandler(svc *deckservice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := svc.Err(); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	}
}
