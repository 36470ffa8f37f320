// Package deckservice owns the deck of a running viewer: it performs the
// one-time load and answers read-only queries for the web and MCP surfaces.
package deckservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/koinecards/internal/apperr"
	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/render"
	"github.com/starford/koinecards/internal/session"
)

// Source loads the full card sequence of a deck.
type Source interface {
	Load(ctx context.Context) ([]models.Card, error)
}

// Service holds the deck loaded from a Source. Once loaded, the deck is
// immutable and the service is safe for concurrent readers.
type Service struct {
	src    Source
	logger *slog.Logger

	mu      sync.RWMutex
	deck    *session.Deck
	loadErr error
}

// NewService creates a service over src. Call Load before serving.
func NewService(src Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, logger: logger, loadErr: apperr.ErrNotLoaded}
}

// Load fetches and groups the deck. A failure is remembered and reported by
// Err so the surfaces can show it in place of the domain listing.
func (s *Service) Load(ctx context.Context) error {
	return s.LoadFrom(ctx, s.src)
}

// LoadFrom is Load with a different source, e.g. one that bypasses the
// offline cache when the deck changed on disk.
func (s *Service) LoadFrom(ctx context.Context, src Source) error {
	cards, err := src.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.deck, s.loadErr = nil, err
		s.logger.Error("deck load failed", slog.String("error", err.Error()))
		return err
	}
	s.deck, s.loadErr = session.NewDeck(cards), nil
	s.logger.Info("deck ready",
		slog.Int("cards", s.deck.Len()),
		slog.Int("domains", len(s.deck.Domains())))
	return nil
}

// Err returns the load error, or nil once the deck is loaded.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Deck returns the loaded deck.
func (s *Service) Deck() (*session.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.deck, nil
}

// NewSession starts a navigation session at the domain panel.
func (s *Service) NewSession() (*session.State, error) {
	deck, err := s.Deck()
	if err != nil {
		return nil, err
	}
	return session.NewState(deck), nil
}

// Domains returns the domain listing.
func (s *Service) Domains(_ context.Context) ([]render.DomainRow, error) {
	deck, err := s.Deck()
	if err != nil {
		return nil, err
	}
	return render.Domains(deck), nil
}

// Cards returns the card listing of domain.
func (s *Service) Cards(_ context.Context, domain string) ([]render.CardRow, error) {
	deck, err := s.Deck()
	if err != nil {
		return nil, err
	}
	if !deck.HasDomain(domain) {
		return nil, fmt.Errorf("domain %q: %w", domain, apperr.ErrNotFound)
	}
	return render.Cards(deck, domain), nil
}

// Card returns the card stored at filename in domain.
func (s *Service) Card(_ context.Context, domain, filename string) (models.Card, error) {
	deck, err := s.Deck()
	if err != nil {
		return models.Card{}, err
	}
	c, ok := deck.Card(domain, filename)
	if !ok {
		return models.Card{}, fmt.Errorf("card %q in %q: %w", filename, domain, apperr.ErrNotFound)
	}
	return c, nil
}
