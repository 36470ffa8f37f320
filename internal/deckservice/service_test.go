package deckservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/koinecards/internal/apperr"
	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/parser"
)

type stubSource struct {
	cards []models.Card
	err   error
}

func (s stubSource) Load(context.Context) ([]models.Card, error) { return s.cards, s.err }

func TestService_NotLoaded(t *testing.T) {
	svc := NewService(stubSource{}, nil)
	if !errors.Is(svc.Err(), apperr.ErrNotLoaded) {
		t.Errorf("Err = %v, want ErrNotLoaded", svc.Err())
	}
	if _, err := svc.Domains(context.Background()); err == nil {
		t.Error("Domains before Load should fail")
	}
}

func TestService_LoadFailureRemembered(t *testing.T) {
	boom := errors.New("loader: missing manifest")
	svc := NewService(stubSource{err: boom}, nil)
	if err := svc.Load(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Load = %v", err)
	}
	if !errors.Is(svc.Err(), boom) {
		t.Errorf("Err = %v", svc.Err())
	}
	if _, err := svc.NewSession(); !errors.Is(err, boom) {
		t.Errorf("NewSession = %v", err)
	}
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()
	svc := NewService(stubSource{cards: []models.Card{
		parser.Parse("B\nDOMAIN: D", "02_b.txt"),
		parser.Parse("A\nDOMAIN: D", "01_a.txt"),
	}}, nil)
	if err := svc.Load(ctx); err != nil {
		t.Fatal(err)
	}

	domains, _ := svc.Domains(ctx)
	if len(domains) != 1 || domains[0].Count != 2 {
		t.Errorf("domains = %+v", domains)
	}

	rows, err := svc.Cards(ctx, "D")
	if err != nil || len(rows) != 2 || rows[0].Filename != "01_a.txt" {
		t.Errorf("cards = %+v, %v", rows, err)
	}
	if _, err := svc.Cards(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Cards(nope) = %v", err)
	}

	c, err := svc.Card(ctx, "D", "02_b.txt")
	if err != nil || c.Title != "B" {
		t.Errorf("card = %+v, %v", c, err)
	}
	if _, err := svc.Card(ctx, "D", "03.txt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Card(missing) = %v", err)
	}

	s, err := svc.NewSession()
	if err != nil || s.View().Name() != "domain" {
		t.Errorf("NewSession = %v, %v", s, err)
	}
}
