// Package render projects deck and session state into the rows and panels
// shown by the viewer surfaces. Every function is a pure projection.
package render

import (
	"strings"

	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/session"
)

// MetaSeparator replaces line breaks of a card's meta in list rows.
const MetaSeparator = " • "

// UI labels.
const (
	DomainHint = "ἐπίλεξον κάρταν"
	ErrorTitle = "σφάλμα"
)

// DomainRow is one entry of the domain listing.
type DomainRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CardRow is one entry of a domain's card listing.
type CardRow struct {
	Filename string      `json:"filename"`
	Title    string      `json:"title"`
	Badge    string      `json:"badge"`
	Meta     string      `json:"meta,omitempty"`
	Card     models.Card `json:"-"`
}

// Detail is the card detail panel. Meta and Body keep their line breaks and
// are shown as literal text.
type Detail struct {
	Filename string `json:"filename"`
	Domain   string `json:"domain"`
	Title    string `json:"title"`
	Meta     string `json:"meta"`
	Body     string `json:"body"`
}

// Domains lists every domain of deck in sorted order with its card count.
func Domains(deck *session.Deck) []DomainRow {
	names := deck.Domains()
	rows := make([]DomainRow, len(names))
	for i, name := range names {
		rows[i] = DomainRow{Name: name, Count: deck.Count(name)}
	}
	return rows
}

// Cards lists the cards of domain in filename order.
func Cards(deck *session.Deck, domain string) []CardRow {
	cards := deck.Cards(domain)
	rows := make([]CardRow, len(cards))
	for i, c := range cards {
		rows[i] = CardRow{
			Filename: c.Filename,
			Title:    c.Title,
			Badge:    Badge(c.Filename),
			Meta:     MetaSummary(c.Meta),
			Card:     c,
		}
	}
	return rows
}

// CardDetail returns the detail panel of c.
func CardDetail(c models.Card) Detail {
	return Detail{
		Filename: c.Filename,
		Domain:   c.Domain,
		Title:    c.Title,
		Meta:     c.Meta,
		Body:     c.Body,
	}
}

// Badge is the part of filename before its first underscore, e.g. "01" for
// "01_alpha.txt". A filename without an underscore is returned whole.
func Badge(filename string) string {
	badge, _, _ := strings.Cut(filename, "_")
	return badge
}

// MetaSummary joins the meta lines onto one line.
func MetaSummary(meta string) string {
	return strings.ReplaceAll(meta, "\n", MetaSeparator)
}
