// Package session holds the grouped card deck and the navigation state of a
// single viewing session.
package session

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/koinecards/internal/models"
)

// Deck is the immutable grouping of a loaded card collection by domain.
// It is safe for concurrent readers.
type Deck struct {
	domains  []string
	byDomain map[string][]models.Card
	total    int
}

// NewDeck partitions cards by their Domain field. Domain names and the cards
// of every bucket (by filename) are ordered with the root collation, so
// accented and non-Latin names sort the way a reader expects.
func NewDeck(cards []models.Card) *Deck {
	byDomain := make(map[string][]models.Card)
	for _, c := range cards {
		byDomain[c.Domain] = append(byDomain[c.Domain], c)
	}

	col := collate.New(language.Und)
	domains := make([]string, 0, len(byDomain))
	for d := range byDomain {
		domains = append(domains, d)
	}
	slices.SortStableFunc(domains, col.CompareString)

	for _, bucket := range byDomain {
		slices.SortStableFunc(bucket, func(a, b models.Card) int {
			return col.CompareString(a.Filename, b.Filename)
		})
	}

	return &Deck{domains: domains, byDomain: byDomain, total: len(cards)}
}

// Domains returns the sorted domain names.
func (d *Deck) Domains() []string {
	return slices.Clone(d.domains)
}

// Cards returns the cards of domain in filename order, or nil when the
// domain is unknown.
func (d *Deck) Cards(domain string) []models.Card {
	return slices.Clone(d.byDomain[domain])
}

// Count returns the number of cards in domain.
func (d *Deck) Count(domain string) int {
	return len(d.byDomain[domain])
}

// HasDomain reports whether domain has at least one card.
func (d *Deck) HasDomain(domain string) bool {
	_, ok := d.byDomain[domain]
	return ok
}

// Card looks up a card by filename inside domain.
func (d *Deck) Card(domain, filename string) (models.Card, bool) {
	for _, c := range d.byDomain[domain] {
		if c.Filename == filename {
			return c, true
		}
	}
	return models.Card{}, false
}

// Len returns the total number of cards in the deck.
func (d *Deck) Len() int {
	return d.total
}
