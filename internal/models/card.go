// Package models defines the domain types for koinecards.
package models

import "time"

// DefaultDomain is assigned to cards that carry no DOMAIN: line.
const DefaultDomain = "Ἄγνωστος"

// Card is one parsed flashcard. Values are built once by the parser and
// never mutated afterwards.
type Card struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Domain   string `json:"domain"`
	Meta     string `json:"meta"`
	Body     string `json:"body"`
}

// Manifest is the index document listing the card files of a deck.
type Manifest struct {
	Files []string `json:"files"`
}

// CardFile is a card text file found in a local cards directory.
type CardFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
