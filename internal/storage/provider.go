// Package storage gives root-confined access to a local cards directory.
package storage

import "github.com/starford/koinecards/internal/models"

// Provider is the interface for cards directory operations.
type Provider interface {
	// List returns every card text file under dir (relative to the root).
	List(dir string) ([]models.CardFile, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Root returns the absolute path of the cards directory.
	Root() string
}
