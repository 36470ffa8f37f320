// Package apperr holds the sentinel errors shared across koinecards.
package apperr

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrNotLoaded = errors.New("deck not loaded")
)
