package game

import "errors"

var (
	// ErrEmptyCatalog is a configuration error: there is nothing to pick a round from.
	ErrEmptyCatalog = errors.New("game: celebrity catalog is empty")
	// ErrRendering marks a failed card render; the round is not recorded.
	ErrRendering = errors.New("game: card rendering failed")
)
