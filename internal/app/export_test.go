package app

import "go.trai.ch/mkd/internal/core/ports"

// NewPresenter returns the show func of a presenter for testing.
func NewPresenter(renderer ports.Renderer, logger ports.Logger) func(string) {
	return newPresenter(renderer, logger).show
}
