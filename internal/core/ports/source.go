// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/mkd/internal/core/domain"
)

// ChangeSource tracks one file and pulses whenever its content may have changed.
type ChangeSource interface {
	// Target returns the file this source tracks.
	Target() domain.Target

	// FetchContent reads the current content of the file.
	// It fails with domain.ErrFileReadFailed, domain.ErrRemoteTimeout or a
	// *domain.RemoteCommandError.
	FetchContent(ctx context.Context) (string, error)

	// Start begins watching and calls onChange through the source's dispatcher
	// after every detected change. Calling Start while running is a no-op.
	Start(onChange func()) error

	// Stop releases every watch, process, timer and session held by the source.
	// It is safe to call more than once and before Start. No callback is
	// dispatched after Stop returns, except a debounced pulse already in flight.
	Stop()
}

// StatusSource is a ChangeSource that reports connection health.
// Local sources do not implement it.
type StatusSource interface {
	ChangeSource

	// OnStatus registers the single status callback. It must be called before Start.
	OnStatus(fn func(domain.ConnectionStatus))
}
