package ports

import (
	"context"

	"go.trai.ch/mkd/internal/core/domain"
)

// Renderer is the abstraction for presenting the tracked file.
// The same event stream drives either the full-screen viewer or plain output.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	// For asynchronous renderers (like the TUI), this may launch background goroutines.
	Start(ctx context.Context) error

	// Stop signals the renderer to shut down.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnContent is called with the full file content after every successful fetch.
	OnContent(content string)

	// OnStatus is called for every connection status transition of a remote file.
	OnStatus(status domain.ConnectionStatus)
}
