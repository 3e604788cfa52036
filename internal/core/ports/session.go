package ports

import (
	"context"
	"io"
	"time"

	"go.trai.ch/mkd/internal/core/domain"
)

//go:generate mockgen -source=session.go -destination=mocks/mock_session.go -package=mocks

// RemoteSession runs commands on one host over a shared, multiplexed connection.
type RemoteSession interface {
	// Host returns the ssh destination of the session.
	Host() string

	// Run executes command and returns its standard output.
	// It fails with domain.ErrRemoteTimeout when timeout elapses and with a
	// *domain.RemoteCommandError on a non-zero exit.
	Run(ctx context.Context, command string, timeout time.Duration) ([]byte, error)

	// Spawn starts a long-running command with keep-alive probes enabled.
	Spawn(ctx context.Context, command string) (WatchProcess, error)

	// Close tears down the multiplexed connection. Errors are ignored.
	Close()
}

// WatchProcess is a running remote loop started by RemoteSession.Spawn.
type WatchProcess interface {
	// Output returns the standard output stream of the process.
	Output() io.Reader

	// Wait blocks until the process exits. It must be called exactly once.
	Wait() error

	// Kill terminates the process. It is safe to call after exit.
	Kill()
}

// SessionFactory opens sessions to remote hosts.
type SessionFactory interface {
	// Open prepares a session for host. The connection itself is established
	// lazily by the first command.
	Open(host string, settings domain.SSHSettings) RemoteSession
}
