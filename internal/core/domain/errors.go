package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrMissingTarget is returned when no file argument is given.
	ErrMissingTarget = zerr.New("missing file argument")

	// ErrFileNotFound is returned when a local target does not exist.
	ErrFileNotFound = zerr.New("file not found")

	// ErrNotMarkdown is returned when the target does not have a markdown extension.
	ErrNotMarkdown = zerr.New("not a markdown file")

	// ErrInvalidRemoteTarget is returned when a host:path argument has an empty path.
	ErrInvalidRemoteTarget = zerr.New("invalid remote target")

	// ErrFileReadFailed is returned when a local file cannot be read.
	ErrFileReadFailed = zerr.New("failed to read file")

	// ErrInitialLoadFailed is returned when the first fetch of the target fails.
	ErrInitialLoadFailed = zerr.New("failed to load file")

	// ErrRemoteTimeout is returned when a remote command exceeds its timeout.
	ErrRemoteTimeout = zerr.New("remote command timed out")

	// ErrRemoteCommandFailed is matched by every *RemoteCommandError.
	ErrRemoteCommandFailed = zerr.New("remote command failed")

	// ErrSSHStartFailed is returned when the ssh client process cannot be started.
	ErrSSHStartFailed = zerr.New("failed to start ssh")

	// ErrSessionClosed is returned when a command is issued on a closed session.
	ErrSessionClosed = zerr.New("ssh session closed")

	// ErrWatcherStartFailed is returned when the file system watcher cannot be armed.
	ErrWatcherStartFailed = zerr.New("failed to start file watcher")

	// ErrSourceStopped is returned when Start is called on a source that was already stopped.
	ErrSourceStopped = zerr.New("source stopped")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidOutputMode is returned when the output mode is not auto, tui or linear.
	ErrInvalidOutputMode = zerr.New("invalid output mode, expected 'auto', 'tui' or 'linear'")

	// ErrInvalidLogFormat is returned when the log format is not pretty or json.
	ErrInvalidLogFormat = zerr.New("invalid log format, expected 'pretty' or 'json'")

	// ErrInvalidSetting is returned when a configured value is out of range.
	ErrInvalidSetting = zerr.New("invalid setting")

	// ErrLogFileOpenFailed is returned when the debug log file cannot be opened.
	ErrLogFileOpenFailed = zerr.New("failed to open debug log file")

	// ErrRendererFailed is returned when the viewer exits with an error.
	ErrRendererFailed = zerr.New("viewer failed")
)

// genericRemoteFailure replaces empty stderr in RemoteCommandError messages.
const genericRemoteFailure = "ssh command failed"

// RemoteCommandError is returned when a remote command exits non-zero.
type RemoteCommandError struct {
	// ExitCode is the exit status of the ssh client.
	ExitCode int
	// Stderr is the trimmed standard error of the command.
	Stderr string
}

// NewRemoteCommandError builds a RemoteCommandError from raw stderr bytes.
func NewRemoteCommandError(exitCode int, stderr []byte) *RemoteCommandError {
	return &RemoteCommandError{
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(string(stderr)),
	}
}

func (e *RemoteCommandError) Error() string {
	if e.Stderr == "" {
		return genericRemoteFailure
	}
	return e.Stderr
}

// Is reports whether target is ErrRemoteCommandFailed.
func (e *RemoteCommandError) Is(target error) bool {
	return target == ErrRemoteCommandFailed
}
