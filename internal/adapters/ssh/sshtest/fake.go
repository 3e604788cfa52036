// Package sshtest provides a stand-in ssh client for tests.
package sshtest

import (
	"os"
	"path/filepath"
	"testing"
)

// script runs the last argument with sh -c, ignoring every ssh option and the host.
// Control commands (-O) succeed without doing anything, touching $MKD_FAKE_SSH_EXIT when set.
const script = `#!/bin/sh
for arg; do
  if [ "$arg" = "-O" ]; then
    if [ -n "$MKD_FAKE_SSH_EXIT" ]; then : > "$MKD_FAKE_SSH_EXIT"; fi
    exit 0
  fi
done
for last; do :; done
exec sh -c "$last"
`

// Install writes the fake client into a temporary directory and returns its path.
func Install(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ssh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil { //nolint:gosec // must be executable
		t.Fatalf("write fake ssh: %v", err)
	}
	return path
}
