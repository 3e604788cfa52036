package domain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

const (
	// AppName is the directory name used under the config and cache roots.
	AppName = "mkd"

	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "config.yaml"

	// DebugLogFile is the name of the debug log file.
	DebugLogFile = "debug.log"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600

	controlSocketPrefix = "mkd-ssh-"
)

// DefaultConfigPath returns $XDG_CONFIG_HOME/mkd/config.yaml, falling back to
// ~/.config/mkd/config.yaml.
func DefaultConfigPath(xdgConfigHome, home string) string {
	root := xdgConfigHome
	if root == "" {
		root = filepath.Join(home, ".config")
	}
	return filepath.Join(root, AppName, ConfigFileName)
}

// DefaultDebugLogPath returns ~/.cache/mkd/debug.log.
func DefaultDebugLogPath(home string) string {
	return filepath.Join(home, ".cache", AppName, DebugLogFile)
}

// ControlSocketPath returns the ssh ControlPath for host in this process.
// The host is hashed so the path stays under the unix socket length limit,
// and the pid keeps concurrent processes for the same host apart.
func ControlSocketPath(dir, host string, pid int) string {
	name := fmt.Sprintf("%s%016x-%d", controlSocketPrefix, xxhash.Sum64String(host), pid)
	return filepath.Join(dir, name)
}

// DefaultControlSocketPath uses /tmp and the current process id.
func DefaultControlSocketPath(host string) string {
	return ControlSocketPath("/tmp", host, os.Getpid())
}
