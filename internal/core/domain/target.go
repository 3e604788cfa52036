package domain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Target identifies the markdown file being viewed.
type Target struct {
	// Host is the ssh destination. Empty for local files.
	Host string
	// Path is absolute for local files. Remote paths start with / or ~.
	Path string
}

// IsRemote reports whether the target lives on a remote host.
func (t Target) IsRemote() bool {
	return t.Host != ""
}

// DisplayName returns the base name of the file.
func (t Target) DisplayName() string {
	return filepath.Base(t.Path)
}

// DisplayPath returns the path as the user would type it, host-qualified when remote.
func (t Target) DisplayPath() string {
	if t.IsRemote() {
		return t.Host + ":" + t.Path
	}
	return t.Path
}

// ParseTarget splits a command line argument into a Target.
//
// The argument is remote when its first ':' is not at index 0 and the rune before it
// is none of '/', '~' or '.'. Remote paths that are neither absolute nor home-relative
// are rewritten to ~/<path>. Remote targets are fully validated here; local targets are
// returned as given; the caller expands and checks them against the file system.
func ParseTarget(arg string) (Target, error) {
	if arg == "" {
		return Target{}, ErrMissingTarget
	}

	host, path, ok := splitRemote(arg)
	if !ok {
		return Target{Path: arg}, nil
	}

	if path == "" {
		return Target{}, zerr.With(zerr.Wrap(ErrInvalidRemoteTarget, "empty remote path"), "target", arg)
	}
	if !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "~") {
		path = "~/" + path
	}

	t := Target{Host: host, Path: path}
	if !IsMarkdown(path) {
		return Target{}, zerr.With(zerr.Wrap(ErrNotMarkdown, "invalid target"), "path", t.DisplayPath())
	}
	return t, nil
}

func splitRemote(arg string) (host, path string, ok bool) {
	i := strings.IndexByte(arg, ':')
	if i <= 0 {
		return "", "", false
	}
	switch arg[i-1] {
	case '/', '~', '.':
		return "", "", false
	}
	return arg[:i], arg[i+1:], true
}

// ExpandLocalPath expands a leading ~ against home and makes path absolute against cwd.
func ExpandLocalPath(path, home, cwd string) string {
	switch {
	case path == "~":
		path = home
	case strings.HasPrefix(path, "~/"):
		path = filepath.Join(home, path[2:])
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	return filepath.Clean(path)
}

// IsMarkdown reports whether path has a .md or .markdown extension, ignoring case.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}
