package domain

import "strings"

const (
	// ToolFswatch is the primary push notification tool.
	ToolFswatch = "fswatch"
	// ToolInotifywait is the secondary push notification tool.
	ToolInotifywait = "inotifywait"

	// ChangeMarker is the line the fswatch loop prints for each change.
	ChangeMarker = "CHANGED"
)

// QuotePath single-quotes path for a POSIX shell. A leading ~/ stays outside the
// quotes so the remote shell expands it.
func QuotePath(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return "~/" + quote(rest)
	}
	return quote(path)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ReadCommand prints the whole file.
func ReadCommand(path string) string {
	return "cat " + QuotePath(path)
}

// ToolProbeCommand checks whether tool is on the remote PATH.
func ToolProbeCommand(tool string) string {
	return "which " + tool
}

// PushLoopCommand returns the persistent loop for a push strategy.
// It returns "" for strategies that do not run a remote loop.
func PushLoopCommand(strategy WatchStrategy, path string) string {
	p := QuotePath(path)
	switch strategy {
	case StrategyPushPrimary:
		return "while true; do fswatch -1 " + p + " 2>/dev/null && echo " + ChangeMarker + "; done"
	case StrategyPushSecondary:
		return "while true; do inotifywait -e modify,move_self,delete_self " + p + " 2>/dev/null; done"
	default:
		return ""
	}
}

// PollCommand prints a content hash, or an mtime when no hash tool exists.
// The alternatives cover GNU and BSD userlands.
func PollCommand(path string) string {
	p := QuotePath(path)
	return "md5sum " + p + " 2>/dev/null || md5 -q " + p + " 2>/dev/null || stat -c %Y " + p +
		" 2>/dev/null || stat -f %m " + p
}
