package ports

import (
	"context"
	"iter"
)

// WatchOp represents the type of file system operation.
type WatchOp uint8

const (
	// OpCreate indicates a file was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file was removed.
	OpRemove
	// OpRename indicates a file was renamed.
	OpRename
)

// WatchOrigin tells which of the two watches observed a change.
type WatchOrigin uint8

const (
	// OriginFile is the watch bound to the file itself.
	OriginFile WatchOrigin = iota
	// OriginDir is the watch bound to the parent directory.
	OriginDir
)

// WatchEvent is a change of the watched file.
type WatchEvent struct {
	// Path is the absolute path of the watched file.
	Path string
	// Operation is the type of change that occurred.
	Operation WatchOp
	// Origin is the watch that observed the change.
	Origin WatchOrigin
}

// Watcher watches a single file so that in-place writes and atomic
// rename-over saves are both reported.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start arms the watches for path.
	// It returns an error if the watcher fails to start.
	Start(ctx context.Context, path string) error
	// Stop closes both watches and releases all resources.
	Stop() error
	// Events returns an iterator of changes to the watched file.
	Events() iter.Seq[WatchEvent]
}
