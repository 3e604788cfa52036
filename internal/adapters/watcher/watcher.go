// Package watcher implements single-file watching on top of fsnotify.
package watcher

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const eventChannelBuffer = 16

// Watcher watches one file through two fsnotify watchers. The file watcher sees
// writes to the current inode; the directory watcher catches the file being
// replaced by a rename, after which the file watcher is rebuilt for the new inode.
type Watcher struct {
	logger ports.Logger

	mu         sync.Mutex
	path       string
	lastMod    time.Time
	fileW      *fsnotify.Watcher
	dirW       *fsnotify.Watcher
	generation int
	started    bool
	stopped    bool

	wg     sync.WaitGroup
	events chan ports.WatchEvent
}

// NewWatcher creates a watcher that logs fsnotify errors to logger.
func NewWatcher(logger ports.Logger) *Watcher {
	return &Watcher{
		logger: logger,
		events: make(chan ports.WatchEvent, eventChannelBuffer),
	}
}

// Start arms the directory and file watches for path. The watcher stops when ctx is done.
func (w *Watcher) Start(ctx context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}
	if w.stopped {
		return zerr.Wrap(domain.ErrWatcherStartFailed, "watcher already stopped")
	}

	dirW, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatcherStartFailed.Error())
	}
	dir := filepath.Dir(path)
	if err := dirW.Add(dir); err != nil {
		_ = dirW.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrWatcherStartFailed.Error()), "dir", dir)
	}

	w.path = path
	w.dirW = dirW
	w.lastMod = modTime(path)
	w.started = true

	w.wg.Add(1)
	go w.loop(dirW, ports.OriginDir)

	w.armFileLocked()

	context.AfterFunc(ctx, func() {
		_ = w.Stop()
	})

	return nil
}

// Stop closes both watches and ends the event stream. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.stopped = true
		w.mu.Unlock()
		return nil
	}
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	dirW, fileW := w.dirW, w.fileW
	w.dirW, w.fileW = nil, nil
	w.mu.Unlock()

	var errs error
	if fileW != nil {
		errs = fileW.Close()
	}
	if err := dirW.Close(); err != nil && errs == nil {
		errs = err
	}

	w.wg.Wait()
	close(w.events)
	return errs
}

// Events returns an iterator of changes to the watched file.
// The iterator ends after Stop.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// armFileLocked replaces the file watch with a fresh one bound to whatever inode
// currently sits at path. A missing file leaves no file watch; the directory watch
// re-arms once it reappears. Must be called with mu held.
func (w *Watcher) armFileLocked() {
	if w.fileW != nil {
		old := w.fileW
		w.fileW = nil
		// Closing from inside old's own loop is fine: Close only waits for
		// fsnotify's reader, which gives up sending once closed.
		_ = old.Close()
	}

	fileW, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("watcher: " + err.Error())
		return
	}
	if err := fileW.Add(w.path); err != nil {
		_ = fileW.Close()
		w.logger.Debug("watcher: file not present, waiting for it to reappear: " + w.path)
		return
	}

	w.fileW = fileW
	w.generation++
	w.wg.Add(1)
	go w.loop(fileW, ports.OriginFile)
}

func (w *Watcher) loop(fw *fsnotify.Watcher, origin ports.WatchOrigin) {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if origin == ports.OriginFile {
				w.handleFileEvent(event)
			} else {
				w.handleDirEvent(event)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher: file system error: " + err.Error())
		}
	}
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	op, ok := convertOp(event.Op)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	w.lastMod = modTime(w.path)
	w.emit(ports.WatchEvent{Path: w.path, Operation: op, Origin: ports.OriginFile})

	if op == ports.OpRemove || op == ports.OpRename {
		w.armFileLocked()
	}
}

func (w *Watcher) handleDirEvent(event fsnotify.Event) {
	op, ok := convertOp(event.Op)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	mod := modTime(w.path)
	if mod.Equal(w.lastMod) {
		return
	}
	w.lastMod = mod

	w.emit(ports.WatchEvent{Path: w.path, Operation: op, Origin: ports.OriginDir})
	w.armFileLocked()
}

// emit never blocks. A dropped event is harmless because the buffer already holds
// a pending change and consumers treat events as pulses. Must be called with mu held.
func (w *Watcher) emit(event ports.WatchEvent) {
	select {
	case w.events <- event:
	default:
	}
}

func convertOp(op fsnotify.Op) (ports.WatchOp, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return ports.OpWrite, true
	case op.Has(fsnotify.Create):
		return ports.OpCreate, true
	case op.Has(fsnotify.Remove):
		return ports.OpRemove, true
	case op.Has(fsnotify.Rename):
		return ports.OpRename, true
	default:
		return 0, false
	}
}

// modTime returns the zero time when path cannot be stat'ed.
func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
