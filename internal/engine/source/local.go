// Package source implements change sources for local and remote markdown files.
package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"

	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
	"go.trai.ch/zerr"
)

// LocalSource watches a file on the local file system.
type LocalSource struct {
	target     domain.Target
	watcher    ports.Watcher
	dispatcher ports.Dispatcher
	settings   domain.WatchSettings
	logger     ports.Logger
	tracer     ports.Tracer

	// stopped is allocated apart from the source so callbacks can observe it
	// without keeping the source reachable.
	stopped *atomic.Bool

	mu        sync.Mutex
	started   bool
	onChange  func()
	debouncer *Debouncer
	cancel    context.CancelFunc
	done      chan struct{}
	cleanup   runtime.Cleanup
}

// NewLocalSource creates a source for the local file target.Path.
func NewLocalSource(
	target domain.Target,
	watcher ports.Watcher,
	dispatcher ports.Dispatcher,
	settings domain.WatchSettings,
	logger ports.Logger,
	tracer ports.Tracer,
) *LocalSource {
	return &LocalSource{
		target:     target,
		watcher:    watcher,
		dispatcher: dispatcher,
		settings:   settings,
		logger:     logger,
		tracer:     tracer,
		stopped:    new(atomic.Bool),
	}
}

// Target returns the tracked file.
func (s *LocalSource) Target() domain.Target {
	return s.target
}

// FetchContent reads the whole file.
func (s *LocalSource) FetchContent(ctx context.Context) (string, error) {
	_, span := s.tracer.Start(ctx, "local.fetch", ports.WithAttribute("path", s.target.Path))
	defer span.End()

	data, err := os.ReadFile(s.target.Path)
	if err != nil {
		wrapped := zerr.With(zerr.Wrap(domain.ErrFileReadFailed, "fetch content"), "path", s.target.Path)
		wrapped = zerr.With(wrapped, "reason", reason(err))
		span.RecordError(wrapped)
		return "", wrapped
	}
	span.SetAttribute("bytes", len(data))
	return string(data), nil
}

// Start arms the watcher and begins delivering change pulses.
func (s *LocalSource) Start(onChange func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped.Load() {
		return zerr.With(zerr.Wrap(domain.ErrSourceStopped, "start local source"), "path", s.target.Path)
	}
	if s.started {
		return nil
	}

	// The watcher goroutine holds the debouncer, so it only reaches the source
	// weakly. Otherwise the cleanup below could never run.
	ref := weak.Make(s)
	stopped := s.stopped
	debouncer := NewDebouncer(s.settings.LocalDebounce, func() {
		if stopped.Load() {
			return
		}
		if src := ref.Value(); src != nil {
			src.notify()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.watcher.Start(ctx, s.target.Path); err != nil {
		cancel()
		debouncer.Stop()
		return err
	}

	done := make(chan struct{})
	go forward(s.watcher, debouncer, s.logger, done)

	s.started = true
	s.onChange = onChange
	s.debouncer = debouncer
	s.cancel = cancel
	s.done = done
	s.cleanup = runtime.AddCleanup(s, release, s.watcher)
	return nil
}

// notify dispatches one change pulse unless the source has stopped.
func (s *LocalSource) notify() {
	s.mu.Lock()
	onChange := s.onChange
	s.mu.Unlock()
	if onChange == nil {
		return
	}

	stopped := s.stopped
	s.dispatcher.Dispatch(func() {
		if !stopped.Load() {
			onChange()
		}
	})
}

// forward turns watch events into debouncer triggers until the watcher closes.
func forward(w ports.Watcher, d *Debouncer, logger ports.Logger, done chan<- struct{}) {
	defer close(done)
	for ev := range w.Events() {
		logger.Debug("file event " + opName(ev.Operation) + " on " + ev.Path)
		d.Trigger()
	}
}

func release(w ports.Watcher) {
	_ = w.Stop()
}

// Stop closes the watcher and cancels any pending pulse.
func (s *LocalSource) Stop() {
	s.stopped.Store(true)

	s.mu.Lock()
	debouncer, cancel, done := s.debouncer, s.cancel, s.done
	s.debouncer, s.cancel = nil, nil
	s.mu.Unlock()

	s.cleanup.Stop()
	if debouncer != nil {
		debouncer.Stop()
	}
	if cancel != nil {
		cancel()
	}
	if err := s.watcher.Stop(); err != nil {
		s.logger.Debug("stopping watcher: " + err.Error())
	}
	if done != nil {
		<-done
	}
}

// reason drops the operation and path that fs.PathError repeats.
func reason(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

func opName(op ports.WatchOp) string {
	switch op {
	case ports.OpCreate:
		return "create"
	case ports.OpWrite:
		return "write"
	case ports.OpRemove:
		return "remove"
	case ports.OpRename:
		return "rename"
	default:
		return "unknown"
	}
}
