package source

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
	"go.trai.ch/zerr"
)

// readBufferSize bounds a single read of push loop output.
const readBufferSize = 4096

// RemoteSource watches a file on an ssh host.
//
// It probes for fswatch, then inotifywait, and keeps one persistent loop running
// with whichever exists. When that loop dies it falls back to polling for the rest
// of the session.
type RemoteSource struct {
	target     domain.Target
	session    ports.RemoteSession
	dispatcher ports.Dispatcher
	settings   domain.WatchSettings
	logger     ports.Logger
	tracer     ports.Tracer

	stopped   *atomic.Bool
	publisher *statusPublisher
	strategy  atomic.Int32

	mu        sync.Mutex
	started   bool
	onChange  func()
	debouncer *Debouncer
	proc      ports.WatchProcess
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRemoteSource creates a source for target.Path on the session's host.
func NewRemoteSource(
	target domain.Target,
	session ports.RemoteSession,
	dispatcher ports.Dispatcher,
	settings domain.WatchSettings,
	logger ports.Logger,
	tracer ports.Tracer,
) *RemoteSource {
	stopped := new(atomic.Bool)
	return &RemoteSource{
		target:     target,
		session:    session,
		dispatcher: dispatcher,
		settings:   settings,
		logger:     logger,
		tracer:     tracer,
		stopped:    stopped,
		publisher:  newStatusPublisher(dispatcher, stopped),
	}
}

// Target returns the tracked file.
func (s *RemoteSource) Target() domain.Target {
	return s.target
}

// Strategy returns the current watch strategy.
func (s *RemoteSource) Strategy() domain.WatchStrategy {
	return domain.WatchStrategy(s.strategy.Load())
}

// Status returns the last published connection status.
func (s *RemoteSource) Status() domain.ConnectionStatus {
	return s.publisher.status()
}

// OnStatus registers the status callback.
func (s *RemoteSource) OnStatus(fn func(domain.ConnectionStatus)) {
	s.publisher.subscribe(fn)
}

// FetchContent reads the remote file verbatim. Its outcome is reported as
// connection status.
func (s *RemoteSource) FetchContent(ctx context.Context) (string, error) {
	out, err := s.session.Run(ctx, domain.ReadCommand(s.target.Path), 0)
	if err != nil {
		if ctx.Err() == nil {
			s.publisher.publish(domain.StatusDisconnected)
		}
		return "", zerr.With(err, "target", s.target.DisplayPath())
	}
	s.publisher.publish(domain.StatusConnected)
	return string(out), nil
}

// Start launches the strategy worker. It returns immediately.
func (s *RemoteSource) Start(onChange func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped.Load() {
		return zerr.With(zerr.Wrap(domain.ErrSourceStopped, "start remote source"), "target", s.target.DisplayPath())
	}
	if s.started {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.started = true
	s.onChange = onChange
	s.debouncer = NewDebouncer(s.settings.RemoteDebounce, s.notify)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
	return nil
}

// Stop kills the persistent loop, stops polling and closes the session.
// A command already in flight finishes in the background and its result is dropped.
func (s *RemoteSource) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	debouncer, cancel, proc := s.debouncer, s.cancel, s.proc
	s.proc = nil
	s.mu.Unlock()

	if debouncer != nil {
		debouncer.Stop()
	}
	if cancel != nil {
		cancel()
	}
	if proc != nil {
		proc.Kill()
	}
	s.session.Close()
}

func (s *RemoteSource) run(ctx context.Context) {
	defer close(s.done)

	strategy := s.probe(ctx)
	for strategy.IsPush() {
		if ctx.Err() != nil {
			return
		}
		strategy = s.push(ctx, strategy)
	}
	if ctx.Err() != nil {
		return
	}
	s.poll(ctx)
}

// probe picks the best available push tool, or polling when there is none.
func (s *RemoteSource) probe(ctx context.Context) domain.WatchStrategy {
	s.setStrategy(domain.StrategyProbing)

	ctx, span := s.tracer.Start(ctx, "remote.probe", ports.WithAttribute("host", s.session.Host()))
	defer span.End()

	tiers := []struct {
		tool     string
		strategy domain.WatchStrategy
	}{
		{domain.ToolFswatch, domain.StrategyPushPrimary},
		{domain.ToolInotifywait, domain.StrategyPushSecondary},
	}
	for _, tier := range tiers {
		_, err := s.session.Run(context.WithoutCancel(ctx), domain.ToolProbeCommand(tier.tool), 0)
		if ctx.Err() != nil {
			return domain.StrategyPolling
		}
		if err == nil {
			span.SetAttribute("strategy", tier.strategy.String())
			return tier.strategy
		}
		s.logger.Debug(tier.tool + " not available on " + s.session.Host())
	}
	span.SetAttribute("strategy", domain.StrategyPolling.String())
	return domain.StrategyPolling
}

// push runs the persistent loop for strategy until it exits and returns the next strategy.
func (s *RemoteSource) push(ctx context.Context, strategy domain.WatchStrategy) domain.WatchStrategy {
	s.setStrategy(strategy)

	proc, err := s.session.Spawn(ctx, domain.PushLoopCommand(strategy, s.target.Path))
	if err != nil {
		s.logger.Debug("starting " + strategy.String() + " loop failed, polling instead: " + err.Error())
		return domain.StrategyPolling
	}

	s.mu.Lock()
	if s.stopped.Load() {
		s.mu.Unlock()
		proc.Kill()
		_ = proc.Wait()
		return domain.StrategyPolling
	}
	s.proc = proc
	s.mu.Unlock()
	s.publisher.publish(domain.StatusConnected)

	s.readPulses(proc.Output())
	err = proc.Wait()

	s.mu.Lock()
	if s.proc == proc {
		s.proc = nil
	}
	s.mu.Unlock()

	if ctx.Err() != nil {
		return domain.StrategyPolling
	}
	if err != nil {
		s.logger.Debug(strategy.String() + " loop exited: " + err.Error())
	} else {
		s.logger.Debug(strategy.String() + " loop exited")
	}

	s.publisher.publish(domain.StatusReconnecting)
	s.setStrategy(domain.StrategyReconnecting)

	backoff := time.NewTimer(s.settings.ReconnectBackoff)
	defer backoff.Stop()
	select {
	case <-ctx.Done():
	case <-backoff.C:
	}
	return domain.StrategyPolling
}

// readPulses treats every non-empty read as one change and returns at EOF.
func (s *RemoteSource) readPulses(r io.Reader) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.publisher.publish(domain.StatusConnected)
			s.debouncer.Trigger()
		}
		if err != nil {
			return
		}
	}
}

// poll samples a content token on every tick and pulses when it changes.
// The first successful sample only establishes the baseline.
func (s *RemoteSource) poll(ctx context.Context) {
	s.setStrategy(domain.StrategyPolling)

	ticker := time.NewTicker(s.settings.PollInterval)
	defer ticker.Stop()

	var last string
	var seen bool
	command := domain.PollCommand(s.target.Path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		out, err := s.session.Run(context.WithoutCancel(ctx), command, 0)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Debug("poll of " + s.target.DisplayPath() + " failed: " + err.Error())
			s.publisher.publish(domain.StatusDisconnected)
			continue
		}
		s.publisher.publish(domain.StatusConnected)

		token := strings.TrimSpace(string(out))
		switch {
		case !seen:
			last, seen = token, true
		case token != last:
			last = token
			s.notify()
		}
	}
}

// notify dispatches one change pulse unless the source has stopped.
func (s *RemoteSource) notify() {
	if s.stopped.Load() {
		return
	}
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

func (s *RemoteSource) setStrategy(strategy domain.WatchStrategy) {
	if domain.WatchStrategy(s.strategy.Swap(int32(strategy))) != strategy {
		s.logger.Debug("watch strategy for " + s.target.DisplayPath() + ": " + strategy.String())
	}
}
