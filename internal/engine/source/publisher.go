package source

import (
	"sync"
	"sync/atomic"

	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
)

// statusPublisher delivers connection status transitions to one callback.
// Repeating the current status is not a transition and is dropped.
type statusPublisher struct {
	dispatcher ports.Dispatcher
	stopped    *atomic.Bool

	mu      sync.Mutex
	current domain.ConnectionStatus
	fn      func(domain.ConnectionStatus)
}

func newStatusPublisher(dispatcher ports.Dispatcher, stopped *atomic.Bool) *statusPublisher {
	return &statusPublisher{
		dispatcher: dispatcher,
		stopped:    stopped,
		current:    domain.StatusHidden,
	}
}

// subscribe sets the callback and replays the current status unless it is hidden.
func (p *statusPublisher) subscribe(fn func(domain.ConnectionStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fn = fn
	if fn != nil && p.current != domain.StatusHidden {
		p.deliver(fn, p.current)
	}
}

// publish records status and dispatches it while holding the lock so deliveries
// keep the order of transitions.
func (p *statusPublisher) publish(status domain.ConnectionStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped.Load() || status == p.current {
		return
	}
	p.current = status

	if p.fn != nil {
		p.deliver(p.fn, status)
	}
}

func (p *statusPublisher) deliver(fn func(domain.ConnectionStatus), status domain.ConnectionStatus) {
	if p.stopped.Load() {
		return
	}
	stopped := p.stopped
	p.dispatcher.Dispatch(func() {
		if !stopped.Load() {
			fn(status)
		}
	})
}

func (p *statusPublisher) status() domain.ConnectionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
