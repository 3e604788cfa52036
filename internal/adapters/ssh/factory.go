package ssh

import (
	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
)

// Factory implements ports.SessionFactory.
type Factory struct {
	logger ports.Logger
	tracer ports.Tracer
}

// NewFactory creates a new Factory.
func NewFactory(logger ports.Logger, tracer ports.Tracer) *Factory {
	return &Factory{logger: logger, tracer: tracer}
}

// Open returns a session for host with a control socket unique to this process.
// No connection is made until the first command runs.
func (f *Factory) Open(host string, settings domain.SSHSettings) ports.RemoteSession {
	return NewSession(host, domain.DefaultControlSocketPath(host), settings, f.logger, f.tracer)
}
