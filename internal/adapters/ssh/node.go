package ssh

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mkd/internal/adapters/logger" //nolint:depguard // Wired in adapter layer
	"go.trai.ch/mkd/internal/adapters/telemetry"
	"go.trai.ch/mkd/internal/core/ports"
)

// NodeID is the unique identifier for the ssh session factory Graft node.
const NodeID graft.ID = "adapter.ssh"

func init() {
	graft.Register(graft.Node[ports.SessionFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, telemetry.TracerNodeID},
		Run: func(ctx context.Context) (ports.SessionFactory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(log, tracer), nil
		},
	})
}
