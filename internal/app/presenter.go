package app

import (
	"github.com/cespare/xxhash/v2"
	"go.trai.ch/mkd/internal/core/ports"
)

// presenter forwards file versions to the renderer, skipping versions whose
// content did not change. It is only used from the dispatch queue.
type presenter struct {
	renderer ports.Renderer
	logger   ports.Logger
	digest   uint64
	shown    bool
}

func newPresenter(renderer ports.Renderer, logger ports.Logger) *presenter {
	return &presenter{renderer: renderer, logger: logger}
}

func (p *presenter) show(content string) {
	digest := xxhash.Sum64String(content)
	if p.shown && digest == p.digest {
		p.logger.Debug("content unchanged, skipping render")
		return
	}
	p.shown = true
	p.digest = digest
	p.renderer.OnContent(content)
}
