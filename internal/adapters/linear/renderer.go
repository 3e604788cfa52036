// Package linear provides a plain renderer for pipes, CI and dumb terminals.
package linear

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/ui/output"
	"go.trai.ch/mkd/internal/ui/style"
)

// Renderer implements ports.Renderer by printing every version of the file to stdout.
// Updates after the first are preceded by a divider on stderr, and status changes are
// reported on stderr so stdout carries only file content.
type Renderer struct {
	target domain.Target
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu       sync.Mutex
	versions int
	ctx      context.Context
	done     chan struct{}
	stopOnce sync.Once
}

// NewRenderer creates a new Renderer. Nil writers default to os.Stdout and os.Stderr.
func NewRenderer(target domain.Target, stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		target: target,
		stdout: stdout,
		stderr: stderr,
		output: output.NewWithProfile(stderr, output.ColorProfileANSI),
		ctx:    context.Background(),
		done:   make(chan struct{}),
	}
}

// Start records ctx; Wait returns once it is done.
func (r *Renderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
	return nil
}

// Stop releases Wait.
func (r *Renderer) Stop() error {
	r.stopOnce.Do(func() { close(r.done) })
	return nil
}

// Wait blocks until Stop is called or the context passed to Start is done.
func (r *Renderer) Wait() error {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-r.done:
	}
	return nil
}

// OnContent prints content, with a divider before every version but the first.
func (r *Renderer) OnContent(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.versions > 0 {
		divider := "── " + r.target.DisplayPath() + " changed ──"
		_, _ = fmt.Fprintln(r.stderr, output.Colorize(r.output, divider, string(style.Iris)))
	}
	r.versions++

	_, _ = io.WriteString(r.stdout, content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		_, _ = io.WriteString(r.stdout, "\n")
	}
}

// OnStatus prints connection changes. Hidden is never printed.
func (r *Renderer) OnStatus(status domain.ConnectionStatus) {
	c, ok := style.StatusColor(status)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	badge := output.Colorize(r.output, style.StatusIcon(status)+" "+status.String(), string(c))
	_, _ = fmt.Fprintf(r.stderr, "%s %s\n", badge, r.target.DisplayPath())
}
