package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/mkd/internal/core/domain"
)

// Renderer wraps the viewer Bubble Tea model as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	program := tea.NewProgram(model, opts...)
	return &Renderer{
		program: program,
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start launches the viewer in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop signals the viewer to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the viewer has terminated.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnContent shows a new version of the file.
func (r *Renderer) OnContent(content string) {
	r.program.Send(MsgContent{Content: content})
}

// OnStatus updates the connection badge.
func (r *Renderer) OnStatus(status domain.ConnectionStatus) {
	r.program.Send(MsgStatus{Status: status})
}

// Program returns the underlying tea.Program for testing.
func (r *Renderer) Program() *tea.Program {
	return r.program
}
