// Package tui implements the full-screen viewer.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/mkd/internal/core/domain"
)

// footerHeight is the number of lines below the viewport.
const footerHeight = 1

// Model represents the viewer state.
type Model struct {
	Target   domain.Target
	Status   domain.ConnectionStatus
	Content  string
	Versions int
	Viewport viewport.Model
	Ready    bool
	Width    int
}

// NewModel creates a Model for target.
func NewModel(target domain.Target) Model {
	return Model{
		Target: target,
		Status: domain.StatusHidden,
	}
}

// Init sets the terminal title to the file name.
//
//nolint:gocritic // hugeParam ignored
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle(m.Target.DisplayName())
}

// Update handles incoming messages and updates the model state.
//
//nolint:gocritic // hugeParam ignored
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g", "home":
			m.Viewport.GotoTop()
		case "G", "end":
			m.Viewport.GotoBottom()
		default:
			m.Viewport, cmd = m.Viewport.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		height := max(0, msg.Height-lipgloss.Height(m.headerView())-footerHeight)
		if !m.Ready {
			m.Viewport = viewport.New(msg.Width, height)
			m.Viewport.SetContent(normalize(m.Content))
			m.Ready = true
		} else {
			m.Viewport.Width = msg.Width
			m.Viewport.Height = height
		}

	case MsgContent:
		m.Content = msg.Content
		m.Versions++
		if m.Ready {
			m.Viewport.SetContent(normalize(m.Content))
		}

	case MsgStatus:
		m.Status = msg.Status

	default:
		m.Viewport, cmd = m.Viewport.Update(msg)
	}

	return m, cmd
}

// normalize converts CRLF line endings so the viewport measures lines correctly.
func normalize(content string) string {
	return strings.ReplaceAll(content, "\r\n", "\n")
}
