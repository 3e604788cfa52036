package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/mkd/internal/ui/style"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Iris).
			Foreground(style.White)

	pathStyle = lipgloss.NewStyle().
			Foreground(style.Slate).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(style.Slate)
)
