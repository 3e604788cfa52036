// Package style provides the shared palette and icons used by the viewer,
// the plain renderer and the log handler.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/mkd/internal/core/domain"
)

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	White  = lipgloss.Color("#FFFFFF")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
)

// StatusColor returns the badge color for s. Hidden has no color.
func StatusColor(s domain.ConnectionStatus) (lipgloss.Color, bool) {
	switch s {
	case domain.StatusConnected:
		return Green, true
	case domain.StatusReconnecting:
		return Yellow, true
	case domain.StatusDisconnected:
		return Red, true
	default:
		return "", false
	}
}

// StatusIcon returns the badge icon for s, or "" when hidden.
func StatusIcon(s domain.ConnectionStatus) string {
	switch s {
	case domain.StatusConnected:
		return Dot
	case domain.StatusReconnecting, domain.StatusDisconnected:
		return Circle
	default:
		return ""
	}
}
