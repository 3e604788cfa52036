package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/mkd/internal/ui/style"
)

// View renders the header, the scrollable content and the footer.
//
//nolint:gocritic // hugeParam ignored
func (m *Model) View() string {
	if !m.Ready {
		return "Loading " + m.Target.DisplayName() + "..."
	}
	return m.headerView() + "\n" + m.Viewport.View() + "\n" + m.footerView()
}

func (m *Model) headerView() string {
	header := titleStyle.Render(m.Target.DisplayName()) + pathStyle.Render(m.Target.DisplayPath())
	if badge := m.badgeView(); badge != "" {
		header += badge
	}
	return header
}

// badgeView renders the connection status, or "" while hidden.
func (m *Model) badgeView() string {
	c, ok := style.StatusColor(m.Status)
	if !ok {
		return ""
	}
	return lipgloss.NewStyle().Foreground(c).Render(style.StatusIcon(m.Status) + " " + m.Status.String())
}

func (m *Model) footerView() string {
	percent := fmt.Sprintf("%3.f%%", m.Viewport.ScrollPercent()*100)
	return footerStyle.Render("q quit · ↑/↓ scroll · g/G top/bottom  " + percent)
}
