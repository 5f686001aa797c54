package tui

import (
	"fmt"
	"strings"

	"github.com/joss/ddx/internal/render"
	"github.com/joss/ddx/internal/session"
	xstrings "github.com/joss/ddx/internal/strings"
)

// maxStatusError bounds error text in the status bar.
const maxStatusError = 80

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return fmt.Sprintf("\n  %s Connecting...", m.spinner.View())
	}

	var b strings.Builder

	header := titleStyle.Render("🩺 DDx")
	if m.view.SessionID != "" {
		header += "  " + dimStyle.Render(m.view.SessionID)
	}
	b.WriteString(header + "\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if panel := m.renderDifferential(); panel != "" {
		b.WriteString(panel + "\n")
	}

	b.WriteString(m.renderStatus())
	return b.String()
}

func (m Model) renderDifferential() string {
	if m.view.Differential == nil {
		return ""
	}
	text := strings.TrimRight(m.renderer.Differential(m.view.Differential), "\n")
	style := differentialStyle
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	return style.Render(text)
}

func (m Model) renderStatus() string {
	var parts []string

	switch {
	case m.startErr != nil:
		parts = append(parts, errorStyle.Render("✗ "+xstrings.TruncateRunes(m.startErr.Error(), maxStatusError)))
	case m.view.State == session.Streaming:
		parts = append(parts, m.spinner.View()+" streaming")
	case m.view.State == session.Completed:
		parts = append(parts, successStyle.Render(render.StateIcon(m.view.State)+" completed"))
	case m.view.State == session.Canceled:
		parts = append(parts, warnStyle.Render(render.StateIcon(m.view.State)+" canceled"))
	case m.view.State == session.Failed:
		msg := render.StateIcon(m.view.State) + " failed"
		if m.view.Err != nil {
			msg += ": " + xstrings.TruncateRunes(m.view.Err.Error(), maxStatusError)
		}
		parts = append(parts, errorStyle.Render(msg))
	default:
		parts = append(parts, m.spinner.View()+" connecting")
	}

	parts = append(parts, fmt.Sprintf("Turns:%d", len(m.view.Turns)))

	if m.streaming() {
		parts = append(parts, "Ctrl+C: stop │ j/k: scroll │ g/G: top/bottom")
	} else {
		parts = append(parts, "q/Esc: quit │ j/k: scroll │ g/G: top/bottom")
	}

	return statusStyle.Width(m.width).Render(strings.Join(parts, " │ "))
}
