package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/zenith/internal/llm"
)

// View implements tea.Model.
func (m *Model) View() string {
	title := m.theme.Title.Render("◆ Zenith AI")
	if m.webSearch {
		title += "  " + m.theme.StatusInfo.Render("web search on")
	}

	parts := []string{
		title,
		m.viewport.View(),
		m.renderStatus(),
		m.theme.RoundedBox.Width(max(m.width-2, 10)).Render(m.input.View()),
	}
	if m.showHelp {
		parts = append(parts, m.help.FullHelpView(m.keymap.FullHelp()))
	} else {
		parts = append(parts, m.help.ShortHelpView(m.keymap.ShortHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderStatus() string {
	switch {
	case m.streaming:
		return m.spinner.View() + " " + m.theme.StatusPending.Render("thinking...")
	case m.lastError != nil:
		return m.theme.StatusError.Render("✗ " + m.lastError.Error())
	default:
		return ""
	}
}

func (m *Model) renderTranscript() string {
	width := max(m.width-2, 20)
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderTurn(t, body))
	}
	if m.streaming && m.partial.Len() > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderTurn(turn{role: llm.RoleModel, text: m.partial.String()}, body))
	}
	return b.String()
}

func (m *Model) renderTurn(t turn, body lipgloss.Style) string {
	label := m.theme.ModelTurn.Render("Zenith")
	if t.role == llm.RoleUser {
		label = m.theme.UserTurn.Render("You")
	}
	out := label + "\n" + body.Render(m.theme.Normal.Render(t.text))
	for i, src := range t.sources {
		name := src.Title
		if name == "" {
			name = src.URI
		}
		out += "\n" + m.theme.Source.Render(fmt.Sprintf("[%d] %s %s", i+1, name, src.URI))
	}
	return out
}
