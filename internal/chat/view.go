package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/careplus/careguide/internal/markdown"
	"github.com/careplus/careguide/internal/styles"
)

var (
	userLabel      = styles.Accent
	assistantLabel = styles.Title
)

// View renders the chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	if m.err != nil && m.sessionID == "" {
		content := lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color(styles.ColorError)).
			Render(fmt.Sprintf("\n\n⚠ %s", m.err.Error()))
		return lipgloss.NewStyle().Width(m.width).Height(m.height).MaxHeight(m.height).Render(content)
	}

	inputView := m.input.View(m.width)
	statusView := m.renderStatusBar()

	content := lipgloss.JoinVertical(lipgloss.Left,
		statusView,
		m.viewport.View(),
		inputView,
	)
	return lipgloss.NewStyle().Width(m.width).Height(m.height).MaxHeight(m.height).Render(content)
}

// layout recomputes the viewport size from the window size.
func (m *Model) layout() {
	inputHeight := lipgloss.Height(m.input.View(m.width))
	statusHeight := 1
	vpHeight := m.height - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
	m.refreshTranscript()
}

// refreshTranscript re-renders messages into the viewport and follows the
// tail.
func (m *Model) refreshTranscript() {
	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if wasAtBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessages() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			b.WriteString(userLabel.Render("You"))
		default:
			b.WriteString(assistantLabel.Render("CareGuide"))
		}
		b.WriteString("\n")

		if msg.Role == "assistant" && m.renderer != nil {
			for _, line := range m.renderer.RenderContent(msg.Content, width) {
				b.WriteString(line)
				b.WriteString("\n")
			}
		} else {
			for _, line := range markdown.WrapText(msg.Content, width) {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	if m.waiting {
		b.WriteString(styles.Muted.Render("…"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderStatusBar() string {
	status := "connecting..."
	if m.sessionID != "" {
		status = fmt.Sprintf("session %s", m.sessionID)
	}
	if m.err != nil && m.sessionID != "" {
		status += "  " + styles.Error.Render(m.err.Error())
	}
	bar := fmt.Sprintf("CareGuide chat  %s  (esc to quit)", styles.Muted.Render(status))
	return styles.StatusBar.Width(m.width).Render(bar)
}
