package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/careplus/careguide/internal/styles"
)

var (
	inputStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	waitingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.ColorMuted)).Italic(true)
	waitingLabel = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.ColorAccent)).Bold(true)
)

// Input is the prompt input component backed by a bubbles textarea.
type Input struct {
	textarea   textarea.Model
	focused    bool
	submitting bool // prevents double-submit while the agent is replying
}

// NewInput creates a new Input with default settings.
func NewInput() *Input {
	ta := textarea.New()
	ta.Placeholder = "메시지를 입력하세요... (Type a message)"
	ta.MaxHeight = 5
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.Blur()

	return &Input{textarea: ta}
}

// Blink returns the cursor blink command for Init.
func (i *Input) Blink() tea.Cmd {
	return textarea.Blink
}

// Update handles incoming tea messages.
func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		// Submit on Enter (Alt+Enter inserts a newline via textarea default).
		if i.submitting {
			return i, nil // ignore while waiting on the agent
		}
		val := strings.TrimSpace(i.textarea.Value())
		if val == "" {
			return i, nil
		}
		i.textarea.Reset()
		return i, func() tea.Msg { return SendPromptMsg{Content: val} }
	}

	var cmd tea.Cmd
	i.textarea, cmd = i.textarea.Update(msg)
	return i, cmd
}

// View renders the input constrained to the given width.
func (i *Input) View(width int) string {
	if width <= 0 {
		width = 80
	}

	// Account for border + padding (2 sides * (border 1 + padding 1) = 4)
	innerWidth := width - 4
	if innerWidth < 1 {
		innerWidth = 1
	}
	i.textarea.SetWidth(innerWidth)

	content := i.textarea.View()
	if i.submitting {
		content = waitingStyle.Render(content) + "\n" + waitingLabel.Render("CareGuide is replying...")
	}

	return inputStyle.Width(width - 2).Render(content)
}

// Focus focuses the textarea.
func (i *Input) Focus() {
	i.textarea.Focus()
	i.focused = true
}

// Blur blurs the textarea.
func (i *Input) Blur() {
	i.textarea.Blur()
	i.focused = false
}

// SetSubmitting sets the waiting-on-agent state.
func (i *Input) SetSubmitting(v bool) {
	i.submitting = v
}

// IsSubmitting returns whether a reply is pending.
func (i *Input) IsSubmitting() bool {
	return i.submitting
}

// Value returns the current textarea text.
func (i *Input) Value() string {
	return i.textarea.Value()
}

// IsFocused returns whether the input is focused.
func (i *Input) IsFocused() bool {
	return i.focused
}
