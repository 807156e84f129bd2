// Package chat is the interactive terminal chat with the CarePlus
// conversational agent.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/careplus/careguide/internal/agent"
	"github.com/careplus/careguide/internal/markdown"
)

// ChatMessage represents a single message in the transcript.
type ChatMessage struct {
	Role      string // "user" or "assistant"
	Content   string
	Timestamp time.Time
}

// Model is the bubbletea model for the chat session.
type Model struct {
	client       *agent.Client
	customerName string
	pollWait     time.Duration
	renderer     *markdown.Renderer // nil renders plain text

	width  int
	height int

	customerID string
	sessionID  string
	offset     int

	messages []ChatMessage
	waiting  bool // agent is composing a reply
	err      error

	input    *Input
	viewport viewport.Model
	ready    bool
}

// New creates a chat model. renderer may be nil to disable markdown.
func New(client *agent.Client, customerName string, pollWait time.Duration, renderer *markdown.Renderer) *Model {
	in := NewInput()
	in.Focus()
	return &Model{
		client:       client,
		customerName: customerName,
		pollWait:     pollWait,
		renderer:     renderer,
		input:        in,
		viewport:     viewport.New(80, 20),
	}
}

// Init starts the session handshake.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.input.Blink(), m.startSession())
}

// startSession pings the backend, registers the customer, and opens a
// session.
func (m *Model) startSession() tea.Cmd {
	client := m.client
	name := m.customerName
	return func() tea.Msg {
		ctx := context.Background()
		if err := client.Ping(ctx); err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		cust, err := client.CreateCustomer(ctx, name)
		if err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		ses, err := client.CreateSession(ctx, cust.ID)
		if err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return SessionReadyMsg{CustomerID: cust.ID, SessionID: ses.ID}
	}
}

// pollEvents issues one long-poll and feeds the result back as a message.
// The Update loop re-issues it, so the poll runs for the whole session.
func (m *Model) pollEvents(offset int) tea.Cmd {
	client := m.client
	sessionID := m.sessionID
	wait := m.pollWait
	return func() tea.Msg {
		events, next, err := client.PollEvents(context.Background(), sessionID, offset, wait)
		if err != nil {
			return PollErrorMsg{Err: err}
		}
		return EventsMsg{Events: events, Next: next}
	}
}

// Update handles tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		newInput, cmd := m.input.Update(msg)
		m.input = newInput
		return m, cmd

	case SessionReadyMsg:
		m.customerID = msg.CustomerID
		m.sessionID = msg.SessionID
		m.err = nil
		return m, m.pollEvents(0)

	case ConnectionErrorMsg:
		m.err = msg.Err
		m.input.Blur()
		return m, nil

	case EventsMsg:
		m.offset = msg.Next
		m.applyEvents(msg.Events)
		m.refreshTranscript()
		return m, m.pollEvents(m.offset)

	case PollErrorMsg:
		m.err = msg.Err
		m.waiting = false
		m.input.SetSubmitting(false)
		// Back off before resuming the poll so a flapping backend
		// doesn't spin the loop.
		offset := m.offset
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return resumePollMsg{offset: offset}
		})

	case resumePollMsg:
		return m, m.pollEvents(msg.offset)

	case SendPromptMsg:
		m.messages = append(m.messages, ChatMessage{
			Role:      "user",
			Content:   msg.Content,
			Timestamp: time.Now(),
		})
		m.waiting = true
		m.input.SetSubmitting(true)
		m.refreshTranscript()

		client := m.client
		sessionID := m.sessionID
		content := msg.Content
		return m, func() tea.Msg {
			if err := client.SendMessage(context.Background(), sessionID, content); err != nil {
				return SendErrorMsg{Err: err}
			}
			return nil
		}

	case SendErrorMsg:
		m.err = msg.Err
		m.waiting = false
		m.input.SetSubmitting(false)
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// applyEvents folds polled events into the transcript. User messages come
// back in the feed too; those are already in the transcript from
// SendPromptMsg and are skipped.
func (m *Model) applyEvents(events []agent.Event) {
	for _, ev := range events {
		switch ev.Type {
		case "message":
			if ev.Message == nil || ev.Message.Role != "assistant" {
				continue
			}
			m.messages = append(m.messages, ChatMessage{
				Role:      "assistant",
				Content:   ev.Message.Text,
				Timestamp: time.Unix(ev.CreatedAt, 0),
			})
			m.waiting = false
			m.input.SetSubmitting(false)
		case "typing":
			m.waiting = true
		}
	}
}
