package chat

import "github.com/careplus/careguide/internal/agent"

// SessionReadyMsg reports a completed handshake with the agent backend.
type SessionReadyMsg struct {
	CustomerID string
	SessionID  string
}

// ConnectionErrorMsg reports a failed handshake.
type ConnectionErrorMsg struct {
	Err error
}

// EventsMsg carries one long-poll result.
type EventsMsg struct {
	Events []agent.Event
	Next   int
}

// PollErrorMsg reports a failed long-poll.
type PollErrorMsg struct {
	Err error
}

// resumePollMsg restarts polling after a backoff.
type resumePollMsg struct {
	offset int
}

// SendPromptMsg carries a submitted user message.
type SendPromptMsg struct {
	Content string
}

// SendErrorMsg reports a failed message send.
type SendErrorMsg struct {
	Err error
}
