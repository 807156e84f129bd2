package agent

// CustomerCreateRequest is the request body for creating a customer.
type CustomerCreateRequest struct {
	Name string `json:"name"`
}

// Customer is the agent backend's record for this install.
type Customer struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"createdAt"`
}

// SessionCreateRequest is the request body for opening a session.
type SessionCreateRequest struct {
	CustomerID string `json:"customerId"`
}

// Session is an open chat session.
type Session struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	CreatedAt  int64  `json:"createdAt"`
}

// MessageSendRequest is the request body for posting a user message.
type MessageSendRequest struct {
	Text string `json:"text"`
}

// Message is the payload of a message event.
type Message struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// Event is a single entry in a session's event feed.
type Event struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"` // "message", "typing", "session.closed"
	Message   *Message `json:"message,omitempty"`
	CreatedAt int64    `json:"createdAt"`
}

// EventsResponse is the long-poll response body. Next is the offset to
// resume polling from.
type EventsResponse struct {
	Events []Event `json:"events"`
	Next   int     `json:"next"`
}

// TagsUpdateRequest is the request body for replacing customer tags.
type TagsUpdateRequest struct {
	Tags []string `json:"tags"`
}

// ErrorResponse is the response body for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
