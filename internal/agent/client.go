// Package agent is the HTTP client for the external conversational-agent
// backend that powers the CarePlus chat feature. The backend is an opaque
// external service; this client only manages customers, sessions, messages,
// and the long-poll event feed.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// opTimeout bounds non-polling requests.
const opTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No global timeout: the event long-poll holds the connection
		// open for its wait budget. Every call sets a context deadline.
		httpClient: &http.Client{},
	}
}

// CreateCustomer registers a customer record for this install.
func (c *Client) CreateCustomer(ctx context.Context, name string) (*Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	body, err := json.Marshal(CustomerCreateRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("agent: create customer: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/customer"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agent: create customer: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent: create customer: request failed (is the agent backend reachable?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseErrorResponse("create customer", resp)
	}

	var out Customer
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("agent: create customer: decode response: %w", err)
	}
	return &out, nil
}

// CreateSession opens a chat session for the customer.
func (c *Client) CreateSession(ctx context.Context, customerID string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	body, err := json.Marshal(SessionCreateRequest{CustomerID: customerID})
	if err != nil {
		return nil, fmt.Errorf("agent: create session: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/session"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agent: create session: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent: create session: request failed (is the agent backend reachable?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseErrorResponse("create session", resp)
	}

	var out Session
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("agent: create session: decode response: %w", err)
	}
	return &out, nil
}

// SendMessage posts a user message into the session.
func (c *Client) SendMessage(ctx context.Context, sessionID string, text string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	body, err := json.Marshal(MessageSendRequest{Text: text})
	if err != nil {
		return fmt.Errorf("agent: send message: encode request: %w", err)
	}

	path := fmt.Sprintf("/session/%s/message", url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("agent: send message: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent: send message: request failed (is the agent backend reachable?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseErrorResponse("send message", resp)
	}
	return nil
}

// PollEvents long-polls for session events after offset, holding the
// request open for up to wait. A 504 means the wait budget elapsed with no
// new data: it returns an empty slice, the same offset, and no error.
// Otherwise it returns the new events and the offset to poll from next.
func (c *Client) PollEvents(ctx context.Context, sessionID string, offset int, wait time.Duration) ([]Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, wait+opTimeout)
	defer cancel()

	path := fmt.Sprintf("/session/%s/events", url.PathEscape(sessionID))
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("wait", strconv.Itoa(int(wait.Seconds())))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, offset, fmt.Errorf("agent: poll events: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, offset, fmt.Errorf("agent: poll events: request failed (is the agent backend reachable?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGatewayTimeout {
		// The poll gateway expired with nothing to report.
		return nil, offset, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, offset, c.parseErrorResponse("poll events", resp)
	}

	var out EventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, offset, fmt.Errorf("agent: poll events: decode response: %w", err)
	}
	return out.Events, out.Next, nil
}

// UpdateTags replaces the customer's tag set.
func (c *Client) UpdateTags(ctx context.Context, customerID string, tags []string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	body, err := json.Marshal(TagsUpdateRequest{Tags: tags})
	if err != nil {
		return fmt.Errorf("agent: update tags: encode request: %w", err)
	}

	path := fmt.Sprintf("/customer/%s/tags", url.PathEscape(customerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("agent: update tags: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent: update tags: request failed (is the agent backend reachable?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseErrorResponse("update tags", resp)
	}
	return nil
}

// Ping checks the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/health"), nil)
	if err != nil {
		return fmt.Errorf("agent: ping: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent: backend unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse("ping", resp)
	}
	return nil
}

func (c *Client) parseErrorResponse(operation string, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("agent: %s: status %d: read error body: %w", operation, resp.StatusCode, err)
	}

	var apiErr ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		if apiErr.Code != 0 {
			return fmt.Errorf("agent: %s: status %d: %s (code=%d)", operation, resp.StatusCode, apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("agent: %s: status %d: %s", operation, resp.StatusCode, apiErr.Error)
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("agent: %s: status %d", operation, resp.StatusCode)
	}
	return fmt.Errorf("agent: %s: status %d: %s", operation, resp.StatusCode, msg)
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}
