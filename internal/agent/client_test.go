package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCreateCustomer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/customer" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		var req CustomerCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Name != "careguide" {
			t.Fatalf("unexpected name: %q", req.Name)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cus_1","name":"careguide","createdAt":123}`))
	}))
	defer server.Close()

	c := New(server.URL)
	cust, err := c.CreateCustomer(context.Background(), "careguide")
	if err != nil {
		t.Fatalf("CreateCustomer returned error: %v", err)
	}
	if cust.ID != "cus_1" {
		t.Fatalf("unexpected id: %q", cust.ID)
	}
}

func TestCreateSession(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/session" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req SessionCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.CustomerID != "cus_1" {
			t.Fatalf("unexpected customer id: %q", req.CustomerID)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ses_1","customerId":"cus_1","createdAt":456}`))
	}))
	defer server.Close()

	c := New(server.URL)
	ses, err := c.CreateSession(context.Background(), "cus_1")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if ses.ID != "ses_1" || ses.CustomerID != "cus_1" {
		t.Fatalf("unexpected session: %+v", ses)
	}
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/session/ses_1/message" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		var req MessageSendRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		if req.Text != "단백질 섭취량이 궁금해요" {
			t.Fatalf("unexpected text: %q", req.Text)
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(server.URL)
	if err := c.SendMessage(context.Background(), "ses_1", "단백질 섭취량이 궁금해요"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
}

func TestPollEvents(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/session/ses_1/events" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("offset"); got != "3" {
			t.Fatalf("unexpected offset: %q", got)
		}
		if got := r.URL.Query().Get("wait"); got != "25" {
			t.Fatalf("unexpected wait: %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"events":[
				{"id":"ev_4","type":"message","message":{"role":"assistant","text":"hello"},"createdAt":1},
				{"id":"ev_5","type":"typing","createdAt":2}
			],
			"next":5
		}`))
	}))
	defer server.Close()

	c := New(server.URL)
	events, next, err := c.PollEvents(context.Background(), "ses_1", 3, 25*time.Second)
	if err != nil {
		t.Fatalf("PollEvents returned error: %v", err)
	}
	if next != 5 {
		t.Fatalf("next = %d, want 5", next)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Message == nil || events[0].Message.Text != "hello" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
}

func TestPollEvents_GatewayTimeoutMeansNoData(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer server.Close()

	c := New(server.URL)
	events, next, err := c.PollEvents(context.Background(), "ses_1", 7, time.Second)
	if err != nil {
		t.Fatalf("504 must not be an error, got: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("504 must yield no events, got %d", len(events))
	}
	if next != 7 {
		t.Fatalf("504 must keep the offset, got %d", next)
	}
}

func TestUpdateTags(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/customer/cus_1/tags" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		var req TagsUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(req.Tags) != 2 || req.Tags[0] != "ckd-stage-3" {
			t.Fatalf("unexpected tags: %v", req.Tags)
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(server.URL)
	if err := c.UpdateTags(context.Background(), "cus_1", []string{"ckd-stage-3", "caregiver"}); err != nil {
		t.Fatalf("UpdateTags returned error: %v", err)
	}
}

func TestErrorResponseDecoding(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"session expired","code":4102}`))
	}))
	defer server.Close()

	c := New(server.URL)
	err := c.SendMessage(context.Background(), "ses_1", "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "session expired") || !strings.Contains(err.Error(), "code=4102") {
		t.Fatalf("error lost API detail: %v", err)
	}
}

func TestSessionIDIsPathEscaped(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/session/ses%2F1/message" {
			t.Fatalf("unexpected escaped path: %s", r.URL.EscapedPath())
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(server.URL)
	if err := c.SendMessage(context.Background(), "ses/1", "hi"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
}
