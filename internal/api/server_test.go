package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/adrianfhr/customer-support-chatbot/internal/chat"
	"github.com/adrianfhr/customer-support-chatbot/internal/memory"
	"github.com/adrianfhr/customer-support-chatbot/internal/store"
	"github.com/adrianfhr/customer-support-chatbot/internal/tools"
)

type fakeLLM struct {
	reply   string
	pingErr error
}

func (f *fakeLLM) Generate(context.Context, string, string) (string, error) {
	return f.reply, nil
}

func (f *fakeLLM) Ping(context.Context) error { return f.pingErr }

func newTestServer(t *testing.T, client *fakeLLM) (*httptest.Server, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	logger := slog.Default()
	window := memory.NewWindow(s, 3, logger)
	svc := chat.NewService(s, window, tools.NewDispatcher(s, logger), client, logger)

	srv := httptest.NewServer(NewServer("", 0, svc, s, window, client, logger).Handler())
	t.Cleanup(srv.Close)
	return srv, s
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestChatEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{reply: "unused"})

	resp := postJSON(t, srv.URL+"/v1/orders/seed", []map[string]any{{
		"id":              "ORD123",
		"user_id":         "u1",
		"status":          "shipped",
		"carrier":         "JNE",
		"tracking_number": "JNE789",
	}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/v1/chat", ChatRequest{
		SessionID: "sess-1",
		Message:   "Di mana pesanan saya? ID: ORD123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status: %d", resp.StatusCode)
	}

	var got ChatResponse
	decodeBody(t, resp, &got)

	if got.TurnIndex != 1 {
		t.Errorf("turn index: %d", got.TurnIndex)
	}
	if len(got.ToolCalls) != 1 || got.ToolCalls[0] != "get_order_status" {
		t.Errorf("tool calls: %v", got.ToolCalls)
	}
	if !strings.Contains(got.Message, "JNE789") {
		t.Errorf("reply missing tracking number:\n%s", got.Message)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestChatValidation(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{})

	resp := postJSON(t, srv.URL+"/v1/chat", ChatRequest{SessionID: "sess-1", Message: ""})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestChatOversizeMessage(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{})

	resp := postJSON(t, srv.URL+"/v1/chat", ChatRequest{
		SessionID: "sess-1",
		Message:   strings.Repeat("a", chat.MaxMessageLength+1),
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestChatBlankSessionGetsFreshID(t *testing.T) {
	srv, s := newTestServer(t, &fakeLLM{reply: "Halo!\n\nRingkas: Menyapa."})

	resp := postJSON(t, srv.URL+"/v1/chat", ChatRequest{Message: "Halo, selamat pagi!"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	var got ChatResponse
	decodeBody(t, resp, &got)

	if got.SessionID == "" {
		t.Fatal("response missing generated session id")
	}
	if _, err := uuid.Parse(got.SessionID); err != nil {
		t.Errorf("session id is not a uuid: %q", got.SessionID)
	}

	// The turn was persisted under the generated session.
	msgs, err := s.SessionMessages(context.Background(), got.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Errorf("got %d messages under generated session, want 2", len(msgs))
	}
}

func TestChatInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{})

	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestSessionMessagesAndDelete(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{reply: "Halo!\n\nRingkas: Menyapa."})

	resp := postJSON(t, srv.URL+"/v1/chat", ChatRequest{SessionID: "sess-1", Message: "Halo, selamat pagi!"})
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/v1/sessions/sess-1/messages")
	if err != nil {
		t.Fatal(err)
	}
	var listing struct {
		SessionID string          `json:"session_id"`
		Messages  []store.Message `json:"messages"`
		Count     int             `json:"count"`
	}
	decodeBody(t, resp, &listing)

	if listing.Count != 2 || len(listing.Messages) != 2 {
		t.Fatalf("count: %d, messages: %d", listing.Count, len(listing.Messages))
	}
	if listing.Messages[0].Role != store.RoleUser {
		t.Errorf("first message role: %s", listing.Messages[0].Role)
	}

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/sessions/sess-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var cleared map[string]string
	decodeBody(t, resp, &cleared)
	if cleared["status"] != "cleared" {
		t.Errorf("delete response: %v", cleared)
	}

	resp, err = http.Get(srv.URL + "/v1/sessions/sess-1/messages")
	if err != nil {
		t.Fatal(err)
	}
	decodeBody(t, resp, &listing)
	if listing.Count != 0 {
		t.Errorf("messages after clear: %d", listing.Count)
	}
}

func TestPolicyEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{})

	resp := postJSON(t, srv.URL+"/v1/policies/seed", []map[string]string{{
		"type":             "warranty",
		"content_markdown": "# Garansi\n\nBerlaku 1 tahun.",
	}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/v1/policies/warranty")
	if err != nil {
		t.Fatal(err)
	}
	var policy store.Policy
	decodeBody(t, resp, &policy)
	if policy.ContentMarkdown != "# Garansi\n\nBerlaku 1 tahun." {
		t.Errorf("content: %q", policy.ContentMarkdown)
	}

	resp, err = http.Get(srv.URL + "/v1/policies/warranty?format=html")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: %s", ct)
	}
	html, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "<h1>Garansi</h1>") {
		t.Errorf("rendered html: %s", html)
	}

	resp, err = http.Get(srv.URL + "/v1/policies/return")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing policy status: %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var health map[string]string
	decodeBody(t, resp, &health)
	if health["status"] != "healthy" {
		t.Errorf("health: %v", health)
	}
	if health["ollama"] != "ok" {
		t.Errorf("ollama: %v", health["ollama"])
	}
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{reply: "Oke.\n\nRingkas: Siap."})

	resp := postJSON(t, srv.URL+"/v1/chat", ChatRequest{SessionID: "sess-1", Message: "Halo apa kabar"})
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/v1/stats")
	if err != nil {
		t.Fatal(err)
	}
	var stats map[string]any
	decodeBody(t, resp, &stats)

	if stats["messages"] != float64(2) {
		t.Errorf("messages: %v", stats["messages"])
	}
	if stats["storage"] != "sqlite" {
		t.Errorf("storage: %v", stats["storage"])
	}
}
