package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Model:   got.Model,
			Message: Message{Role: "assistant", Content: "Halo! Ada yang bisa dibantu?\n\nRingkas: Menyapa pengguna."},
			Done:    true,
		})
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, "llama3.2:3b", 0.4)
	reply, err := c.Generate(context.Background(), "system prompt", "Halo")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(reply, "Halo!") {
		t.Errorf("reply: %q", reply)
	}

	if got.Model != "llama3.2:3b" {
		t.Errorf("model: %q", got.Model)
	}
	if got.Stream {
		t.Error("request should be non-streaming")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("messages: %+v", got.Messages)
	}
	if got.Options == nil || got.Options.Temperature != 0.4 {
		t.Errorf("options: %+v", got.Options)
	}
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, "llama3.2:3b", 0.4)
	_, err := c.Generate(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry status: %v", err)
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error should carry body: %v", err)
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, "llama3.2:3b", 0.4)
	if _, err := c.Generate(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGenerateContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewOllamaClient(server.URL, "llama3.2:3b", 0.4)
	if _, err := c.Generate(ctx, "sys", "msg"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, "", 0)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestPingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, "", 0)
	if err := c.Ping(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestNewOllamaClientDefaults(t *testing.T) {
	c := NewOllamaClient("", "", 0)
	if c.baseURL != "http://localhost:11434" {
		t.Errorf("base url: %q", c.baseURL)
	}
	if c.model != "llama3.2:3b" {
		t.Errorf("model: %q", c.model)
	}
}
