// Package api implements the HTTP API for the customer support chatbot.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/adrianfhr/customer-support-chatbot/internal/buildinfo"
	"github.com/adrianfhr/customer-support-chatbot/internal/chat"
	"github.com/adrianfhr/customer-support-chatbot/internal/llm"
	"github.com/adrianfhr/customer-support-chatbot/internal/memory"
	"github.com/adrianfhr/customer-support-chatbot/internal/store"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	svc     *chat.Service
	store   *store.Store
	window  *memory.Window
	client  llm.Client
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server.
func NewServer(address string, port int, svc *chat.Service, st *store.Store, window *memory.Window, client llm.Client, logger *slog.Logger) *Server {
	return &Server{
		address: address,
		port:    port,
		svc:     svc,
		store:   st,
		window:  window,
		client:  client,
		logger:  logger,
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("GET /v1/sessions/{id}/messages", s.handleSessionMessages)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleSessionDelete)

	mux.HandleFunc("POST /v1/orders/seed", s.handleSeedOrders)
	mux.HandleFunc("POST /v1/products/seed", s.handleSeedProducts)
	mux.HandleFunc("POST /v1/policies/seed", s.handleSeedPolicies)

	mux.HandleFunc("GET /v1/policies/{type}", s.handlePolicy)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": message}, s.logger)
}

// ChatRequest is the request body for POST /v1/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the response body for POST /v1/chat.
type ChatResponse struct {
	Message   string    `json:"message"`
	SessionID string    `json:"session_id"`
	TurnIndex int       `json:"turn_index"`
	ToolCalls []string  `json:"tool_calls"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A request without a session starts a fresh one.
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = uuid.New().String()
	}

	res, err := s.svc.ProcessMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptySession), errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
			s.errorResponse(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("chat turn failed", "session", req.SessionID, "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ChatResponse{
		Message:   res.Reply,
		SessionID: res.SessionID,
		TurnIndex: res.TurnIndex,
		ToolCalls: res.ToolCalls,
		Timestamp: res.Timestamp,
	}, s.logger)
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	msgs, err := s.store.SessionMessages(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("failed to load session messages", "session", sessionID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"session_id": sessionID,
		"messages":   msgs,
		"count":      len(msgs),
	}, s.logger)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	if err := s.window.Clear(r.Context(), sessionID); err != nil {
		s.logger.Error("failed to clear session", "session", sessionID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to clear session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"session_id": sessionID,
		"status":     "cleared",
	}, s.logger)
}

func (s *Server) handleSeedOrders(w http.ResponseWriter, r *http.Request) {
	var orders []store.Order
	if err := json.NewDecoder(r.Body).Decode(&orders); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SeedOrders(r.Context(), orders); err != nil {
		s.logger.Error("failed to seed orders", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to seed orders")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"status": "ok", "seeded": len(orders)}, s.logger)
}

func (s *Server) handleSeedProducts(w http.ResponseWriter, r *http.Request) {
	var products []store.Product
	if err := json.NewDecoder(r.Body).Decode(&products); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SeedProducts(r.Context(), products); err != nil {
		s.logger.Error("failed to seed products", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to seed products")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"status": "ok", "seeded": len(products)}, s.logger)
}

func (s *Server) handleSeedPolicies(w http.ResponseWriter, r *http.Request) {
	var policies []store.Policy
	if err := json.NewDecoder(r.Body).Decode(&policies); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SeedPolicies(r.Context(), policies); err != nil {
		s.logger.Error("failed to seed policies", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to seed policies")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"status": "ok", "seeded": len(policies)}, s.logger)
}

// handlePolicy serves a stored policy as raw markdown metadata, or as
// rendered HTML when ?format=html is requested.
func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	policyType := r.PathValue("type")

	policy, err := s.store.GetPolicy(r.Context(), policyType)
	if err != nil {
		s.logger.Error("failed to load policy", "type", policyType, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load policy")
		return
	}
	if policy == nil {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("policy %q not found", policyType))
		return
	}

	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(policy.ContentMarkdown), &buf); err != nil {
			s.logger.Error("failed to render policy", "type", policyType, "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "failed to render policy")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, policy, s.logger)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to collect stats", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}
	stats["version"] = buildinfo.Version
	stats["uptime"] = buildinfo.Uptime().String()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

// handleHealth reports liveness plus the reachability of the generative
// backend. An unreachable backend degrades service (fallback replies)
// but does not make the process unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ollama := "ok"
	if s.client != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.client.Ping(ctx); err != nil {
			ollama = "unreachable"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"status": "healthy",
		"ollama": ollama,
	}, s.logger)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "customer-support-chatbot",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}
