// Package chat orchestrates one conversational turn: persist the user
// message, derive the memory excerpt, dispatch at most one tool, and
// synthesize the final reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adrianfhr/customer-support-chatbot/internal/llm"
	"github.com/adrianfhr/customer-support-chatbot/internal/memory"
	"github.com/adrianfhr/customer-support-chatbot/internal/prompts"
	"github.com/adrianfhr/customer-support-chatbot/internal/store"
	"github.com/adrianfhr/customer-support-chatbot/internal/tools"
)

// MaxMessageLength caps a user message, counted in runes.
const MaxMessageLength = 4000

// Validation and processing errors surfaced to the transport layer.
var (
	ErrEmptySession   = errors.New("session id must not be empty")
	ErrEmptyMessage   = errors.New("message must not be empty")
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", MaxMessageLength)

	// ErrProcessing wraps persistence failures during a turn. Generation
	// failures never produce it; they degrade to the fallback reply.
	ErrProcessing = errors.New("failed to process message")
)

// Result is the outcome of one processed turn.
type Result struct {
	Reply     string
	SessionID string
	TurnIndex int
	ToolCalls []string
	Timestamp time.Time
}

// Service runs the turn pipeline.
type Service struct {
	store      *store.Store
	window     *memory.Window
	dispatcher *tools.Dispatcher
	client     llm.Client
	logger     *slog.Logger
}

// NewService wires the turn pipeline together.
func NewService(st *store.Store, window *memory.Window, dispatcher *tools.Dispatcher, client llm.Client, logger *slog.Logger) *Service {
	return &Service{
		store:      st,
		window:     window,
		dispatcher: dispatcher,
		client:     client,
		logger:     logger,
	}
}

// ProcessMessage runs one full turn for a session. The user message is
// persisted before anything else; the reply is persisted under the same
// turn index before returning. Persistence failures return
// ErrProcessing, generation failures degrade to the scripted fallback.
func (s *Service) ProcessMessage(ctx context.Context, sessionID, userMessage string) (*Result, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySession
	}
	if strings.TrimSpace(userMessage) == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(userMessage) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	s.logger.Info("processing message",
		"session", sessionID,
		"message_preview", preview(userMessage),
	)

	userMsg, err := s.store.AppendUserTurn(ctx, sessionID, userMessage)
	if err != nil {
		s.logger.Error("failed to persist user message", "session", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}
	turnIndex := userMsg.TurnIndex

	// Memory reflects the conversation before this turn.
	excerpt, err := s.window.Excerpt(ctx, sessionID, turnIndex)
	if err != nil {
		s.logger.Error("failed to derive memory", "session", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	reply, toolCalls := s.synthesize(ctx, userMessage, excerpt)

	assistantMsg, err := s.store.AppendAssistantTurn(ctx, sessionID, reply, turnIndex)
	if err != nil {
		s.logger.Error("failed to persist reply", "session", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	s.logger.Info("message processed",
		"session", sessionID,
		"turn_index", turnIndex,
		"tool_calls", toolCalls,
	)

	return &Result{
		Reply:     reply,
		SessionID: sessionID,
		TurnIndex: turnIndex,
		ToolCalls: toolCalls,
		Timestamp: assistantMsg.CreatedAt,
	}, nil
}

// synthesize produces the reply text for a turn. A matched tool short-
// circuits generation; otherwise the model is prompted with the memory
// excerpt, degrading to the scripted fallback on any generation error.
// Either way the reply leaves with a closing summary line.
func (s *Service) synthesize(ctx context.Context, userMessage string, excerpt []memory.Entry) (string, []string) {
	if res := s.dispatcher.Dispatch(ctx, userMessage); res != nil {
		return ensureSummary(res.Output, toolSummary(res.Tool)), []string{res.Tool}
	}

	systemPrompt := prompts.SystemPrompt(userMessage, memory.FormatForPrompt(excerpt))

	reply, err := s.client.Generate(ctx, systemPrompt, userMessage)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			s.logger.Warn("generation failed, using fallback", "error", err)
		}
		reply = prompts.Fallback
	}
	return ensureSummary(reply, prompts.GenericSummary), []string{}
}

// toolSummary picks the canned summary line for a tool's output.
func toolSummary(tool string) string {
	switch tool {
	case tools.ToolOrderStatus:
		return prompts.OrderSummary
	case tools.ToolProductInfo:
		return prompts.ProductSummary
	case tools.ToolWarrantyPolicy:
		return prompts.WarrantySummary
	default:
		return prompts.GenericSummary
	}
}

// ensureSummary guarantees the closing summary invariant: the final
// non-empty line of every reply starts with the summary prefix. Replies
// already carrying one pass through untouched.
func ensureSummary(reply, summary string) string {
	if hasClosingSummary(reply) {
		return reply
	}
	return strings.TrimRight(reply, "\n ") + "\n\n" + summary
}

func hasClosingSummary(reply string) bool {
	lines := strings.Split(reply, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		return strings.HasPrefix(line, prompts.SummaryPrefix)
	}
	return false
}

// preview truncates a message for log lines, on a rune boundary so
// multi-byte text stays valid UTF-8.
func preview(s string) string {
	const max = 50
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
