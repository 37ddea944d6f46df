// Package memory derives the sliding-window conversation excerpt that
// is injected into the generative prompt.
//
// Memory is a pure read-side derivation over the message store: every
// excerpt is computed fresh from persisted messages, so there is no
// cached state to update after a turn and nothing to invalidate.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adrianfhr/customer-support-chatbot/internal/store"
)

// DefaultMaxExchanges is the number of user+assistant pairs retained
// when no explicit window size is configured.
const DefaultMaxExchanges = 3

// NoHistorySentinel is rendered instead of a transcript when a session
// has no prior messages.
const NoHistorySentinel = "Tidak ada riwayat percakapan sebelumnya."

// Entry is one line of a memory excerpt.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageSource is the slice of the store the window reads from.
type MessageSource interface {
	RecentMessagesBefore(ctx context.Context, sessionID string, beforeTurn, limit int) ([]store.Message, error)
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
}

// Window derives bounded conversation excerpts for prompt injection.
type Window struct {
	source       MessageSource
	maxExchanges int
	logger       *slog.Logger
}

// NewWindow creates a window over the given message source.
// maxExchanges <= 0 falls back to DefaultMaxExchanges.
func NewWindow(source MessageSource, maxExchanges int, logger *slog.Logger) *Window {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &Window{
		source:       source,
		maxExchanges: maxExchanges,
		logger:       logger,
	}
}

// MaxExchanges reports the configured window size.
func (w *Window) MaxExchanges() int {
	return w.maxExchanges
}

// Excerpt returns up to 2×maxExchanges of the most recent messages for
// a session, oldest first. beforeTurn bounds the view: only messages
// with a strictly lower turn index are considered, which lets the
// orchestrator read the pre-insertion state after it has already
// written the current user message. Pass beforeTurn <= 0 for no bound.
func (w *Window) Excerpt(ctx context.Context, sessionID string, beforeTurn int) ([]Entry, error) {
	limit := 2 * w.maxExchanges

	msgs, err := w.source.RecentMessagesBefore(ctx, sessionID, beforeTurn, limit)
	if err != nil {
		return nil, fmt.Errorf("memory excerpt: %w", err)
	}

	// The store returns most-recent-first; flip to chronological.
	entries := make([]Entry, len(msgs))
	for i, m := range msgs {
		entries[len(msgs)-1-i] = Entry{Role: m.Role, Content: m.Content}
	}

	w.logger.Debug("memory excerpt derived",
		"session", sessionID,
		"entries", len(entries),
		"max_exchanges", w.maxExchanges,
	)
	return entries, nil
}

// FormatForPrompt renders an excerpt as a labeled transcript for the
// system prompt, or the no-history sentinel when the excerpt is empty.
func FormatForPrompt(entries []Entry) string {
	if len(entries) == 0 {
		return NoHistorySentinel
	}

	var b strings.Builder
	b.WriteString("Riwayat percakapan sebelumnya:")
	for _, e := range entries {
		label := "Asisten"
		if e.Role == store.RoleUser {
			label = "Pengguna"
		}
		b.WriteString("\n")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(e.Content)
	}
	return b.String()
}

// Clear deletes all messages for a session. Used for session reset,
// not part of the per-turn path.
func (w *Window) Clear(ctx context.Context, sessionID string) error {
	n, err := w.source.DeleteSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("clear memory: %w", err)
	}
	w.logger.Info("memory cleared", "session", sessionID, "deleted", n)
	return nil
}
