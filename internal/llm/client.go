// Package llm provides the generative backend client used on the
// non-tool path of the chat pipeline.
package llm

import "context"

// Client is the interface a generative backend must implement.
type Client interface {
	// Generate produces a conversational reply from a system prompt and
	// the current user message.
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error
}
