// Package llm provides a provider-agnostic interface for LLM backends.
// Every provider normalizes its reply into a Decision: either a direct
// answer or a request to call exactly one tool.
package llm

import (
	"context"
	"net/http"
)

// Sampling defaults shared by all backends.
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// EmbeddedResultPrefix introduces a tool result when the exchange is
// rendered as plain text for the embedded protocol.
const EmbeddedResultPrefix = "函数返回结果: "

// Client is the interface the agent uses to talk to one LLM backend.
// Implementations exist for DeepSeek, Qwen (DashScope), and Anthropic.
type Client interface {
	// Name identifies the backend, e.g. "deepseek" or "qwen".
	Name() string

	// Decide sends the conversation plus tool definitions and normalizes
	// the reply. Unreachable or rejecting backends return a
	// BackendUnavailableError; a tool request that cannot be parsed
	// returns ErrUnparseableToolCall.
	Decide(ctx context.Context, history []Message, tools []ToolDef) (*Decision, error)

	// Finalize sends the conversation including the tool exchange and
	// returns the model's synthesized answer text.
	Finalize(ctx context.Context, history []Message) (string, error)
}

// unavailableStatus reports whether an HTTP status means the backend cannot
// serve requests right now: auth rejections, quota or rate limits, and
// server errors. Other statuses indicate a caller bug and do not justify a
// backend switch.
func unavailableStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusPaymentRequired,
		http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}
