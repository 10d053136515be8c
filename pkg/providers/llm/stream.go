package llm

import (
	"context"

	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

// StreamOptions carries the per-response generation parameters a response
// orchestrator resolves from session config plus any response.create
// overrides (spec §9 Open Question (a); grounded on
// original_source/src/speaches/realtime/chat_utils.py's
// create_completion_params, which builds these from a Response object
// distinct from session state).
type StreamOptions struct {
	Instructions string
	Tools        []event.Tool
	ToolChoice   string
	Temperature  float64
	MaxTokens    *int // nil means unlimited ("inf")
}

// ToolCallDelta is one incremental update to a tool call the model is in
// the middle of emitting. Index selects which concurrent tool call (models
// can emit several in parallel) this delta belongs to.
type ToolCallDelta struct {
	Index          int
	ID             string
	Name           string
	ArgumentsDelta string
}

// Usage reports token accounting for a completed stream.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Delta is one incremental update from a streaming completion. Exactly one
// of TextDelta/ToolCall is meaningful per delta; Usage and FinishReason are
// only set on the terminal delta.
type Delta struct {
	TextDelta    string
	ToolCall     *ToolCallDelta
	FinishReason string // "stop" | "tool_calls" | "length" | ""
	Usage        *Usage
}

// StreamingProvider is implemented by LLM providers capable of incremental
// completion. Providers that can't stream natively are wrapped in
// FallbackStreamer, which synthesizes a single-delta "stream" from a normal
// Complete call.
type StreamingProvider interface {
	StreamComplete(ctx context.Context, messages []conversation.ChatMessage, opts StreamOptions, onDelta func(Delta) error) error
	Name() string
}
