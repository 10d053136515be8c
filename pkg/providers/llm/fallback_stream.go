package llm

import (
	"context"

	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
)

// FallbackStreamer adapts any orchestrator.LLMProvider (a plain Complete
// call) into the StreamingProvider shape by delivering the whole response
// as a single text delta. Providers without a native streaming API
// (Anthropic, Google, Groq in this repo) run through this adapter so the
// response orchestrator never has to special-case non-streaming providers.
type FallbackStreamer struct {
	orchestrator.LLMProvider
}

func NewFallbackStreamer(p orchestrator.LLMProvider) *FallbackStreamer {
	return &FallbackStreamer{LLMProvider: p}
}

func (f *FallbackStreamer) StreamComplete(ctx context.Context, messages []conversation.ChatMessage, opts StreamOptions, onDelta func(Delta) error) error {
	text, err := f.Complete(ctx, toLegacyMessages(opts.Instructions, messages))
	if err != nil {
		return err
	}
	if err := onDelta(Delta{TextDelta: text}); err != nil {
		return err
	}
	return onDelta(Delta{FinishReason: "stop"})
}

func toLegacyMessages(instructions string, messages []conversation.ChatMessage) []orchestrator.Message {
	out := make([]orchestrator.Message, 0, len(messages)+1)
	if instructions != "" {
		out = append(out, orchestrator.Message{Role: "system", Content: instructions})
	}
	for _, m := range messages {
		if m.Role == "tool" {
			// Non-streaming legacy providers have no tool-result message
			// shape; fold the tool output into a user-visible note instead
			// of dropping it silently.
			out = append(out, orchestrator.Message{Role: "user", Content: "[tool result] " + m.Content})
			continue
		}
		out = append(out, orchestrator.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
