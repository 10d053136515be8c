package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// StreamComplete issues a streaming chat completion request (stream: true,
// stream_options.include_usage: true, grounded on
// original_source/src/speaches/realtime/chat_utils.py's
// create_completion_params) and invokes onDelta for every server-sent-event
// chunk the API returns.
func (l *OpenAILLM) StreamComplete(ctx context.Context, messages []conversation.ChatMessage, opts StreamOptions, onDelta func(Delta) error) error {
	payload := map[string]any{
		"model":    l.model,
		"messages": toOpenAIMessages(opts.Instructions, messages),
		"stream":   true,
		"stream_options": map[string]any{
			"include_usage": true,
		},
	}
	if opts.Temperature != 0 {
		payload["temperature"] = opts.Temperature
	}
	if opts.MaxTokens != nil {
		payload["max_tokens"] = *opts.MaxTokens
	}
	if len(opts.Tools) > 0 {
		payload["tools"] = toOpenAITools(opts.Tools)
		if opts.ToolChoice != "" {
			payload["tool_choice"] = opts.ToolChoice
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("openai llm stream error (status %d): %v", resp.StatusCode, errResp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		if chunk.Usage != nil {
			if err := onDelta(Delta{Usage: &Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
				TotalTokens:  chunk.Usage.TotalTokens,
			}}); err != nil {
				return err
			}
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			if err := onDelta(Delta{TextDelta: choice.Delta.Content}); err != nil {
				return err
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			if err := onDelta(Delta{ToolCall: &ToolCallDelta{
				Index:          tc.Index,
				ID:             tc.ID,
				Name:           tc.Function.Name,
				ArgumentsDelta: tc.Function.Arguments,
			}}); err != nil {
				return err
			}
		}
		if choice.FinishReason != "" {
			if err := onDelta(Delta{FinishReason: choice.FinishReason}); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

func toOpenAIMessages(instructions string, messages []conversation.ChatMessage) []map[string]any {
	out := make([]map[string]any, 0, len(messages)+1)
	if instructions != "" {
		out = append(out, map[string]any{"role": "system", "content": instructions})
	}
	for _, m := range messages {
		entry := map[string]any{"role": m.Role}
		if m.Content != "" || len(m.ToolCalls) == 0 {
			entry["content"] = m.Content
		}
		if m.ToolCallID != "" {
			entry["tool_call_id"] = m.ToolCallID
		}
		if len(m.ToolCalls) > 0 {
			calls := make([]map[string]any, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				calls[i] = map[string]any{
					"id":   tc.ID,
					"type": "function",
					"function": map[string]any{
						"name":      tc.Name,
						"arguments": tc.Arguments,
					},
				}
			}
			entry["tool_calls"] = calls
		}
		out = append(out, entry)
	}
	return out
}

func toOpenAITools(tools []event.Tool) []map[string]any {
	out := make([]map[string]any, len(tools))
	for i, t := range tools {
		out[i] = map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		}
	}
	return out
}
