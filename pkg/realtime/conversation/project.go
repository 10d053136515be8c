package conversation

// ChatMessage is one entry of the chat-completion history a response
// orchestrator sends to an LLMProvider. It generalizes
// pkg/orchestrator.Message (which only carries Role/Content) with the
// tool-call fields a function-call-capable conversation needs.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // set on assistant messages that made tool calls
	ToolCallID string     // set on "tool" role messages (function_call_output)
}

// ToolCall is one entry of ChatMessage.ToolCalls.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ProjectHistory turns the log's completed items into the chat history an
// LLM call is built from. It is a pure function of the item slice: no
// locking, no side effects.
//
// Grounded on original_source/src/speaches/realtime/chat_utils.py's
// items_to_chat_messages / conversation_item_to_chat_message: consecutive
// function_call items coalesce into a single assistant message carrying
// multiple ToolCalls (OpenAI's tool-call API shape requires this); items
// not in the "completed" status are skipped; an input_audio content part
// with no transcript yet is dropped rather than sent empty.
func ProjectHistory(items []Item) []ChatMessage {
	var messages []ChatMessage
	var pending []ToolCall

	flush := func() {
		if len(pending) == 0 {
			return
		}
		messages = append(messages, ChatMessage{Role: "assistant", ToolCalls: pending})
		pending = nil
	}

	for _, item := range items {
		if item.Type == ItemFunctionCall {
			if item.Status != StatusCompleted {
				continue
			}
			pending = append(pending, ToolCall{ID: item.CallID, Name: item.Name, Arguments: item.Arguments})
			continue
		}

		flush()

		if msg, ok := itemToChatMessage(item); ok {
			messages = append(messages, msg)
		}
	}
	flush()

	return messages
}

func itemToChatMessage(item Item) (ChatMessage, bool) {
	switch item.Type {
	case ItemMessage:
		if item.Status != StatusCompleted || len(item.Content) != 1 {
			return ChatMessage{}, false
		}
		part := item.Content[0]
		switch part.Type {
		case ContentText:
			if part.Text == "" {
				return ChatMessage{}, false
			}
			return ChatMessage{Role: "assistant", Content: part.Text}, true
		case ContentAudio:
			if part.Transcript == "" {
				return ChatMessage{}, false
			}
			return ChatMessage{Role: "assistant", Content: part.Transcript}, true
		case ContentInputText:
			if part.Text == "" {
				return ChatMessage{}, false
			}
			return ChatMessage{Role: "user", Content: part.Text}, true
		case ContentInputAudio:
			if part.Transcript == "" {
				return ChatMessage{}, false
			}
			return ChatMessage{Role: "user", Content: part.Transcript}, true
		}
		return ChatMessage{}, false
	case ItemFunctionCallOutput:
		if item.Status != StatusCompleted || item.CallID == "" {
			return ChatMessage{}, false
		}
		return ChatMessage{Role: "tool", Content: item.Output, ToolCallID: item.CallID}, true
	default:
		return ChatMessage{}, false
	}
}
