package event

// ClientEvent is implemented by every event a client may send on the socket.
type ClientEvent interface {
	ClientEventType() Type
	ClientEventID() string
}

type baseClient struct {
	Type    Type   `json:"type"`
	EventID string `json:"event_id,omitempty"`
}

func (b baseClient) ClientEventType() Type { return b.Type }
func (b baseClient) ClientEventID() string { return b.EventID }

// SessionUpdate is the `session.update` client event.
type SessionUpdate struct {
	baseClient
	Session SessionConfig `json:"session"`
}

// InputAudioBufferAppend is the `input_audio_buffer.append` client event.
type InputAudioBufferAppend struct {
	baseClient
	Audio string `json:"audio"` // base64 PCM
}

// InputAudioBufferCommit is the `input_audio_buffer.commit` client event.
type InputAudioBufferCommit struct {
	baseClient
}

// InputAudioBufferClear is the `input_audio_buffer.clear` client event.
type InputAudioBufferClear struct {
	baseClient
}

// ConversationItemCreate is the `conversation.item.create` client event.
type ConversationItemCreate struct {
	baseClient
	PreviousItemID string `json:"previous_item_id,omitempty"`
	Item           Item   `json:"item"`
}

// ConversationItemTruncate is the `conversation.item.truncate` client event.
type ConversationItemTruncate struct {
	baseClient
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int    `json:"audio_end_ms"`
}

// ConversationItemDelete is the `conversation.item.delete` client event.
type ConversationItemDelete struct {
	baseClient
	ItemID string `json:"item_id"`
}

// ResponseCreateOverrides carries the per-response overrides of §4 (Open
// Question (a)): they apply to the triggered response only and never mutate
// session state.
type ResponseCreateOverrides struct {
	Instructions            *string  `json:"instructions,omitempty"`
	Modalities              []string `json:"modalities,omitempty"`
	Voice                   *string  `json:"voice,omitempty"`
	Tools                   []Tool   `json:"tools,omitempty"`
	ToolChoice              *string  `json:"tool_choice,omitempty"`
	Temperature             *float64 `json:"temperature,omitempty"`
	MaxResponseOutputTokens *string  `json:"max_response_output_tokens,omitempty"`
}

// ResponseCreate is the `response.create` client event.
type ResponseCreate struct {
	baseClient
	Response *ResponseCreateOverrides `json:"response,omitempty"`
}

// ResponseCancel is the `response.cancel` client event.
type ResponseCancel struct {
	baseClient
	ResponseID string `json:"response_id,omitempty"`
}
