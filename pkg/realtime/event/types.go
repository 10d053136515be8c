// Package event defines the JSON wire protocol spoken over the realtime
// websocket: the typed client and server events listed in spec §6 of this
// project's realtime gateway design, and the codec that moves between JSON
// bytes and these types.
package event

// Type identifies a client- or server-originated event on the wire.
type Type string

// Client -> server event types.
const (
	TypeSessionUpdate            Type = "session.update"
	TypeInputAudioBufferAppend   Type = "input_audio_buffer.append"
	TypeInputAudioBufferCommit   Type = "input_audio_buffer.commit"
	TypeInputAudioBufferClear    Type = "input_audio_buffer.clear"
	TypeConversationItemCreate   Type = "conversation.item.create"
	TypeConversationItemTruncate Type = "conversation.item.truncate"
	TypeConversationItemDelete   Type = "conversation.item.delete"
	TypeResponseCreate           Type = "response.create"
	TypeResponseCancel           Type = "response.cancel"
)

// Server -> client event types.
const (
	TypeSessionCreated                                   Type = "session.created"
	TypeSessionUpdated                                    Type = "session.updated"
	TypeConversationItemCreated                           Type = "conversation.item.created"
	TypeConversationItemInputAudioTranscriptionCompleted  Type = "conversation.item.input_audio_transcription.completed"
	TypeConversationItemInputAudioTranscriptionFailed     Type = "conversation.item.input_audio_transcription.failed"
	TypeConversationItemTruncated                         Type = "conversation.item.truncated"
	TypeConversationItemDeleted                           Type = "conversation.item.deleted"
	TypeInputAudioBufferCommitted                         Type = "input_audio_buffer.committed"
	TypeInputAudioBufferCleared                           Type = "input_audio_buffer.cleared"
	TypeInputAudioBufferSpeechStarted                     Type = "input_audio_buffer.speech_started"
	TypeInputAudioBufferSpeechStopped                     Type = "input_audio_buffer.speech_stopped"
	TypeResponseCreated                                   Type = "response.created"
	TypeResponseOutputItemAdded                           Type = "response.output_item.added"
	TypeResponseContentPartAdded                          Type = "response.content_part.added"
	TypeResponseTextDelta                                 Type = "response.text.delta"
	TypeResponseTextDone                                  Type = "response.text.done"
	TypeResponseAudioTranscriptDelta                      Type = "response.audio_transcript.delta"
	TypeResponseAudioTranscriptDone                       Type = "response.audio_transcript.done"
	TypeResponseAudioDelta                                Type = "response.audio.delta"
	TypeResponseAudioDone                                 Type = "response.audio.done"
	TypeResponseFunctionCallArgumentsDelta                Type = "response.function_call_arguments.delta"
	TypeResponseFunctionCallArgumentsDone                 Type = "response.function_call_arguments.done"
	TypeResponseContentPartDone                           Type = "response.content_part.done"
	TypeResponseOutputItemDone                            Type = "response.output_item.done"
	TypeResponseDone                                      Type = "response.done"
	TypeResponseCancelled                                 Type = "response.cancelled"
	TypeResponseFailed                                    Type = "response.failed"
	TypeError                                             Type = "error"
)

// ErrorKind enumerates the error taxonomy of spec §7.
type ErrorKind string

const (
	ErrInvalidRequest        ErrorKind = "invalid_request"
	ErrInvalidItem            ErrorKind = "invalid_item"
	ErrItemNotFound           ErrorKind = "item_not_found"
	ErrItemReferenced         ErrorKind = "item_referenced"
	ErrResponseAlreadyActive  ErrorKind = "response_already_active"
	ErrUnsupportedIntent      ErrorKind = "unsupported_intent"
	ErrInputAudioBufferOverrun ErrorKind = "input_audio_buffer_overrun"
	ErrUpstreamUnavailable    ErrorKind = "upstream_unavailable"
	ErrUpstreamTimeout        ErrorKind = "upstream_timeout"
	ErrRateLimited            ErrorKind = "rate_limited"
	ErrInternal               ErrorKind = "internal"
)

// ContentPart is a single part of a message item's content, per spec §3.
type ContentPart struct {
	Type       string `json:"type"` // input_text | text | input_audio | audio
	Text       string `json:"text,omitempty"`
	Audio      string `json:"audio,omitempty"` // base64 PCM
	Transcript string `json:"transcript,omitempty"`
}

// Item mirrors a conversation.item payload on the wire. Conversation package
// owns the authoritative representation; this is the wire projection of it.
type Item struct {
	ID        string        `json:"id,omitempty"`
	Type      string        `json:"type"` // message | function_call | function_call_output
	Status    string        `json:"status,omitempty"`
	Role      string        `json:"role,omitempty"`
	Content   []ContentPart `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// Tool is a tool schema as carried in session configuration and response
// overrides (spec §3).
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// TurnDetection configures VAD-driven turn segmentation (spec §3).
type TurnDetection struct {
	Type        string  `json:"type"` // "none" | "server_vad"
	PrefixMs    int     `json:"prefix_ms,omitempty"`
	SilenceMs   int     `json:"silence_ms,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// InputAudioTranscription configures the STT stage for committed audio.
type InputAudioTranscription struct {
	Model    string `json:"model,omitempty"`
	Language string `json:"language,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// SessionConfig is the wire projection of the mutable session configuration
// (spec §3 table). Pointer fields distinguish "absent" from "zero value" so
// session.update can deep-merge correctly.
type SessionConfig struct {
	Instructions              *string                   `json:"instructions,omitempty"`
	Modalities                []string                  `json:"modalities,omitempty"`
	Voice                     *string                   `json:"voice,omitempty"`
	InputAudioFormat          *string                   `json:"input_audio_format,omitempty"`
	OutputAudioFormat         *string                   `json:"output_audio_format,omitempty"`
	InputAudioTranscription   *InputAudioTranscription  `json:"input_audio_transcription,omitempty"`
	TurnDetection             *TurnDetection             `json:"turn_detection,omitempty"`
	Tools                     []Tool                     `json:"tools,omitempty"`
	ToolChoice                *string                    `json:"tool_choice,omitempty"`
	Temperature               *float64                   `json:"temperature,omitempty"`
	MaxResponseOutputTokens   *string                    `json:"max_response_output_tokens,omitempty"` // number or "inf"
	Intent                    *string                    `json:"intent,omitempty"`
}

// Usage reports token accounting for a completed response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ErrorPayload is the body of the `error` server event.
type ErrorPayload struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Hint    string    `json:"hint,omitempty"`
}
