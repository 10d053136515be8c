package event

// ServerEvent is implemented by every event the gateway emits on the socket.
type ServerEvent interface {
	ServerEventType() Type
	ServerEventID() string
	setServerEventID(id string)
}

type baseServer struct {
	Type    Type   `json:"type"`
	EventID string `json:"event_id,omitempty"`
}

func (b *baseServer) ServerEventType() Type      { return b.Type }
func (b *baseServer) ServerEventID() string      { return b.EventID }
func (b *baseServer) setServerEventID(id string) { b.EventID = id }

func newBase(t Type) baseServer { return baseServer{Type: t} }

// SessionCreated is emitted once on entering the `open` state (spec §4.5).
type SessionCreated struct {
	baseServer
	SessionID string        `json:"session_id"`
	Session   SessionConfig `json:"session"`
}

func NewSessionCreated(sessionID string, cfg SessionConfig) *SessionCreated {
	return &SessionCreated{baseServer: newBase(TypeSessionCreated), SessionID: sessionID, Session: cfg}
}

// SessionUpdated acknowledges a `session.update` with the full merged config.
type SessionUpdated struct {
	baseServer
	SessionID string        `json:"session_id"`
	Session   SessionConfig `json:"session"`
}

func NewSessionUpdated(sessionID string, cfg SessionConfig) *SessionUpdated {
	return &SessionUpdated{baseServer: newBase(TypeSessionUpdated), SessionID: sessionID, Session: cfg}
}

// ConversationItemCreated acknowledges conversation log appends, whether
// client-initiated or produced by the input-audio-buffer commit / response
// pipeline.
type ConversationItemCreated struct {
	baseServer
	PreviousItemID string `json:"previous_item_id,omitempty"`
	Item           Item   `json:"item"`
}

func NewConversationItemCreated(previousItemID string, item Item) *ConversationItemCreated {
	return &ConversationItemCreated{baseServer: newBase(TypeConversationItemCreated), PreviousItemID: previousItemID, Item: item}
}

// ConversationItemInputAudioTranscriptionCompleted reports a successful STT
// pass over a committed audio region.
type ConversationItemInputAudioTranscriptionCompleted struct {
	baseServer
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	Transcript   string `json:"transcript"`
}

// ConversationItemInputAudioTranscriptionFailed reports a failed STT pass.
type ConversationItemInputAudioTranscriptionFailed struct {
	baseServer
	ItemID       string       `json:"item_id"`
	ContentIndex int          `json:"content_index"`
	Error        ErrorPayload `json:"error"`
}

// ConversationItemTruncated acknowledges a truncate.
type ConversationItemTruncated struct {
	baseServer
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int    `json:"audio_end_ms"`
}

// ConversationItemDeleted acknowledges a delete.
type ConversationItemDeleted struct {
	baseServer
	ItemID string `json:"item_id"`
}

// InputAudioBufferCommitted acknowledges a commit and names the synthetic
// user-message item it created.
type InputAudioBufferCommitted struct {
	baseServer
	PreviousItemID string `json:"previous_item_id,omitempty"`
	ItemID         string `json:"item_id"`
}

// InputAudioBufferCleared acknowledges a clear.
type InputAudioBufferCleared struct {
	baseServer
}

// InputAudioBufferSpeechStarted reports a VAD rising edge.
type InputAudioBufferSpeechStarted struct {
	baseServer
	ItemID      string `json:"item_id,omitempty"`
	AudioStartMs int64 `json:"audio_start_ms"`
}

// InputAudioBufferSpeechStopped reports a VAD falling edge.
type InputAudioBufferSpeechStopped struct {
	baseServer
	ItemID    string `json:"item_id,omitempty"`
	AudioEndMs int64 `json:"audio_end_ms"`
}

// Response is the wire snapshot of an active or terminal response.
type Response struct {
	ID     string `json:"id"`
	Status string `json:"status"` // in_progress | completed | cancelled | failed
	Output []Item `json:"output,omitempty"`
	Usage  *Usage `json:"usage,omitempty"`
	Error  *ErrorPayload `json:"error,omitempty"`
}

// ResponseCreated opens a response's event sequence (spec §5 ordering
// guarantees: always first).
type ResponseCreated struct {
	baseServer
	Response Response `json:"response"`
}

func NewResponseCreated(r Response) *ResponseCreated {
	return &ResponseCreated{baseServer: newBase(TypeResponseCreated), Response: r}
}

// ResponseOutputItemAdded announces a new in-progress output item.
type ResponseOutputItemAdded struct {
	baseServer
	ResponseID  string `json:"response_id"`
	OutputIndex int    `json:"output_index"`
	Item        Item   `json:"item"`
}

func NewResponseOutputItemAdded(responseID string, item Item) *ResponseOutputItemAdded {
	return &ResponseOutputItemAdded{baseServer: newBase(TypeResponseOutputItemAdded), ResponseID: responseID, Item: item}
}

// ResponseContentPartAdded announces a new content part on an output item.
type ResponseContentPartAdded struct {
	baseServer
	ResponseID   string      `json:"response_id"`
	ItemID       string      `json:"item_id"`
	OutputIndex  int         `json:"output_index"`
	ContentIndex int         `json:"content_index"`
	Part         ContentPart `json:"part"`
}

func NewResponseContentPartAdded(responseID, itemID string, contentIndex int, part ContentPart) *ResponseContentPartAdded {
	return &ResponseContentPartAdded{baseServer: newBase(TypeResponseContentPartAdded), ResponseID: responseID, ItemID: itemID, ContentIndex: contentIndex, Part: part}
}

// ResponseTextDelta carries one text-modality delta.
type ResponseTextDelta struct {
	baseServer
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

func NewResponseTextDelta(responseID, itemID, delta string) *ResponseTextDelta {
	return &ResponseTextDelta{baseServer: newBase(TypeResponseTextDelta), ResponseID: responseID, ItemID: itemID, Delta: delta}
}

// ResponseTextDone finalizes a text content part.
type ResponseTextDone struct {
	baseServer
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Text         string `json:"text"`
}

func NewResponseTextDone(responseID, itemID, text string) *ResponseTextDone {
	return &ResponseTextDone{baseServer: newBase(TypeResponseTextDone), ResponseID: responseID, ItemID: itemID, Text: text}
}

// ResponseAudioTranscriptDelta carries one spoken-transcript delta for the
// audio modality.
type ResponseAudioTranscriptDelta struct {
	baseServer
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

func NewResponseAudioTranscriptDelta(responseID, itemID, delta string) *ResponseAudioTranscriptDelta {
	return &ResponseAudioTranscriptDelta{baseServer: newBase(TypeResponseAudioTranscriptDelta), ResponseID: responseID, ItemID: itemID, Delta: delta}
}

// ResponseAudioTranscriptDone finalizes the spoken transcript.
type ResponseAudioTranscriptDone struct {
	baseServer
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Transcript   string `json:"transcript"`
}

func NewResponseAudioTranscriptDone(responseID, itemID, transcript string) *ResponseAudioTranscriptDone {
	return &ResponseAudioTranscriptDone{baseServer: newBase(TypeResponseAudioTranscriptDone), ResponseID: responseID, ItemID: itemID, Transcript: transcript}
}

// ResponseAudioDelta carries one base64 PCM audio chunk.
type ResponseAudioDelta struct {
	baseServer
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"` // base64 PCM
}

func NewResponseAudioDelta(responseID, itemID, delta string) *ResponseAudioDelta {
	return &ResponseAudioDelta{baseServer: newBase(TypeResponseAudioDelta), ResponseID: responseID, ItemID: itemID, Delta: delta}
}

// ResponseAudioDone finalizes an audio content part.
type ResponseAudioDone struct {
	baseServer
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
}

func NewResponseAudioDone(responseID, itemID string) *ResponseAudioDone {
	return &ResponseAudioDone{baseServer: newBase(TypeResponseAudioDone), ResponseID: responseID, ItemID: itemID}
}

// ResponseFunctionCallArgumentsDelta carries one partial tool-call-arguments
// delta.
type ResponseFunctionCallArgumentsDelta struct {
	baseServer
	ResponseID  string `json:"response_id"`
	ItemID      string `json:"item_id"`
	OutputIndex int    `json:"output_index"`
	CallID      string `json:"call_id"`
	Delta       string `json:"delta"`
}

func NewResponseFunctionCallArgumentsDelta(responseID, itemID, callID, delta string) *ResponseFunctionCallArgumentsDelta {
	return &ResponseFunctionCallArgumentsDelta{baseServer: newBase(TypeResponseFunctionCallArgumentsDelta), ResponseID: responseID, ItemID: itemID, CallID: callID, Delta: delta}
}

// ResponseFunctionCallArgumentsDone finalizes a tool call's arguments.
type ResponseFunctionCallArgumentsDone struct {
	baseServer
	ResponseID  string `json:"response_id"`
	ItemID      string `json:"item_id"`
	OutputIndex int    `json:"output_index"`
	CallID      string `json:"call_id"`
	Name        string `json:"name"`
	Arguments   string `json:"arguments"`
}

func NewResponseFunctionCallArgumentsDone(responseID, itemID, callID, name, arguments string) *ResponseFunctionCallArgumentsDone {
	return &ResponseFunctionCallArgumentsDone{baseServer: newBase(TypeResponseFunctionCallArgumentsDone), ResponseID: responseID, ItemID: itemID, CallID: callID, Name: name, Arguments: arguments}
}

// ResponseContentPartDone finalizes any content part.
type ResponseContentPartDone struct {
	baseServer
	ResponseID   string      `json:"response_id"`
	ItemID       string      `json:"item_id"`
	OutputIndex  int         `json:"output_index"`
	ContentIndex int         `json:"content_index"`
	Part         ContentPart `json:"part"`
}

func NewResponseContentPartDone(responseID, itemID string, part ContentPart) *ResponseContentPartDone {
	return &ResponseContentPartDone{baseServer: newBase(TypeResponseContentPartDone), ResponseID: responseID, ItemID: itemID, Part: part}
}

// ResponseOutputItemDone finalizes an output item.
type ResponseOutputItemDone struct {
	baseServer
	ResponseID  string `json:"response_id"`
	OutputIndex int    `json:"output_index"`
	Item        Item   `json:"item"`
}

func NewResponseOutputItemDone(responseID string, item Item) *ResponseOutputItemDone {
	return &ResponseOutputItemDone{baseServer: newBase(TypeResponseOutputItemDone), ResponseID: responseID, Item: item}
}

// ResponseDone is always the last event of a successfully completed response.
type ResponseDone struct {
	baseServer
	Response Response `json:"response"`
}

func NewResponseDone(r Response) *ResponseDone {
	return &ResponseDone{baseServer: newBase(TypeResponseDone), Response: r}
}

// ResponseCancelled is the terminal event for a cancelled response.
type ResponseCancelled struct {
	baseServer
	Response Response `json:"response"`
}

func NewResponseCancelled(r Response) *ResponseCancelled {
	return &ResponseCancelled{baseServer: newBase(TypeResponseCancelled), Response: r}
}

// ResponseFailed is the terminal event for a response that errored upstream.
type ResponseFailed struct {
	baseServer
	Response Response `json:"response"`
}

func NewResponseFailed(r Response) *ResponseFailed {
	return &ResponseFailed{baseServer: newBase(TypeResponseFailed), Response: r}
}

// Error is emitted for any event-handling error; ClientEventID, when known,
// lets the client correlate it to the offending request (spec §7).
type Error struct {
	baseServer
	ClientEventID string       `json:"client_event_id,omitempty"`
	Error         ErrorPayload `json:"error"`
}

func NewError(clientEventID string, kind ErrorKind, message string) *Error {
	return &Error{
		baseServer:    newBase(TypeError),
		ClientEventID: clientEventID,
		Error:         ErrorPayload{Kind: kind, Message: message},
	}
}
