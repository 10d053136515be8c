// Package conversation implements the ordered, append-only conversation log
// each realtime session keeps: the record of every message, tool call, and
// tool result exchanged in the session, plus the pure projection of that log
// into the chat-completion history a response orchestrator sends upstream.
package conversation

// ItemType mirrors the three item kinds a realtime conversation log holds.
type ItemType string

const (
	ItemMessage           ItemType = "message"
	ItemFunctionCall       ItemType = "function_call"
	ItemFunctionCallOutput ItemType = "function_call_output"
)

// ItemStatus tracks an item's lifecycle. Only "completed" items are eligible
// for projection into chat history.
type ItemStatus string

const (
	StatusInProgress ItemStatus = "in_progress"
	StatusCompleted  ItemStatus = "completed"
	StatusIncomplete ItemStatus = "incomplete"
)

// ContentType enumerates the part kinds a message item's content may carry.
type ContentType string

const (
	ContentInputText  ContentType = "input_text"
	ContentText       ContentType = "text"
	ContentInputAudio ContentType = "input_audio"
	ContentAudio      ContentType = "audio"
)

// ContentPart is one part of a message item's content array. Message items
// carry exactly one part in this gateway (spec invariant).
type ContentPart struct {
	Type       ContentType
	Text       string
	Audio      []byte // raw PCM16, already decoded from the wire's base64
	Transcript string
}

// Role distinguishes user-authored from assistant-authored message items.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Item is one entry in the conversation log. Not every field applies to
// every Type: Role/Content apply to "message", CallID/Name/Arguments to
// "function_call", CallID/Output to "function_call_output".
type Item struct {
	ID        string
	Type      ItemType
	Status    ItemStatus
	Role      Role
	Content   []ContentPart
	CallID    string
	Name      string
	Arguments string
	Output    string
}

func (i Item) clone() Item {
	c := i
	if i.Content != nil {
		c.Content = append([]ContentPart(nil), i.Content...)
	}
	return c
}
