package event

import "fmt"

// ProtocolError is the common error currency between the conversation,
// audiobuf, response, and session packages and the transport layer: it
// carries enough to build an `error` server event (spec §7) without any of
// those packages needing to know about the wire format directly.
type ProtocolError struct {
	Kind    ErrorKind
	Message string
	// EventID is the client event that triggered this error, when known.
	EventID string
}

func (e *ProtocolError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("%s: %s (event %s)", e.Kind, e.Message, e.EventID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewProtocolError builds a ProtocolError for the given kind.
func NewProtocolError(kind ErrorKind, format string, args ...any) *ProtocolError {
	return &ProtocolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithEventID returns a copy of the error tagged with the triggering event id.
func (e *ProtocolError) WithEventID(id string) *ProtocolError {
	c := *e
	c.EventID = id
	return &c
}

// ToErrorPayload converts the error into the wire payload of an `error`
// server event.
func (e *ProtocolError) ToErrorPayload() ErrorPayload {
	return ErrorPayload{Kind: e.Kind, Message: e.Message}
}
