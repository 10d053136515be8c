package event

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// typeSniff pulls just the `type` discriminator out of a raw client message
// without committing to a concrete struct.
type typeSniff struct {
	Type Type `json:"type"`
}

// Decode parses a raw client-event message into its concrete type. An
// unrecognized `type` yields an `invalid_request`-kind error so the caller
// can turn it directly into an `error` server event.
func Decode(raw []byte) (ClientEvent, error) {
	var sniff typeSniff
	if err := json.Unmarshal(raw, &sniff); err != nil {
		return nil, &DecodeError{Kind: ErrInvalidRequest, Err: err}
	}

	var ev ClientEvent
	switch sniff.Type {
	case TypeSessionUpdate:
		ev = &SessionUpdate{}
	case TypeInputAudioBufferAppend:
		ev = &InputAudioBufferAppend{}
	case TypeInputAudioBufferCommit:
		ev = &InputAudioBufferCommit{}
	case TypeInputAudioBufferClear:
		ev = &InputAudioBufferClear{}
	case TypeConversationItemCreate:
		ev = &ConversationItemCreate{}
	case TypeConversationItemTruncate:
		ev = &ConversationItemTruncate{}
	case TypeConversationItemDelete:
		ev = &ConversationItemDelete{}
	case TypeResponseCreate:
		ev = &ResponseCreate{}
	case TypeResponseCancel:
		ev = &ResponseCancel{}
	default:
		return nil, &DecodeError{Kind: ErrInvalidRequest, Err: fmt.Errorf("unknown event type %q", sniff.Type)}
	}

	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, &DecodeError{Kind: ErrInvalidRequest, Err: err}
	}
	return ev, nil
}

// Encode serializes a server event to JSON, minting an event_id via uuid if
// the caller left one unset.
func Encode(ev ServerEvent) ([]byte, error) {
	if ev.ServerEventID() == "" {
		ev.setServerEventID(uuid.NewString())
	}
	return json.Marshal(ev)
}

// DecodeError wraps a Decode failure with the error kind it should surface
// as on the wire.
type DecodeError struct {
	Kind ErrorKind
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("event: decode: %s: %v", e.Kind, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }
