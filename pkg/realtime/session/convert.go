package session

import (
	"encoding/base64"

	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

func wireItemToLog(wire event.Item) conversation.Item {
	it := conversation.Item{
		ID: wire.ID, Type: conversation.ItemType(wire.Type), Status: conversation.ItemStatus(wire.Status),
		Role: conversation.Role(wire.Role), CallID: wire.CallID, Name: wire.Name, Arguments: wire.Arguments, Output: wire.Output,
	}
	for _, c := range wire.Content {
		part := conversation.ContentPart{Type: conversation.ContentType(c.Type), Text: c.Text, Transcript: c.Transcript}
		if c.Audio != "" {
			if raw, err := base64.StdEncoding.DecodeString(c.Audio); err == nil {
				part.Audio = raw
			}
		}
		it.Content = append(it.Content, part)
	}
	return it
}

func logItemToWire(it conversation.Item) event.Item {
	wire := event.Item{
		ID: it.ID, Type: string(it.Type), Status: string(it.Status), Role: string(it.Role),
		CallID: it.CallID, Name: it.Name, Arguments: it.Arguments, Output: it.Output,
	}
	for _, c := range it.Content {
		part := event.ContentPart{Type: string(c.Type), Text: c.Text, Transcript: c.Transcript}
		if len(c.Audio) > 0 {
			part.Audio = base64.StdEncoding.EncodeToString(c.Audio)
		}
		wire.Content = append(wire.Content, part)
	}
	return wire
}
