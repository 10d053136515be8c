package conversation

import (
	"testing"

	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

func userMsg(text string) Item {
	return Item{
		Type:    ItemMessage,
		Status:  StatusCompleted,
		Role:    RoleUser,
		Content: []ContentPart{{Type: ContentInputText, Text: text}},
	}
}

func TestLogAppendAssignsID(t *testing.T) {
	log := NewLog()
	item, err := log.Append(userMsg("hi"), "")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if item.ID == "" {
		t.Error("Append() did not assign an id")
	}
	if len(log.Items()) != 1 {
		t.Fatalf("len(Items()) = %d, want 1", len(log.Items()))
	}
}

func TestLogAppendAfterPrevious(t *testing.T) {
	log := NewLog()
	first, _ := log.Append(userMsg("first"), "")
	_, _ = log.Append(userMsg("third"), "")
	second, err := log.Append(userMsg("second"), first.ID)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	items := log.Items()
	if items[1].ID != second.ID {
		t.Errorf("expected second item inserted right after first, got order %v", idsOf(items))
	}
}

func TestLogAppendUnknownPreviousItem(t *testing.T) {
	log := NewLog()
	_, err := log.Append(userMsg("hi"), "item_missing")
	assertProtocolErrKind(t, err, event.ErrItemNotFound)
}

func TestLogAppendRejectsMultiPartMessage(t *testing.T) {
	log := NewLog()
	item := userMsg("hi")
	item.Content = append(item.Content, ContentPart{Type: ContentInputText, Text: "again"})
	_, err := log.Append(item, "")
	assertProtocolErrKind(t, err, event.ErrInvalidItem)
}

func TestLogDeleteReferencedFunctionCallRejected(t *testing.T) {
	log := NewLog()
	call, _ := log.Append(Item{Type: ItemFunctionCall, Status: StatusCompleted, CallID: "call_1", Name: "lookup", Arguments: "{}"}, "")
	_, _ = log.Append(Item{Type: ItemFunctionCallOutput, CallID: "call_1", Output: "42"}, "")

	err := log.Delete(call.ID)
	assertProtocolErrKind(t, err, event.ErrItemReferenced)
}

func TestLogAppendFunctionCallOutputUnknownCallIDRejected(t *testing.T) {
	log := NewLog()
	_, err := log.Append(Item{Type: ItemFunctionCallOutput, CallID: "call_missing", Output: "42"}, "")
	assertProtocolErrKind(t, err, event.ErrItemReferenced)
}

func TestLogDeleteUnreferencedFunctionCallSucceeds(t *testing.T) {
	log := NewLog()
	call, _ := log.Append(Item{Type: ItemFunctionCall, Status: StatusCompleted, CallID: "call_1", Name: "lookup", Arguments: "{}"}, "")
	if err := log.Delete(call.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := log.Get(call.ID); ok {
		t.Error("item still present after Delete()")
	}
}

func TestLogTruncateClipsAudio(t *testing.T) {
	log := NewLog()
	audio := make([]byte, 24000*2) // 1s of 24kHz/16-bit audio
	item, _ := log.Append(Item{
		Type:   ItemMessage,
		Status: StatusCompleted,
		Role:   RoleAssistant,
		Content: []ContentPart{{Type: ContentAudio, Audio: audio, Transcript: "hello there"}},
	}, "")

	if err := log.Truncate(item.ID, 0, 500); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}

	got, _ := log.Get(item.ID)
	if len(got.Content[0].Audio) != 24000 {
		t.Errorf("len(Audio) = %d, want %d", len(got.Content[0].Audio), 24000)
	}
	if want := "hello"; got.Content[0].Transcript != want {
		t.Errorf("Transcript = %q, want %q (proportional prefix)", got.Content[0].Transcript, want)
	}
}

func TestLogUpdateUnknownItem(t *testing.T) {
	log := NewLog()
	err := log.Update(Item{ID: "item_missing"})
	assertProtocolErrKind(t, err, event.ErrItemNotFound)
}

func idsOf(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func assertProtocolErrKind(t *testing.T, err error, want event.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with kind %v, got nil", want)
	}
	pe, ok := err.(*event.ProtocolError)
	if !ok {
		t.Fatalf("expected *event.ProtocolError, got %T (%v)", err, err)
	}
	if pe.Kind != want {
		t.Errorf("Kind = %v, want %v", pe.Kind, want)
	}
}
