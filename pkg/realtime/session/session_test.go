package session

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
	"github.com/lokutor-ai/realtime-gateway/pkg/providers/llm"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

type fakeTransport struct {
	mu     sync.Mutex
	events []event.ServerEvent
	closed bool
	code   int
}

func (f *fakeTransport) Send(ev event.ServerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeTransport) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.code = code
	return nil
}

func (f *fakeTransport) waitFor(t *testing.T, want event.Type, timeout time.Duration) event.ServerEvent {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		for _, ev := range f.events {
			if ev.ServerEventType() == want {
				f.mu.Unlock()
				return ev
			}
		}
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for event %v", want)
	return nil
}

type fakeSTT struct{ transcript string }

func (f *fakeSTT) Name() string { return "fake-stt" }
func (f *fakeSTT) Transcribe(ctx context.Context, audio []byte, lang orchestrator.Language) (string, error) {
	return f.transcript, nil
}

type fakeLLM struct{ text string }

func (f *fakeLLM) Name() string { return "fake-llm" }
func (f *fakeLLM) StreamComplete(ctx context.Context, messages []conversation.ChatMessage, opts llm.StreamOptions, onDelta func(llm.Delta) error) error {
	if err := onDelta(llm.Delta{TextDelta: f.text}); err != nil {
		return err
	}
	return onDelta(llm.Delta{FinishReason: "stop"})
}

type gatedLLM struct {
	release chan struct{}
	text    string
}

func (g *gatedLLM) Name() string { return "gated-llm" }
func (g *gatedLLM) StreamComplete(ctx context.Context, messages []conversation.ChatMessage, opts llm.StreamOptions, onDelta func(llm.Delta) error) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := onDelta(llm.Delta{TextDelta: g.text}); err != nil {
		return err
	}
	return onDelta(llm.Delta{FinishReason: "stop"})
}

type blockingLLM struct{}

func (b *blockingLLM) Name() string { return "blocking-llm" }
func (b *blockingLLM) StreamComplete(ctx context.Context, messages []conversation.ChatMessage, opts llm.StreamOptions, onDelta func(llm.Delta) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestSession(transport *fakeTransport) *Session {
	providers := Providers{STT: &fakeSTT{transcript: "hello there"}, LLM: &fakeLLM{text: "hi!"}}
	return New("sess_1", event.SessionConfig{}, providers, transport, nil)
}

func newBlockingTestSession(transport *fakeTransport) *Session {
	providers := Providers{STT: &fakeSTT{transcript: "hello there"}, LLM: &blockingLLM{}}
	return New("sess_1", event.SessionConfig{}, providers, transport, nil)
}

func TestSessionStartEmitsSessionCreated(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestSession(transport)
	s.Start()

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.events) != 1 || transport.events[0].ServerEventType() != event.TypeSessionCreated {
		t.Fatalf("events = %+v", transport.events)
	}
	if s.State() != StateOpen {
		t.Errorf("State() = %v, want StateOpen", s.State())
	}
}

func TestSessionUpdateMergesConfig(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestSession(transport)
	s.Start()

	instructions := "be terse"
	s.HandleClientEvent(context.Background(), &event.SessionUpdate{Session: event.SessionConfig{Instructions: &instructions}})

	transport.waitFor(t, event.TypeSessionUpdated, time.Second)
	s.mu.Lock()
	got := s.cfg.Instructions
	s.mu.Unlock()
	if got == nil || *got != instructions {
		t.Errorf("Instructions = %v, want %q", got, instructions)
	}
}

func TestSessionCommitFlowTranscribes(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestSession(transport)
	s.Start()

	pcm := make([]byte, 3200)
	audio := base64.StdEncoding.EncodeToString(pcm)
	s.HandleClientEvent(context.Background(), &event.InputAudioBufferAppend{Audio: audio})
	s.HandleClientEvent(context.Background(), &event.InputAudioBufferCommit{})

	transport.waitFor(t, event.TypeInputAudioBufferCommitted, time.Second)
	ev := transport.waitFor(t, event.TypeConversationItemInputAudioTranscriptionCompleted, time.Second)
	completed := ev.(*event.ConversationItemInputAudioTranscriptionCompleted)
	if completed.Transcript != "hello there" {
		t.Errorf("Transcript = %q, want %q", completed.Transcript, "hello there")
	}
}

func TestSessionResponseCreateAndExclusivity(t *testing.T) {
	transport := &fakeTransport{}
	gate := &gatedLLM{release: make(chan struct{}), text: "hi!"}
	providers := Providers{STT: &fakeSTT{transcript: "hello there"}, LLM: gate}
	s := New("sess_1", event.SessionConfig{}, providers, transport, nil)
	s.Start()

	s.HandleClientEvent(context.Background(), &event.ResponseCreate{})
	// A second response.create while the first is still gated open must be rejected.
	s.HandleClientEvent(context.Background(), &event.ResponseCreate{})
	close(gate.release)

	transport.waitFor(t, event.TypeError, time.Second)
	transport.waitFor(t, event.TypeResponseDone, 2*time.Second)

	var sawAlreadyActive bool
	transport.mu.Lock()
	for _, ev := range transport.events {
		if errEv, ok := ev.(*event.Error); ok && errEv.Error.Kind == event.ErrResponseAlreadyActive {
			sawAlreadyActive = true
		}
	}
	transport.mu.Unlock()
	if !sawAlreadyActive {
		t.Error("expected a response_already_active error")
	}
}

func TestSessionResponseCancel(t *testing.T) {
	transport := &fakeTransport{}
	s := newBlockingTestSession(transport)
	s.Start()

	s.HandleClientEvent(context.Background(), &event.ResponseCreate{})
	s.HandleClientEvent(context.Background(), &event.ResponseCancel{})

	transport.waitFor(t, event.TypeResponseCancelled, 2*time.Second)
}

func TestSessionClosedIsIdempotent(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestSession(transport)
	s.Start()
	s.Close(1000, "done")
	s.Close(1000, "done")

	if s.State() != StateClosed {
		t.Errorf("State() = %v, want StateClosed", s.State())
	}
	if !transport.closed {
		t.Error("expected transport to be closed")
	}
}
