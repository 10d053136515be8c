package response

import (
	"context"
	"testing"

	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
	"github.com/lokutor-ai/realtime-gateway/pkg/providers/llm"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

type sliceSink struct {
	events []event.ServerEvent
}

func (s *sliceSink) Emit(ev event.ServerEvent) { s.events = append(s.events, ev) }

func (s *sliceSink) types() []event.Type {
	out := make([]event.Type, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.ServerEventType()
	}
	return out
}

type fakeLLM struct {
	deltas []llm.Delta
	err    error
}

func (f *fakeLLM) Name() string { return "fake-llm" }

func (f *fakeLLM) StreamComplete(ctx context.Context, messages []conversation.ChatMessage, opts llm.StreamOptions, onDelta func(llm.Delta) error) error {
	if f.err != nil {
		return f.err
	}
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return nil
}

type fakeTTS struct {
	chunks [][]byte
}

func (f *fakeTTS) Name() string { return "fake-tts" }
func (f *fakeTTS) Synthesize(ctx context.Context, text string, voice orchestrator.Voice, lang orchestrator.Language) ([]byte, error) {
	return []byte("audio"), nil
}
func (f *fakeTTS) StreamSynthesize(ctx context.Context, text string, voice orchestrator.Voice, lang orchestrator.Language, onChunk func([]byte) error) error {
	chunk := []byte("pcm:" + text)
	f.chunks = append(f.chunks, chunk)
	return onChunk(chunk)
}

func TestRunTextOnlyCompletes(t *testing.T) {
	o := New(&fakeLLM{deltas: []llm.Delta{{TextDelta: "hello "}, {TextDelta: "world"}, {FinishReason: "stop"}}}, nil, conversation.NewLog(), nil)
	sink := &sliceSink{}

	status := o.Run(context.Background(), Request{ResponseID: "resp_1", Modalities: []string{"text"}}, sink)

	if status != StatusCompleted {
		t.Fatalf("status = %v, want completed", status)
	}
	firstType := sink.events[0].ServerEventType()
	lastType := sink.events[len(sink.events)-1].ServerEventType()
	if firstType != event.TypeResponseCreated {
		t.Errorf("first event = %v, want response.created", firstType)
	}
	if lastType != event.TypeResponseDone {
		t.Errorf("last event = %v, want response.done", lastType)
	}

	items := o.Log.Items()
	if len(items) != 1 || items[0].Content[0].Text != "hello world" {
		t.Fatalf("log items = %+v", items)
	}

	var sawTextDone bool
	for _, ty := range sink.types() {
		if ty == event.TypeResponseTextDone {
			sawTextDone = true
		}
	}
	if !sawTextDone {
		t.Error("expected a response.text.done before response.done")
	}
}

func TestRunAudioModalityStreamsTTS(t *testing.T) {
	tts := &fakeTTS{}
	o := New(&fakeLLM{deltas: []llm.Delta{{TextDelta: "hi there."}, {TextDelta: " more."}}}, tts, conversation.NewLog(), nil)
	sink := &sliceSink{}

	status := o.Run(context.Background(), Request{ResponseID: "resp_1", Modalities: []string{"audio"}}, sink)
	if status != StatusCompleted {
		t.Fatalf("status = %v", status)
	}

	var sawAudioDelta, sawTranscriptDelta, sawAudioDone, sawTranscriptDone bool
	for _, ty := range sink.types() {
		switch ty {
		case event.TypeResponseAudioDelta:
			sawAudioDelta = true
		case event.TypeResponseAudioTranscriptDelta:
			sawTranscriptDelta = true
		case event.TypeResponseAudioDone:
			sawAudioDone = true
		case event.TypeResponseAudioTranscriptDone:
			sawTranscriptDone = true
		}
	}
	if !sawAudioDelta {
		t.Error("expected at least one response.audio.delta")
	}
	if !sawTranscriptDelta {
		t.Error("expected at least one response.audio_transcript.delta")
	}
	if !sawAudioDone {
		t.Error("expected a response.audio.done closing the audio stream")
	}
	if !sawTranscriptDone {
		t.Error("expected a response.audio_transcript.done closing the transcript stream")
	}
	if len(tts.chunks) == 0 {
		t.Error("expected TTS to have been invoked")
	}
}

func TestRunFailurePropagatesAsResponseFailed(t *testing.T) {
	o := New(&fakeLLM{err: context.DeadlineExceeded}, nil, conversation.NewLog(), nil)
	sink := &sliceSink{}

	status := o.Run(context.Background(), Request{ResponseID: "resp_1", Modalities: []string{"text"}}, sink)
	if status != StatusFailed {
		t.Fatalf("status = %v, want failed", status)
	}
	last := sink.events[len(sink.events)-1]
	if last.ServerEventType() != event.TypeResponseFailed {
		t.Errorf("last event = %v, want response.failed", last.ServerEventType())
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(&fakeLLM{deltas: []llm.Delta{{TextDelta: "hi"}}}, nil, conversation.NewLog(), nil)
	sink := &sliceSink{}

	status := o.Run(ctx, Request{ResponseID: "resp_1", Modalities: []string{"text"}}, sink)
	if status != StatusCancelled {
		t.Fatalf("status = %v, want cancelled", status)
	}
	last := sink.events[len(sink.events)-1]
	if last.ServerEventType() != event.TypeResponseCancelled {
		t.Errorf("last event = %v, want response.cancelled", last.ServerEventType())
	}
}

func TestRunAccumulatesToolCalls(t *testing.T) {
	deltas := []llm.Delta{
		{ToolCall: &llm.ToolCallDelta{Index: 0, ID: "call_1", Name: "get_weather", ArgumentsDelta: `{"city":`}},
		{ToolCall: &llm.ToolCallDelta{Index: 0, ArgumentsDelta: `"sf"}`}},
		{FinishReason: "tool_calls"},
	}
	o := New(&fakeLLM{deltas: deltas}, nil, conversation.NewLog(), nil)
	sink := &sliceSink{}

	status := o.Run(context.Background(), Request{ResponseID: "resp_1", Modalities: []string{"text"}}, sink)
	if status != StatusCompleted {
		t.Fatalf("status = %v", status)
	}

	var sawArgsDelta, sawArgsDone int
	for _, ty := range sink.types() {
		switch ty {
		case event.TypeResponseFunctionCallArgumentsDelta:
			sawArgsDelta++
		case event.TypeResponseFunctionCallArgumentsDone:
			sawArgsDone++
		}
	}
	if sawArgsDelta == 0 {
		t.Error("expected at least one response.function_call_arguments.delta")
	}
	if sawArgsDone != 1 {
		t.Errorf("response.function_call_arguments.done count = %d, want 1", sawArgsDone)
	}

	var found bool
	for _, it := range o.Log.Items() {
		if it.Type == conversation.ItemFunctionCall {
			found = true
			if it.Arguments != `{"city":"sf"}` {
				t.Errorf("Arguments = %q", it.Arguments)
			}
		}
	}
	if !found {
		t.Error("expected a function_call item appended to the log")
	}
}
