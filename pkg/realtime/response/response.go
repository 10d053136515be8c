// Package response implements the per-response task that turns a
// response.create client event into the streamed STT->LLM->TTS pipeline a
// realtime session drives: one LLM completion, optionally split into text
// and spoken-audio deltas, with tool calls accumulated and appended back to
// the conversation log as function_call items.
//
// Grounded on pkg/orchestrator.ManagedStream.runLLMAndTTS /
// runBatchPipeline: the same think -> speak pipeline shape, generalized
// from a single blocking LLM call into an incremental delta stream and from
// a single conversation buffer into the wire-protocol's output-item /
// content-part event sequence.
package response

import (
	"strings"
	"sync"

	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
	"github.com/lokutor-ai/realtime-gateway/pkg/providers/llm"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/audiobuf"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

// Status mirrors the lifecycle spec §4.4 assigns to a response.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

// Sink receives every server event a response produces, in order. The
// session actor is the only real implementation; tests use a slice-backed
// one.
type Sink interface {
	Emit(event.ServerEvent)
}

// Request is the fully-resolved configuration for one response: session
// defaults merged with any response.create overrides (spec §9 Open
// Question (a) — overrides apply to this response only).
type Request struct {
	ResponseID   string
	Instructions string
	Modalities   []string // "text", "audio"
	Voice        orchestrator.Voice
	Language     orchestrator.Language
	Tools        []event.Tool
	ToolChoice   string
	Temperature  float64
	MaxTokens    *int
}

func (r Request) wantsAudio() bool {
	for _, m := range r.Modalities {
		if m == "audio" {
			return true
		}
	}
	return false
}

func (r Request) wantsText() bool {
	for _, m := range r.Modalities {
		if m == "text" {
			return true
		}
	}
	return len(r.Modalities) == 0
}

// ttsFlushLength is the sentence-buffering heuristic (spec §9 Open Question
// (b)): flush accumulated transcript text to the TTS provider at a
// punctuation boundary or once the buffer reaches this length, whichever
// comes first — mirrors the cadence ManagedStream.runLLMAndTTS achieves by
// waiting for one complete LLM response before calling SynthesizeStream,
// generalized here to flush mid-stream so audio starts before the full
// transcript is known.
const ttsFlushLength = 120

// ttsFrameBytes is the fixed PCM16 frame size spec §6 requires every
// response.audio.delta carry: 20ms at the wire sample rate. The final delta
// of a response carries whatever tail is left and may be shorter.
const ttsFrameBytes = audiobuf.SampleRate * 2 * 20 / 1000

// Orchestrator runs one response at a time against a single session's LLM
// and TTS providers. The session actor is responsible for serializing
// calls to Run: this type holds no internal locking against concurrent
// invocation by design, since the session's exactly-one-active-response
// invariant (spec §4.4) makes that the caller's job.
type Orchestrator struct {
	LLM    llm.StreamingProvider
	TTS    orchestrator.TTSProvider
	Logger orchestrator.Logger
	Log    *conversation.Log
}

// New builds an Orchestrator. A nil Logger becomes a NoOpLogger.
func New(llmProvider llm.StreamingProvider, ttsProvider orchestrator.TTSProvider, log *conversation.Log, logger orchestrator.Logger) *Orchestrator {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	return &Orchestrator{LLM: llmProvider, TTS: ttsProvider, Log: log, Logger: logger}
}

type runState struct {
	mu sync.Mutex

	req    Request
	sink   Sink
	itemID string

	textBuf      strings.Builder // full output so far, for the final Item
	ttsPending   strings.Builder // unflushed tail, for sentence-boundary TTS
	audioTail    []byte          // PCM bytes short of a full 20ms frame
	toolCalls    map[int]*toolCallAccum
	toolCallOrder []int

	usage *event.Usage
}

type toolCallAccum struct {
	id        string
	name      string
	arguments strings.Builder
}
