package response

import (
	"context"
	"strings"

	"github.com/lokutor-ai/realtime-gateway/pkg/providers/llm"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

// Run executes one response to completion, cancellation, or failure,
// emitting every event through sink. It returns the terminal status and no
// error: failures are reported as a response.failed event.
//
// Event ordering matches spec §5: response.created is always first;
// response.done/cancelled/failed is always last and is the only one of the
// three emitted for a given response.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) Status {
	st := &runState{req: req, sink: sink, toolCalls: map[int]*toolCallAccum{}}

	sink.Emit(event.NewResponseCreated(event.Response{ID: req.ResponseID, Status: string(StatusInProgress)}))

	itemID := "item_" + req.ResponseID + "_out"
	st.itemID = itemID
	role := "assistant"
	sink.Emit(event.NewResponseOutputItemAdded(req.ResponseID, event.Item{ID: itemID, Type: "message", Status: "in_progress", Role: role}))

	contentType := "text"
	if req.wantsAudio() {
		contentType = "audio"
	}
	sink.Emit(event.NewResponseContentPartAdded(req.ResponseID, itemID, 0, event.ContentPart{Type: contentType}))

	history := conversation.ProjectHistory(o.Log.Items())
	opts := llm.StreamOptions{
		Instructions: req.Instructions,
		Tools:        req.Tools,
		ToolChoice:   req.ToolChoice,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	}

	err := o.LLM.StreamComplete(ctx, history, opts, func(d llm.Delta) error {
		return o.handleDelta(ctx, st, d)
	})

	if ctx.Err() != nil {
		o.flushTTS(ctx, st, true)
		o.finalizeDeltaStreams(st)
		o.finalizeItem(st, "incomplete")
		resp := event.Response{ID: req.ResponseID, Status: string(StatusCancelled)}
		sink.Emit(event.NewResponseCancelled(resp))
		return StatusCancelled
	}
	if err != nil {
		o.Logger.Error("response failed", "response_id", req.ResponseID, "err", err)
		resp := event.Response{
			ID: req.ResponseID, Status: string(StatusFailed),
			Error: &event.ErrorPayload{Kind: event.ErrUpstreamUnavailable, Message: err.Error()},
		}
		sink.Emit(event.NewResponseFailed(resp))
		return StatusFailed
	}

	o.flushTTS(ctx, st, true)
	o.finalizeDeltaStreams(st)
	finalItem := o.finalizeItem(st, "completed")
	o.flushToolCalls(st)

	resp := event.Response{ID: req.ResponseID, Status: string(StatusCompleted), Output: []event.Item{finalItem}, Usage: st.usage}
	sink.Emit(event.NewResponseDone(resp))
	return StatusCompleted
}

func (o *Orchestrator) handleDelta(ctx context.Context, st *runState, d llm.Delta) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	switch {
	case d.Usage != nil:
		st.mu.Lock()
		st.usage = &event.Usage{InputTokens: d.Usage.InputTokens, OutputTokens: d.Usage.OutputTokens, TotalTokens: d.Usage.TotalTokens}
		st.mu.Unlock()
	case d.ToolCall != nil:
		o.accumulateToolCall(st, d.ToolCall)
	case d.TextDelta != "":
		o.emitTextDelta(ctx, st, d.TextDelta)
	}
	return nil
}

func (o *Orchestrator) emitTextDelta(ctx context.Context, st *runState, delta string) {
	st.mu.Lock()
	st.textBuf.WriteString(delta)
	st.ttsPending.WriteString(delta)
	req := st.req
	itemID := st.itemID
	st.mu.Unlock()

	if req.wantsText() {
		st.sink.Emit(event.NewResponseTextDelta(req.ResponseID, itemID, delta))
	}
	if req.wantsAudio() {
		st.sink.Emit(event.NewResponseAudioTranscriptDelta(req.ResponseID, itemID, delta))
		o.flushTTS(ctx, st, false)
	}
}

// flushTTS sends any buffered transcript text to the TTS provider once it
// reaches a sentence boundary or ttsFlushLength, or unconditionally when
// final is true (the stream has ended and nothing more is coming). Output
// PCM is re-chunked into fixed 20ms frames before each response.audio.delta
// regardless of the provider's own chunk sizes; on the final flush, any
// short tail frame still buffered is emitted and the audio content part is
// closed with response.audio.done.
func (o *Orchestrator) flushTTS(ctx context.Context, st *runState, final bool) {
	if !st.req.wantsAudio() || o.TTS == nil {
		return
	}

	st.mu.Lock()
	pending := st.ttsPending.String()
	boundary := sentenceBoundary(pending)
	if !final && boundary < 0 && len(pending) < ttsFlushLength {
		st.mu.Unlock()
		return
	}
	if boundary < 0 || final {
		boundary = len(pending)
	}
	chunk := pending[:boundary]
	st.ttsPending.Reset()
	st.ttsPending.WriteString(pending[boundary:])
	req := st.req
	itemID := st.itemID
	st.mu.Unlock()

	if strings.TrimSpace(chunk) != "" {
		o.TTS.StreamSynthesize(ctx, chunk, req.Voice, req.Language, func(audio []byte) error {
			o.emitAudioFrames(st, req, itemID, audio)
			return nil
		})
	}

	if final {
		o.flushAudioTail(st, req, itemID)
		st.sink.Emit(event.NewResponseAudioDone(req.ResponseID, itemID))
	}
}

// emitAudioFrames buffers audio onto the response's tail and emits one
// response.audio.delta per complete ttsFrameBytes frame, leaving any
// remainder short of a full frame buffered for the next call.
func (o *Orchestrator) emitAudioFrames(st *runState, req Request, itemID string, audio []byte) {
	st.mu.Lock()
	st.audioTail = append(st.audioTail, audio...)
	var frames [][]byte
	for len(st.audioTail) >= ttsFrameBytes {
		frames = append(frames, append([]byte(nil), st.audioTail[:ttsFrameBytes]...))
		st.audioTail = st.audioTail[ttsFrameBytes:]
	}
	st.mu.Unlock()

	for _, frame := range frames {
		st.sink.Emit(event.NewResponseAudioDelta(req.ResponseID, itemID, encodeAudio(frame)))
	}
}

// flushAudioTail emits whatever is left in the tail buffer as a final,
// possibly short, frame.
func (o *Orchestrator) flushAudioTail(st *runState, req Request, itemID string) {
	st.mu.Lock()
	tail := st.audioTail
	st.audioTail = nil
	st.mu.Unlock()
	if len(tail) == 0 {
		return
	}
	st.sink.Emit(event.NewResponseAudioDelta(req.ResponseID, itemID, encodeAudio(tail)))
}

// finalizeDeltaStreams closes out the text and audio-transcript delta
// streams with their matching .done events (spec §5 ordering guarantee)
// before the output item itself is finalized.
func (o *Orchestrator) finalizeDeltaStreams(st *runState) {
	st.mu.Lock()
	text := st.textBuf.String()
	req := st.req
	itemID := st.itemID
	st.mu.Unlock()

	if req.wantsText() {
		st.sink.Emit(event.NewResponseTextDone(req.ResponseID, itemID, text))
	}
	if req.wantsAudio() {
		st.sink.Emit(event.NewResponseAudioTranscriptDone(req.ResponseID, itemID, text))
	}
}

// sentenceBoundary returns the index just past the first sentence-ending
// punctuation mark in s, or -1 if there is none yet.
func sentenceBoundary(s string) int {
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			return i + 1
		}
	}
	return -1
}

func (o *Orchestrator) accumulateToolCall(st *runState, d *llm.ToolCallDelta) {
	st.mu.Lock()
	acc, isNew := st.toolCalls[d.Index], false
	if acc == nil {
		acc = &toolCallAccum{}
		st.toolCalls[d.Index] = acc
		st.toolCallOrder = append(st.toolCallOrder, d.Index)
		isNew = true
	}
	if d.ID != "" {
		acc.id = d.ID
	}
	if d.Name != "" {
		acc.name = d.Name
	}
	acc.arguments.WriteString(d.ArgumentsDelta)
	req := st.req
	itemID := "item_" + req.ResponseID + "_call_" + acc.id
	name := acc.name
	callID := acc.id
	argsDelta := d.ArgumentsDelta
	st.mu.Unlock()

	if isNew {
		st.sink.Emit(event.NewResponseOutputItemAdded(req.ResponseID, event.Item{ID: itemID, Type: "function_call", Status: "in_progress", CallID: callID, Name: name}))
		st.sink.Emit(event.NewResponseContentPartAdded(req.ResponseID, itemID, 0, event.ContentPart{Type: "function_call_arguments"}))
	}
	if argsDelta != "" {
		st.sink.Emit(event.NewResponseFunctionCallArgumentsDelta(req.ResponseID, itemID, callID, argsDelta))
	}
}

func (o *Orchestrator) finalizeItem(st *runState, status string) event.Item {
	st.mu.Lock()
	text := st.textBuf.String()
	req := st.req
	itemID := st.itemID
	st.mu.Unlock()

	part := event.ContentPart{Type: "text", Text: text}
	if req.wantsAudio() {
		part = event.ContentPart{Type: "audio", Transcript: text}
	}

	st.sink.Emit(event.NewResponseContentPartDone(req.ResponseID, itemID, part))

	wireItem := event.Item{ID: itemID, Type: "message", Status: status, Role: "assistant", Content: []event.ContentPart{part}}
	st.sink.Emit(event.NewResponseOutputItemDone(req.ResponseID, wireItem))

	logItem := conversation.Item{
		ID: itemID, Type: conversation.ItemMessage, Role: conversation.RoleAssistant,
		Status: toLogStatus(status),
	}
	if req.wantsAudio() {
		logItem.Content = []conversation.ContentPart{{Type: conversation.ContentAudio, Transcript: text}}
	} else {
		logItem.Content = []conversation.ContentPart{{Type: conversation.ContentText, Text: text}}
	}
	if status == "completed" {
		if _, err := o.Log.Append(logItem, ""); err != nil {
			o.Logger.Warn("failed to append response item to log", "err", err)
		} else {
			st.sink.Emit(event.NewConversationItemCreated("", itemID2wire(logItem)))
		}
	}

	return wireItem
}

func (o *Orchestrator) flushToolCalls(st *runState) {
	st.mu.Lock()
	order := append([]int(nil), st.toolCallOrder...)
	calls := st.toolCalls
	req := st.req
	st.mu.Unlock()

	for _, idx := range order {
		acc := calls[idx]
		args := acc.arguments.String()
		itemID := "item_" + req.ResponseID + "_call_" + acc.id

		st.sink.Emit(event.NewResponseFunctionCallArgumentsDone(req.ResponseID, itemID, acc.id, acc.name, args))
		st.sink.Emit(event.NewResponseContentPartDone(req.ResponseID, itemID, event.ContentPart{Type: "function_call_arguments", Text: args}))

		logItem := conversation.Item{
			ID: itemID, Type: conversation.ItemFunctionCall, Status: conversation.StatusCompleted,
			CallID: acc.id, Name: acc.name, Arguments: args,
		}

		wireItem := event.Item{ID: itemID, Type: "function_call", Status: "completed", CallID: acc.id, Name: acc.name, Arguments: args}
		st.sink.Emit(event.NewResponseOutputItemDone(req.ResponseID, wireItem))

		if _, err := o.Log.Append(logItem, ""); err != nil {
			o.Logger.Warn("failed to append function_call item to log", "err", err)
			continue
		}
		st.sink.Emit(event.NewConversationItemCreated("", itemID2wire(logItem)))
	}
}

func toLogStatus(status string) conversation.ItemStatus {
	switch status {
	case "completed":
		return conversation.StatusCompleted
	case "incomplete":
		return conversation.StatusIncomplete
	default:
		return conversation.StatusInProgress
	}
}

func itemID2wire(it conversation.Item) event.Item {
	wire := event.Item{ID: it.ID, Type: string(it.Type), Status: string(it.Status), Role: string(it.Role), CallID: it.CallID, Name: it.Name, Arguments: it.Arguments, Output: it.Output}
	for _, c := range it.Content {
		wire.Content = append(wire.Content, event.ContentPart{Type: string(c.Type), Text: c.Text, Transcript: c.Transcript})
	}
	return wire
}
