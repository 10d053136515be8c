package session

import (
	"context"

	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/audiobuf"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

// HandleClientEvent dispatches one decoded client event. The caller (the
// websocket read loop) is expected to invoke this once per received
// message and never concurrently for the same session — that single
// caller is what gives the session its single-actor serialization,
// matching ManagedStream.Write's role as the one entry point mutating
// stream state.
func (s *Session) HandleClientEvent(ctx context.Context, ev event.ClientEvent) {
	switch e := ev.(type) {
	case *event.SessionUpdate:
		s.handleSessionUpdate(e)
	case *event.InputAudioBufferAppend:
		s.handleBufferAppend(ctx, e)
	case *event.InputAudioBufferCommit:
		s.handleBufferCommit(e)
	case *event.InputAudioBufferClear:
		s.handleBufferClear(e)
	case *event.ConversationItemCreate:
		s.handleItemCreate(e)
	case *event.ConversationItemTruncate:
		s.handleItemTruncate(e)
	case *event.ConversationItemDelete:
		s.handleItemDelete(e)
	case *event.ResponseCreate:
		s.handleResponseCreate(ctx, e)
	case *event.ResponseCancel:
		s.handleResponseCancel(e)
	default:
		s.emitError(ev.ClientEventID(), event.ErrInvalidRequest, "unrecognized event type")
	}
}

func (s *Session) emitError(clientEventID string, kind event.ErrorKind, msg string) {
	s.Emit(event.NewError(clientEventID, kind, msg))
}

func (s *Session) emitProtocolError(clientEventID string, err error) {
	if pe, ok := err.(*event.ProtocolError); ok {
		s.emitError(clientEventID, pe.Kind, pe.Message)
		return
	}
	s.emitError(clientEventID, event.ErrInternal, err.Error())
}

func (s *Session) handleSessionUpdate(e *event.SessionUpdate) {
	s.mu.Lock()
	s.cfg = mergeConfig(s.cfg, e.Session)
	cfg := s.cfg
	s.buf.SetMode(bufferModeFromSession(cfg))
	s.mu.Unlock()
	s.Emit(event.NewSessionUpdated(s.ID, cfg))
}

func bufferModeFromSession(cfg event.SessionConfig) audiobuf.Mode {
	if cfg.TurnDetection != nil && cfg.TurnDetection.Type == "server_vad" {
		return audiobuf.ModeServerVAD
	}
	return audiobuf.ModeManual
}

// mergeConfig merges update onto base one top-level field at a time:
// scalar/pointer fields are replaced when present in update; list fields
// (Modalities, Tools) are replaced wholesale, never appended to, when
// present. Nested objects (TurnDetection, InputAudioTranscription) are also
// replaced whole when present; their individual fields are not merged, so a
// field the update leaves out is reset rather than kept from base.
func mergeConfig(base, update event.SessionConfig) event.SessionConfig {
	out := base
	if update.Instructions != nil {
		out.Instructions = update.Instructions
	}
	if update.Modalities != nil {
		out.Modalities = update.Modalities
	}
	if update.Voice != nil {
		out.Voice = update.Voice
	}
	if update.InputAudioFormat != nil {
		out.InputAudioFormat = update.InputAudioFormat
	}
	if update.OutputAudioFormat != nil {
		out.OutputAudioFormat = update.OutputAudioFormat
	}
	if update.InputAudioTranscription != nil {
		out.InputAudioTranscription = update.InputAudioTranscription
	}
	if update.TurnDetection != nil {
		out.TurnDetection = update.TurnDetection
	}
	if update.Tools != nil {
		out.Tools = update.Tools
	}
	if update.ToolChoice != nil {
		out.ToolChoice = update.ToolChoice
	}
	if update.Temperature != nil {
		out.Temperature = update.Temperature
	}
	if update.MaxResponseOutputTokens != nil {
		out.MaxResponseOutputTokens = update.MaxResponseOutputTokens
	}
	if update.Intent != nil {
		out.Intent = update.Intent
	}
	return out
}

func (s *Session) handleBufferAppend(ctx context.Context, e *event.InputAudioBufferAppend) {
	pcm, err := decodeBase64Audio(e.Audio)
	if err != nil {
		s.emitError(e.EventID, event.ErrInvalidRequest, "audio is not valid base64")
		return
	}

	vadEvent, err := s.buf.Append(pcm)
	if err != nil {
		s.emitProtocolError(e.EventID, err)
		return
	}
	if vadEvent == nil {
		return
	}

	switch vadEvent.Type {
	case audiobuf.VADSpeechStarted:
		started := &event.InputAudioBufferSpeechStarted{AudioStartMs: sampleOffsetMs(vadEvent.SampleOffset)}
		started.Type = event.TypeInputAudioBufferSpeechStarted
		s.Emit(started)
	case audiobuf.VADSpeechStopped:
		stopped := &event.InputAudioBufferSpeechStopped{AudioEndMs: sampleOffsetMs(vadEvent.SampleOffset)}
		stopped.Type = event.TypeInputAudioBufferSpeechStopped
		s.Emit(stopped)
		s.autoCommit(ctx)
	}
}

func sampleOffsetMs(sampleOffset int64) int64 {
	return sampleOffset * 1000 / audiobuf.SampleRate
}

func (s *Session) autoCommit(ctx context.Context) {
	s.commitAndTranscribe(ctx, "")
	s.maybeAutoCreateResponse(ctx)
}

func (s *Session) handleBufferCommit(e *event.InputAudioBufferCommit) {
	s.commitAndTranscribe(context.Background(), e.EventID)
}

func (s *Session) commitAndTranscribe(ctx context.Context, clientEventID string) {
	pcm, err := s.buf.Commit()
	if err != nil {
		s.emitProtocolError(clientEventID, err)
		return
	}

	s.mu.Lock()
	previous := s.lastItemID
	s.mu.Unlock()

	item, err := s.log.Append(conversation.Item{
		Type: conversation.ItemMessage, Status: conversation.StatusInProgress, Role: conversation.RoleUser,
		Content: []conversation.ContentPart{{Type: conversation.ContentInputAudio, Audio: pcm}},
	}, previous)
	if err != nil {
		s.emitProtocolError(clientEventID, err)
		return
	}

	s.mu.Lock()
	s.lastItemID = item.ID
	stt := s.providers.STT
	lang := orchestratorLanguage(s.cfg)
	s.mu.Unlock()

	committed := &event.InputAudioBufferCommitted{PreviousItemID: previous, ItemID: item.ID}
	committed.Type = event.TypeInputAudioBufferCommitted
	s.Emit(committed)
	s.Emit(event.NewConversationItemCreated(previous, logItemToWire(item)))

	if stt == nil {
		return
	}
	transcript, err := stt.Transcribe(ctx, pcm, lang)
	if err != nil {
		failed := &event.ConversationItemInputAudioTranscriptionFailed{
			ItemID: item.ID, Error: event.ErrorPayload{Kind: event.ErrUpstreamUnavailable, Message: err.Error()},
		}
		failed.Type = event.TypeConversationItemInputAudioTranscriptionFailed
		s.Emit(failed)
		return
	}

	item.Content[0].Transcript = transcript
	item.Status = conversation.StatusCompleted
	_ = s.log.Update(item)
	completed := &event.ConversationItemInputAudioTranscriptionCompleted{ItemID: item.ID, Transcript: transcript}
	completed.Type = event.TypeConversationItemInputAudioTranscriptionCompleted
	s.Emit(completed)
}

func (s *Session) maybeAutoCreateResponse(ctx context.Context) {
	s.mu.Lock()
	intent := s.cfg.Intent
	s.mu.Unlock()
	if intent != nil && *intent == "transcription" {
		return // transcription-only sessions never trigger a model response (spec §4.6)
	}
	s.handleResponseCreate(ctx, &event.ResponseCreate{})
}

func (s *Session) handleBufferClear(e *event.InputAudioBufferClear) {
	s.buf.Clear()
	cleared := &event.InputAudioBufferCleared{}
	cleared.Type = event.TypeInputAudioBufferCleared
	s.Emit(cleared)
}

func (s *Session) handleItemCreate(e *event.ConversationItemCreate) {
	item := wireItemToLog(e.Item)
	if item.Status == "" {
		item.Status = conversation.StatusCompleted
	}
	stored, err := s.log.Append(item, e.PreviousItemID)
	if err != nil {
		s.emitProtocolError(e.EventID, err)
		return
	}
	s.mu.Lock()
	s.lastItemID = stored.ID
	s.mu.Unlock()
	s.Emit(event.NewConversationItemCreated(e.PreviousItemID, logItemToWire(stored)))
}

func (s *Session) handleItemTruncate(e *event.ConversationItemTruncate) {
	if err := s.log.Truncate(e.ItemID, e.ContentIndex, e.AudioEndMs); err != nil {
		s.emitProtocolError(e.EventID, err)
		return
	}
	truncated := &event.ConversationItemTruncated{ItemID: e.ItemID, ContentIndex: e.ContentIndex, AudioEndMs: e.AudioEndMs}
	truncated.Type = event.TypeConversationItemTruncated
	s.Emit(truncated)
}

func (s *Session) handleItemDelete(e *event.ConversationItemDelete) {
	if err := s.log.Delete(e.ItemID); err != nil {
		s.emitProtocolError(e.EventID, err)
		return
	}
	deleted := &event.ConversationItemDeleted{ItemID: e.ItemID}
	deleted.Type = event.TypeConversationItemDeleted
	s.Emit(deleted)
}
