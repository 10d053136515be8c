package session

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/response"
)

// handleResponseCreate enforces the exactly-one-active-response invariant
// (spec §4.4) and, if clear, starts a response in its own goroutine so the
// read loop stays free to process response.cancel or further client events
// while generation is in flight.
func (s *Session) handleResponseCreate(ctx context.Context, e *event.ResponseCreate) {
	s.mu.Lock()
	if s.activeResponseID != "" {
		s.mu.Unlock()
		s.emitError(e.EventID, event.ErrResponseAlreadyActive, "a response is already in progress")
		return
	}
	if s.cfg.Intent != nil && *s.cfg.Intent == "transcription" {
		s.mu.Unlock()
		s.emitError(e.EventID, event.ErrUnsupportedIntent, "session intent is transcription-only; response.create is not supported")
		return
	}

	req := s.buildRequest(e)
	respCtx, cancel := context.WithCancel(context.Background())
	s.activeResponseID = req.ResponseID
	s.activeResponseCancel = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.activeResponseID = ""
			s.activeResponseCancel = nil
			s.mu.Unlock()
			cancel()
		}()
		s.respOrch.Run(respCtx, req, s)
	}()
}

func (s *Session) handleResponseCancel(e *event.ResponseCancel) {
	s.mu.Lock()
	id := s.activeResponseID
	cancel := s.activeResponseCancel
	s.mu.Unlock()

	if cancel == nil || (e.ResponseID != "" && e.ResponseID != id) {
		s.emitError(e.EventID, event.ErrItemNotFound, "no matching active response to cancel")
		return
	}
	cancel()
}

var responseSeq atomic.Int64

func nextResponseID() string {
	return "resp_" + strconv.FormatInt(responseSeq.Add(1), 36)
}

func (s *Session) buildRequest(e *event.ResponseCreate) response.Request {
	cfg := s.cfg // caller (handleResponseCreate) holds s.mu

	req := response.Request{
		ResponseID:  nextResponseID(),
		Modalities:  cfg.Modalities,
		Voice:       orchestratorVoice(cfg),
		Language:    orchestratorLanguage(cfg),
		ToolChoice:  strOrEmpty(cfg.ToolChoice),
		Temperature: floatOrZero(cfg.Temperature),
		Tools:       cfg.Tools,
	}
	if cfg.Instructions != nil {
		req.Instructions = *cfg.Instructions
	}
	req.MaxTokens = maxTokensFromWire(cfg.MaxResponseOutputTokens)

	if e.Response == nil {
		return req
	}
	if e.Response.Instructions != nil {
		req.Instructions = *e.Response.Instructions
	}
	if e.Response.Modalities != nil {
		req.Modalities = e.Response.Modalities
	}
	if e.Response.Voice != nil {
		req.Voice = orchestrator.Voice(*e.Response.Voice)
	}
	if e.Response.Tools != nil {
		req.Tools = e.Response.Tools
	}
	if e.Response.ToolChoice != nil {
		req.ToolChoice = *e.Response.ToolChoice
	}
	if e.Response.Temperature != nil {
		req.Temperature = *e.Response.Temperature
	}
	if e.Response.MaxResponseOutputTokens != nil {
		req.MaxTokens = maxTokensFromWire(e.Response.MaxResponseOutputTokens)
	}
	return req
}

func maxTokensFromWire(s *string) *int {
	if s == nil || *s == "inf" || *s == "" {
		return nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return nil
	}
	return &n
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func orchestratorVoice(cfg event.SessionConfig) orchestrator.Voice {
	if cfg.Voice == nil {
		return orchestrator.VoiceF1
	}
	return orchestrator.Voice(*cfg.Voice)
}

func orchestratorLanguage(cfg event.SessionConfig) orchestrator.Language {
	if cfg.InputAudioTranscription != nil && cfg.InputAudioTranscription.Language != "" {
		return orchestrator.Language(cfg.InputAudioTranscription.Language)
	}
	return orchestrator.LanguageEn
}
