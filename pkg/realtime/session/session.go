// Package session implements the realtime gateway's per-connection state
// machine: the opening->open->closing->closed lifecycle, session.update
// merging, and the dispatch of every client event to the conversation
// log, input-audio buffer, and response orchestrator that back it.
//
// Grounded on pkg/orchestrator.ManagedStream: one struct per connection
// guarding its mutable state with a mutex rather than a command channel,
// generalized from ManagedStream's ad hoc audio/LLM/TTS fields to the
// formal session lifecycle and wire-protocol dispatch the gateway needs.
package session

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
	"github.com/lokutor-ai/realtime-gateway/pkg/providers/llm"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/audiobuf"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/conversation"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/response"
)

// State is the connection lifecycle spec §4.5 defines.
type State int

const (
	StateOpening State = iota
	StateOpen
	StateClosing
	StateClosed
)

// Transport is the one capability the session needs from the websocket
// layer: a way to push a server event out and a way to close with a
// protocol-meaningful code. internal/transport/ws provides the concrete
// implementation; tests use an in-memory one.
type Transport interface {
	Send(event.ServerEvent) error
	Close(code int, reason string) error
}

// Providers bundles the backends a session's response orchestrator needs.
// STT is used for input-audio-buffer transcription; LLM/TTS back
// response.create.
type Providers struct {
	STT orchestrator.STTProvider
	LLM llm.StreamingProvider
	TTS orchestrator.TTSProvider
}

// Session is one realtime connection's worth of state: its configuration,
// conversation log, input-audio buffer, and at most one in-flight response.
type Session struct {
	ID string

	mu    sync.Mutex
	state State
	cfg   event.SessionConfig

	log *conversation.Log
	buf *audiobuf.Buffer

	providers Providers
	respOrch  *response.Orchestrator
	logger    orchestrator.Logger

	transport Transport
	writeMu   sync.Mutex

	activeResponseID     string
	activeResponseCancel context.CancelFunc

	lastItemID string // tail of the conversation log, for previous_item_id chaining
}

// New constructs a Session in the "opening" state. Call Start to enter
// "open" and emit session.created.
func New(id string, cfg event.SessionConfig, providers Providers, transport Transport, logger orchestrator.Logger) *Session {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	cfg = withConfigDefaults(cfg)
	log := conversation.NewLog()
	buf := audiobuf.New(bufferConfigFromSession(cfg))

	s := &Session{
		ID:        id,
		state:     StateOpening,
		cfg:       cfg,
		log:       log,
		buf:       buf,
		providers: providers,
		transport: transport,
		logger:    logger,
	}
	s.respOrch = response.New(providers.LLM, providers.TTS, log, logger)
	return s
}

// Emit implements response.Sink: the session is the event sink every
// response orchestrator run emits through, serialized against every other
// writer via writeMu so wire ordering is never interleaved mid-event.
func (s *Session) Emit(ev event.ServerEvent) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.transport.Send(ev); err != nil {
		s.logger.Warn("send failed", "session_id", s.ID, "err", err)
	}
}

// Start transitions opening -> open and emits session.created.
func (s *Session) Start() {
	s.mu.Lock()
	s.state = StateOpen
	cfg := s.cfg
	s.mu.Unlock()
	s.Emit(event.NewSessionCreated(s.ID, cfg))
}

// State reports the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close transitions to closing then closed, cancelling any in-flight
// response. Idempotent.
func (s *Session) Close(code int, reason string) {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateClosing {
		s.mu.Unlock()
		return
	}
	s.state = StateClosing
	cancel := s.activeResponseCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	if err := s.transport.Close(code, reason); err != nil {
		s.logger.Warn("close failed", "session_id", s.ID, "err", err)
	}
}

func withConfigDefaults(cfg event.SessionConfig) event.SessionConfig {
	if cfg.Modalities == nil {
		cfg.Modalities = []string{"text", "audio"}
	}
	if cfg.InputAudioFormat == nil {
		cfg.InputAudioFormat = strPtr("pcm16")
	}
	if cfg.OutputAudioFormat == nil {
		cfg.OutputAudioFormat = strPtr("pcm16")
	}
	if cfg.Voice == nil {
		cfg.Voice = strPtr("alloy")
	}
	if cfg.TurnDetection == nil {
		cfg.TurnDetection = &event.TurnDetection{Type: "server_vad", SilenceMs: 500, Threshold: 0.02}
	}
	if cfg.MaxResponseOutputTokens == nil {
		cfg.MaxResponseOutputTokens = strPtr("inf")
	}
	return cfg
}

func bufferConfigFromSession(cfg event.SessionConfig) audiobuf.Config {
	mode := audiobuf.ModeManual
	threshold := 0.02
	silenceMs := 500
	if cfg.TurnDetection != nil {
		if cfg.TurnDetection.Type == "server_vad" {
			mode = audiobuf.ModeServerVAD
		}
		if cfg.TurnDetection.Threshold != 0 {
			threshold = cfg.TurnDetection.Threshold
		}
		if cfg.TurnDetection.SilenceMs != 0 {
			silenceMs = cfg.TurnDetection.SilenceMs
		}
	}
	return audiobuf.Config{Mode: mode, SampleRate: audiobuf.SampleRate, VADThreshold: threshold, VADSilenceMs: silenceMs}
}

func strPtr(s string) *string { return &s }

func decodeBase64Audio(b64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64)
}
