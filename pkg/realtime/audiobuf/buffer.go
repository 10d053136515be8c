// Package audiobuf implements the input-audio buffer each realtime session
// keeps: an append-only PCM16 log with a sample-offset cursor, a
// committed-offset low-water mark, and the VAD edges that drive turn
// detection in server_vad mode.
package audiobuf

import (
	"sync"

	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

const bytesPerSample = 2 // PCM16 mono

// SampleRate is the fixed wire sample rate (16-bit PCM, mono, 24 kHz):
// every ms-based field on the wire (audio_start_ms, audio_end_ms, and the
// buffer's own capacity) is computed against this rate.
const SampleRate = 24000

// BytesPerMs converts a millisecond duration to a byte offset at SampleRate.
func BytesPerMs() int64 {
	return int64(SampleRate) * bytesPerSample / 1000
}

// Mode selects how the buffer decides where a user turn ends.
type Mode int

const (
	// ModeManual commits only in response to an explicit
	// input_audio_buffer.commit client event.
	ModeManual Mode = iota
	// ModeServerVAD additionally auto-commits on a VAD speech_stopped edge.
	ModeServerVAD
)

// DefaultCapacitySeconds bounds how much uncommitted audio the buffer will
// hold before rejecting further appends with input_audio_buffer_overrun.
const DefaultCapacitySeconds = 30

// Buffer is one session's input-audio buffer.
type Buffer struct {
	mu sync.Mutex

	mode       Mode
	sampleRate int
	capacity   int64 // bytes

	pcm             []byte
	committedOffset int64 // bytes already committed and logically consumed

	detector *RMSDetector

	speechStartOffset int64
	inSpeech          bool
}

// Config parameterizes a new Buffer.
type Config struct {
	Mode               Mode
	SampleRate         int
	CapacitySeconds    int
	VADThreshold       float64
	VADSilenceMs       int
}

// New builds a Buffer. SampleRate and CapacitySeconds default to SampleRate
// and DefaultCapacitySeconds when left zero.
func New(cfg Config) *Buffer {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = SampleRate
	}
	if cfg.CapacitySeconds == 0 {
		cfg.CapacitySeconds = DefaultCapacitySeconds
	}
	if cfg.VADSilenceMs == 0 {
		cfg.VADSilenceMs = 500
	}
	if cfg.VADThreshold == 0 {
		cfg.VADThreshold = 0.02
	}
	return &Buffer{
		mode:       cfg.Mode,
		sampleRate: cfg.SampleRate,
		capacity:   int64(cfg.CapacitySeconds*cfg.SampleRate) * bytesPerSample,
		detector:   NewRMSDetector(cfg.SampleRate, cfg.VADThreshold, cfg.VADSilenceMs),
	}
}

// Append adds a chunk of PCM16 audio to the buffer and, in ModeServerVAD,
// runs the turn detector over it. It returns any VAD edge crossed by this
// chunk so the caller (the session actor) can emit the corresponding server
// event and, on speech_stopped, trigger an auto-commit.
func (b *Buffer) Append(chunk []byte) (*VADEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if int64(len(b.pcm))+int64(len(chunk)) > b.capacity {
		return nil, event.NewProtocolError(event.ErrInputAudioBufferOverrun,
			"input audio buffer capacity of %d bytes exceeded", b.capacity)
	}

	offset := (b.committedOffset + int64(len(b.pcm))) / bytesPerSample
	b.pcm = append(b.pcm, chunk...)

	if b.mode != ModeServerVAD {
		return nil, nil
	}

	ev := b.detector.Process(chunk, offset)
	if ev == nil {
		return nil, nil
	}
	switch ev.Type {
	case VADSpeechStarted:
		b.inSpeech = true
		b.speechStartOffset = ev.SampleOffset
	case VADSpeechStopped:
		b.inSpeech = false
	}
	return ev, nil
}

// Commit cuts the buffer at the current cursor, returning the PCM since the
// last commit and advancing committedOffset. An empty region (nothing
// appended since the last commit) is an invalid_request error — there is
// nothing to turn into a conversation item.
func (b *Buffer) Commit() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commitLocked()
}

func (b *Buffer) commitLocked() ([]byte, error) {
	if len(b.pcm) == 0 {
		return nil, event.NewProtocolError(event.ErrInvalidRequest, "input audio buffer is empty")
	}
	pcm := b.pcm
	b.committedOffset += int64(len(b.pcm))
	b.pcm = nil
	return pcm, nil
}

// Clear discards all buffered, uncommitted audio without producing an item.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pcm = nil
	b.detector.Reset()
	b.inSpeech = false
}

// Mode reports the buffer's turn-detection mode.
func (b *Buffer) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// SetMode switches the buffer between manual and server_vad, resetting the
// detector so a stale hysteresis state from the old mode can't leak in.
func (b *Buffer) SetMode(mode Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = mode
	b.detector.Reset()
	b.inSpeech = false
}

// Uncommitted returns the bytes appended since the last commit, without
// cutting the buffer.
func (b *Buffer) Uncommitted() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.pcm))
	copy(out, b.pcm)
	return out
}

// InSpeech reports whether the VAD currently considers the buffer mid-turn.
func (b *Buffer) InSpeech() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inSpeech
}
