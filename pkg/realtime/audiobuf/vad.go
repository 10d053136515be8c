package audiobuf

import "math"

// VADEventType distinguishes the two edges a turn-detector reports.
type VADEventType int

const (
	VADSpeechStarted VADEventType = iota
	VADSpeechStopped
)

// VADEvent reports a turn-detection edge at a sample offset into the buffer,
// rather than a wall-clock timestamp — the input-audio buffer is a PCM log
// indexed by sample offset, so edges are reported the same way (spec §3).
type VADEvent struct {
	Type         VADEventType
	SampleOffset int64
}

// RMSDetector is a hysteresis RMS-threshold voice activity detector,
// adapted from pkg/orchestrator.RMSVAD: the same confirmed-frame-count
// onset filter and silence hangover, but driven by the sample offset the
// buffer is already tracking instead of time.Now(), since server_vad mode
// must cut at exact PCM sample boundaries, not wall-clock instants.
type RMSDetector struct {
	threshold    float64
	sampleRate   int
	minConfirmed int // consecutive chunks above threshold to confirm speech start
	silenceHang  int64 // samples of sub-threshold audio required to confirm speech end

	speaking          bool
	consecutiveFrames int
	silenceRunSamples int64
	lastRMS           float64
}

// NewRMSDetector builds a detector for PCM16 mono audio at sampleRate Hz.
// silenceMs mirrors TurnDetection.SilenceMs from the session config.
func NewRMSDetector(sampleRate int, threshold float64, silenceMs int) *RMSDetector {
	return &RMSDetector{
		threshold:    threshold,
		sampleRate:   sampleRate,
		minConfirmed: 7,
		silenceHang:  int64(sampleRate) * int64(silenceMs) / 1000,
	}
}

func (d *RMSDetector) SetThreshold(t float64) { d.threshold = t }
func (d *RMSDetector) Threshold() float64     { return d.threshold }
func (d *RMSDetector) LastRMS() float64       { return d.lastRMS }
func (d *RMSDetector) IsSpeaking() bool       { return d.speaking }

// Process consumes one chunk appended at sampleOffset (the offset of the
// chunk's first sample) and returns an edge event, if this chunk crossed
// one.
func (d *RMSDetector) Process(chunk []byte, sampleOffset int64) *VADEvent {
	rms := calculateRMS(chunk)
	d.lastRMS = rms
	samples := int64(len(chunk) / 2)

	if rms > d.threshold {
		d.consecutiveFrames++
		d.silenceRunSamples = 0
		if !d.speaking && d.consecutiveFrames >= d.minConfirmed {
			d.speaking = true
			return &VADEvent{Type: VADSpeechStarted, SampleOffset: sampleOffset}
		}
		return nil
	}

	d.consecutiveFrames = 0
	if d.speaking {
		d.silenceRunSamples += samples
		if d.silenceRunSamples >= d.silenceHang {
			d.speaking = false
			d.silenceRunSamples = 0
			return &VADEvent{Type: VADSpeechStopped, SampleOffset: sampleOffset + samples}
		}
	}
	return nil
}

func (d *RMSDetector) Reset() {
	d.speaking = false
	d.consecutiveFrames = 0
	d.silenceRunSamples = 0
}

func calculateRMS(chunk []byte) float64 {
	if len(chunk) < 2 {
		return 0
	}
	var sum float64
	n := 0
	for i := 0; i < len(chunk)-1; i += 2 {
		sample := int16(chunk[i]) | int16(chunk[i+1])<<8
		f := float64(sample) / 32768.0
		sum += f * f
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
