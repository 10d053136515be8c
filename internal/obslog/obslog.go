// Package obslog adapts log/slog to pkg/orchestrator.Logger so the realtime
// gateway gets structured logging without any package outside this adapter
// needing to know which backend is behind the interface.
package obslog

import (
	"log/slog"
	"os"

	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
)

// SlogLogger implements orchestrator.Logger over a *slog.Logger.
type SlogLogger struct {
	l *slog.Logger
}

// New builds a SlogLogger writing JSON to stderr at the given level.
func New(level slog.Level) *SlogLogger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &SlogLogger{l: slog.New(h)}
}

// Wrap adapts an existing *slog.Logger.
func Wrap(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(msg string, args ...interface{}) { s.l.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...interface{})  { s.l.Info(msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...interface{})  { s.l.Warn(msg, args...) }
func (s *SlogLogger) Error(msg string, args ...interface{}) { s.l.Error(msg, args...) }

var _ orchestrator.Logger = (*SlogLogger)(nil)
