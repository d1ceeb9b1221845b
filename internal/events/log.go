package events

import "log/slog"

// LogSink writes events to a slog.Logger. Download progress is logged at
// debug level.
type LogSink struct {
	Logger *slog.Logger
}

// Emit implements Sink.
func (s LogSink) Emit(name string, payload any) {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	switch name {
	case ModelDownloadProgress:
		l.Debug("[event] "+name, "payload", payload)
	case TranscriptionError, RecordingTruncated:
		l.Warn("[event] "+name, "payload", payload)
	default:
		l.Info("[event] "+name, "payload", payload)
	}
}
