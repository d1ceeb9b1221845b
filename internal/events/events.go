// Package events delivers dictation lifecycle notifications to whatever is
// listening: the UI event bus, the log, desktop notifications and MQTT.
package events

// Event names.
const (
	TranscriptionStarted  = "transcription-started"
	TranscriptionComplete = "transcription-complete"
	TranscriptionError    = "transcription-error"
	ModelDownloadProgress = "model-download-progress"
	StartRecordingButton  = "start-recording-button"
	RecordingTruncated    = "recording-truncated"
)

// DownloadProgress is the payload of ModelDownloadProgress.
type DownloadProgress struct {
	ModelID    string `json:"model_id"`
	Downloaded int64  `json:"downloaded"`
	Total      int64  `json:"total"`
}

// Sink accepts named events. Emit never fails from the caller's point of
// view; sinks swallow and log their own errors.
type Sink interface {
	Emit(name string, payload any)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(name string, payload any)

// Emit calls f.
func (f SinkFunc) Emit(name string, payload any) { f(name, payload) }

// Multi fans an event out to every sink in order.
type Multi []Sink

// Emit forwards to each non-nil sink.
func (m Multi) Emit(name string, payload any) {
	for _, s := range m {
		if s != nil {
			s.Emit(name, payload)
		}
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(string, any) {})
