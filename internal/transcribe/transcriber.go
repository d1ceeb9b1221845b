// Package transcribe turns 16 kHz mono audio into text with whisper.cpp.
package transcribe

import "errors"

// Errors returned by transcribers.
var (
	ErrModelLoadFailed = errors.New("transcribe: loading model failed")
	ErrInferenceFailed = errors.New("transcribe: inference failed")
	ErrNoModelLoaded   = errors.New("transcribe: no whisper model loaded")
)

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Process transcribes mono 16kHz float32 audio samples to text.
	Process(samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}
