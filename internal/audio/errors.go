package audio

import "errors"

// Permission and device errors.
var (
	ErrPermissionDenied  = errors.New("audio: microphone permission denied")
	ErrNoDevices         = errors.New("audio: no input devices found")
	ErrDeviceNotFound    = errors.New("audio: input device not found")
	ErrDeviceConfig      = errors.New("audio: reading device config")
	ErrUnsupportedFormat = errors.New("audio: unsupported sample format")
)

// Capture quality errors returned by Recorder.Stop. The UI shows each one
// with its own guidance.
var (
	ErrNoAudioReceived = errors.New("audio: no audio data received, check System Settings → Privacy & Security → Microphone")
	ErrEmptyCapture    = errors.New("audio: no audio captured, recording too short or microphone not working")
	ErrTooQuiet        = errors.New("audio: audio too quiet")
)

// Resampling errors.
var (
	ErrResamplerInit = errors.New("audio: resampler init failed")
	ErrResampling    = errors.New("audio: resampling failed")
)

// permissionHint is appended to ErrPermissionDenied for display.
const permissionHint = "please grant access in System Settings → Privacy & Security → Microphone"
