// Package session runs one dictation at a time: start capture, cancel it,
// or stop and transcribe it.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chaz8081/gostt-dictate/internal/audio"
	"github.com/chaz8081/gostt-dictate/internal/events"
)

// Session errors.
var (
	ErrAlreadyRecording  = errors.New("session: already recording")
	ErrNoActiveRecording = errors.New("session: no active recording")
	ErrNoModelLoaded     = errors.New("session: no whisper model loaded")
)

// Recorder is one capture session.
type Recorder interface {
	Start() error
	Stop() ([]float32, error)
	Cancel()
	Truncated() bool
}

// RecorderFactory builds a recorder for a device name ("" for default).
type RecorderFactory func(deviceName string) (Recorder, error)

// NewAudioRecorderFactory builds audio.Recorders on h.
func NewAudioRecorderFactory(h audio.Host, opts audio.Options) RecorderFactory {
	return func(deviceName string) (Recorder, error) {
		rec, err := audio.NewRecorder(h, deviceName, opts)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
}

// DeviceSource returns the currently selected input device.
type DeviceSource func() string

// Transcriber converts 16 kHz mono samples to text.
type Transcriber interface {
	Loaded() bool
	Process(samples []float32) (string, error)
}

// CaptureFunc receives every validated capture before transcription.
type CaptureFunc func(id string, samples []float32)

// Controller is the Idle/Recording state machine.
type Controller struct {
	flag        *Flag
	newRecorder RecorderFactory
	device      DeviceSource
	transcriber Transcriber
	sink        events.Sink

	// OnCapture, if set, is called with each validated capture.
	OnCapture CaptureFunc

	// mu is held across recorder construction in Start, so Stop and Cancel
	// never observe a set flag without its recorder.
	mu      sync.Mutex
	active  Recorder
	id      string
	started time.Time
}

// New creates a Controller. flag is shared with trigger paths; sink may be
// nil.
func New(flag *Flag, newRecorder RecorderFactory, device DeviceSource, tr Transcriber, sink events.Sink) *Controller {
	if sink == nil {
		sink = events.Discard
	}
	if device == nil {
		device = func() string { return "" }
	}
	return &Controller{
		flag:        flag,
		newRecorder: newRecorder,
		device:      device,
		transcriber: tr,
		sink:        sink,
	}
}

// Flag returns the shared recording flag.
func (c *Controller) Flag() *Flag { return c.flag }

// Start begins a capture session on the selected device.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.flag.TrySet() {
		return ErrAlreadyRecording
	}

	deviceName := c.device()
	rec, err := c.newRecorder(deviceName)
	if err != nil {
		c.flag.Clear()
		return err
	}
	if err := rec.Start(); err != nil {
		rec.Cancel()
		c.flag.Clear()
		return err
	}

	id := uuid.NewString()
	c.active, c.id, c.started = rec, id, time.Now()

	slog.Info("[session] recording", "session", id, "device", deviceName)
	return nil
}

// StartButtonMode is Start for recordings initiated from the UI button. It
// also tells the UI so it can render the button state.
func (c *Controller) StartButtonMode() error {
	if err := c.Start(); err != nil {
		return err
	}
	c.sink.Emit(events.StartRecordingButton, nil)
	return nil
}

// Cancel discards the active session, if any.
func (c *Controller) Cancel() {
	rec, id, _ := c.take()
	if rec == nil {
		return
	}
	rec.Cancel()
	slog.Info("[session] cancelled", "session", id)
}

// StopAndTranscribe ends the active session and returns its transcript.
func (c *Controller) StopAndTranscribe() (string, error) {
	rec, id, started := c.take()
	if rec == nil {
		return "", ErrNoActiveRecording
	}

	samples, err := rec.Stop()
	if rec.Truncated() {
		msg := fmt.Sprintf("recording exceeded the maximum length, only the first part was kept (session %s)", id)
		slog.Warn("[session] "+msg, "session", id)
		c.sink.Emit(events.RecordingTruncated, msg)
	}
	if err != nil {
		slog.Warn("[session] capture rejected", "session", id, "err", err)
		c.sink.Emit(events.TranscriptionError, err.Error())
		return "", err
	}

	duration := float64(len(samples)) / audio.TargetSampleRate
	slog.Info("[session] captured", "session", id,
		"audio", fmt.Sprintf("%.1fs", duration),
		"held", time.Since(started).Round(time.Millisecond))

	if c.OnCapture != nil {
		c.OnCapture(id, samples)
	}

	if !c.transcriber.Loaded() {
		slog.Warn("[session] no model loaded", "session", id)
		c.sink.Emit(events.TranscriptionError, ErrNoModelLoaded.Error())
		return "", ErrNoModelLoaded
	}

	c.sink.Emit(events.TranscriptionStarted, nil)
	start := time.Now()
	text, err := c.transcriber.Process(samples)
	if err != nil {
		slog.Error("[session] transcription failed", "session", id, "err", err)
		c.sink.Emit(events.TranscriptionError, err.Error())
		return "", err
	}

	slog.Info("[session] transcribed", "session", id, "elapsed", time.Since(start).Round(time.Millisecond), "chars", len(text))
	c.sink.Emit(events.TranscriptionComplete, text)
	return text, nil
}

// take clears the flag and removes the active session. It waits for a Start
// in progress.
func (c *Controller) take() (Recorder, string, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flag.Clear()
	rec, id, started := c.active, c.id, c.started
	c.active, c.id, c.started = nil, "", time.Time{}
	return rec, id, started
}
