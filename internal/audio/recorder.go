package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"
)

// minRMS is the amplitude below which a capture is treated as silence.
const minRMS = 0.001

// Options tunes a Recorder.
type Options struct {
	// MaxDuration caps how much audio is kept. Zero means no cap.
	MaxDuration time.Duration
	// StopGrace is how long Stop waits before tearing the stream down so
	// trailing callbacks can land.
	StopGrace time.Duration
}

// DefaultOptions returns the options used by the app.
func DefaultOptions() Options {
	return Options{
		MaxDuration: 10 * time.Minute,
		StopGrace:   50 * time.Millisecond,
	}
}

// checkPermission reports whether NewRecorder probes microphone access
// before anything else. Only macOS gates capture behind a prompt.
var checkPermission = runtime.GOOS == "darwin"

// Recorder captures audio from one input device into a mono float32 buffer.
//
// The stream handle is only touched under ctl by the control path. The
// capture callback shares buf, lastAudio and truncated with the control
// path under mu and never does anything but decode and append.
type Recorder struct {
	host       Host
	deviceName string
	opts       Options

	ctl    sync.Mutex
	stream Stream
	cfg    StreamConfig

	mu         sync.Mutex
	buf        []float32
	lastAudio  time.Time
	channels   int
	format     SampleFormat
	maxSamples int
	truncated  bool
}

// NewRecorder resolves deviceName (empty for the system default) and reads
// its native config without starting capture.
func NewRecorder(h Host, deviceName string, opts Options) (*Recorder, error) {
	if checkPermission {
		if err := CheckPermission(h); err != nil {
			return nil, err
		}
	}

	r := &Recorder{host: h, deviceName: deviceName, opts: opts}
	cfg, err := r.resolve()
	if err != nil {
		return nil, err
	}
	r.cfg = cfg
	return r, nil
}

// CheckPermission reads the default device's config. On macOS a denied
// microphone shows up as an access error here, which is reported as
// ErrPermissionDenied with a remediation hint.
func CheckPermission(h Host) error {
	_, err := h.NativeConfig("")
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if errors.Is(err, ErrPermissionDenied) || strings.Contains(msg, "permission") || strings.Contains(msg, "access") {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, permissionHint)
	}
	return err
}

// resolve checks the device still exists and returns its native config.
func (r *Recorder) resolve() (StreamConfig, error) {
	if err := findDevice(r.host, r.deviceName); err != nil {
		return StreamConfig{}, err
	}
	cfg, err := r.host.NativeConfig(r.deviceName)
	if err != nil {
		return StreamConfig{}, fmt.Errorf("audio: native config for %s: %w", r.displayName(), err)
	}
	if err := cfg.validate(); err != nil {
		return StreamConfig{}, err
	}
	return cfg, nil
}

func (r *Recorder) displayName() string {
	if r.deviceName == "" {
		return "default device"
	}
	return fmt.Sprintf("%q", r.deviceName)
}

// Config returns the native stream config of the device.
func (r *Recorder) Config() StreamConfig {
	r.ctl.Lock()
	defer r.ctl.Unlock()
	return r.cfg
}

// Start begins capturing. It is a no-op if already capturing.
func (r *Recorder) Start() error {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	if r.stream != nil {
		return nil
	}

	cfg, err := r.resolve()
	if err != nil {
		return err
	}
	r.cfg = cfg

	r.mu.Lock()
	r.buf = r.buf[:0]
	r.lastAudio = time.Time{}
	r.truncated = false
	r.channels = cfg.Channels
	r.format = cfg.Format
	r.maxSamples = 0
	if r.opts.MaxDuration > 0 {
		r.maxSamples = int(r.opts.MaxDuration.Seconds() * float64(cfg.SampleRate))
	}
	r.mu.Unlock()

	stream, err := r.host.OpenStream(r.deviceName, cfg, r.onData)
	if err != nil {
		return fmt.Errorf("audio: open capture stream on %s: %w", r.displayName(), err)
	}
	r.stream = stream

	slog.Debug("[audio] capture started",
		"device", r.displayName(),
		"rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"format", cfg.Format.String(),
	)
	return nil
}

// IsRecording returns whether a capture stream is open.
func (r *Recorder) IsRecording() bool {
	r.ctl.Lock()
	defer r.ctl.Unlock()
	return r.stream != nil
}

// Truncated reports whether samples were dropped because the capture hit
// MaxDuration.
func (r *Recorder) Truncated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.truncated
}

// Stop ends the capture, validates what was recorded and returns it as
// mono samples at TargetSampleRate.
func (r *Recorder) Stop() ([]float32, error) {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	if r.stream != nil {
		time.Sleep(r.opts.StopGrace)
		r.closeStream()
	}

	r.mu.Lock()
	samples := r.buf
	last := r.lastAudio
	r.buf = nil
	r.lastAudio = time.Time{}
	r.mu.Unlock()

	if err := validateCapture(samples, last); err != nil {
		return nil, err
	}

	if r.cfg.SampleRate == TargetSampleRate {
		return samples, nil
	}
	out, err := Resample(samples, r.cfg.SampleRate, TargetSampleRate)
	if err != nil {
		slog.Error("[audio] resampling failed", "from", r.cfg.SampleRate, "err", err)
		return nil, err
	}
	return out, nil
}

// Cancel ends the capture and drops the buffer without validating it.
func (r *Recorder) Cancel() {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	r.closeStream()

	r.mu.Lock()
	r.buf = nil
	r.lastAudio = time.Time{}
	r.mu.Unlock()
}

// closeStream destroys the stream. After it returns no callback can write
// to the buffer. Callers hold ctl.
func (r *Recorder) closeStream() {
	if r.stream == nil {
		return
	}
	if err := r.stream.Close(); err != nil {
		slog.Warn("[audio] closing capture stream", "err", err)
	}
	r.stream = nil
}

// onData runs on the capture thread.
func (r *Recorder) onData(raw []byte, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastAudio = time.Now()
	if r.maxSamples > 0 && len(r.buf) >= r.maxSamples {
		r.truncated = true
		return
	}
	r.buf = appendMono(r.buf, raw, r.channels, r.format)
	if r.maxSamples > 0 && len(r.buf) > r.maxSamples {
		r.buf = r.buf[:r.maxSamples]
		r.truncated = true
	}
}

// validateCapture applies the capture quality checks in order: something
// was delivered, the buffer is not empty, and it is not silence.
func validateCapture(samples []float32, lastAudio time.Time) error {
	if lastAudio.IsZero() {
		return ErrNoAudioReceived
	}
	if len(samples) == 0 {
		return ErrEmptyCapture
	}
	if rms := RMS(samples); rms < minRMS {
		return fmt.Errorf("%w (RMS: %.6f), speak louder or check microphone settings", ErrTooQuiet, rms)
	}
	return nil
}
