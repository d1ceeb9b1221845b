// Package app exposes the dictation command surface: recording control,
// model management, settings and audio device selection.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chaz8081/gostt-dictate/internal/audio"
	"github.com/chaz8081/gostt-dictate/internal/events"
	"github.com/chaz8081/gostt-dictate/internal/hotkey"
	"github.com/chaz8081/gostt-dictate/internal/models"
	"github.com/chaz8081/gostt-dictate/internal/session"
	"github.com/chaz8081/gostt-dictate/internal/transcribe"
)

// ShortcutBinder replaces the global shortcut binding.
type ShortcutBinder interface {
	Bind(accel string) error
}

// Options wires an App.
type Options struct {
	Host   audio.Host
	Models *models.Manager
	// Load opens transcribers; nil means whisper.cpp.
	Load transcribe.LoadFunc
	// NewRecorder overrides the audio recorder factory (tests).
	NewRecorder session.RecorderFactory
	Audio       audio.Options
	// Shortcut is nil when no global hotkey is running (CLI subcommands).
	Shortcut ShortcutBinder
	Sink     events.Sink
}

// App implements every command the UI or CLI can issue.
type App struct {
	host     audio.Host
	models   *models.Manager
	holder   *transcribe.Holder
	session  *session.Controller
	shortcut ShortcutBinder
	sink     events.Sink
}

// New builds an App with an empty transcriber.
func New(opts Options) *App {
	if opts.Sink == nil {
		opts.Sink = events.Discard
	}
	if opts.Load == nil {
		opts.Load = transcribe.LoadWhisper
	}
	if opts.NewRecorder == nil {
		opts.NewRecorder = session.NewAudioRecorderFactory(opts.Host, opts.Audio)
	}

	a := &App{
		host:     opts.Host,
		models:   opts.Models,
		holder:   transcribe.NewHolder(opts.Load),
		shortcut: opts.Shortcut,
		sink:     opts.Sink,
	}
	a.session = session.New(&session.Flag{}, opts.NewRecorder, a.selectedDevice, a.holder, opts.Sink)
	return a
}

// Session returns the recording controller, for trigger paths like the
// hotkey loop and capture hooks.
func (a *App) Session() *session.Controller { return a.session }

// SetShortcutBinder attaches the global shortcut registrar once it exists.
func (a *App) SetShortcutBinder(b ShortcutBinder) { a.shortcut = b }

func (a *App) selectedDevice() string {
	return a.models.LoadSettings().SelectedDevice
}

// Init restores the persisted state: loads the active model if it is
// downloaded and binds the saved shortcut. Neither failure is fatal.
func (a *App) Init() {
	s := a.models.LoadSettings()

	if s.ActiveModel != "" {
		path, err := a.models.DownloadedPath(s.ActiveModel)
		if err != nil {
			slog.Warn("[app] active model unavailable", "model", s.ActiveModel, "err", err)
		} else if err := a.holder.Load(path, s.Language); err != nil {
			slog.Error("[app] loading active model", "model", s.ActiveModel, "err", err)
		}
	}

	if a.shortcut == nil {
		return
	}
	if err := a.shortcut.Bind(s.Shortcut); err != nil {
		slog.Warn("[app] saved shortcut rejected, using default", "shortcut", s.Shortcut, "default", models.DefaultShortcut, "err", err)
		if err := a.shortcut.Bind(models.DefaultShortcut); err != nil {
			slog.Error("[app] binding default shortcut", "err", err)
		}
	}
}

// Close releases the loaded model.
func (a *App) Close() error {
	return a.holder.Close()
}

// StartRecording begins capture on the selected device.
func (a *App) StartRecording() error {
	return a.session.Start()
}

// StartRecordingButtonMode begins capture initiated from the UI button.
func (a *App) StartRecordingButtonMode() error {
	return a.session.StartButtonMode()
}

// CancelRecording discards the current capture, if any.
func (a *App) CancelRecording() {
	a.session.Cancel()
}

// StopAndTranscribe ends the capture and returns its transcript.
func (a *App) StopAndTranscribe() (string, error) {
	return a.session.StopAndTranscribe()
}

// TranscribeFile transcribes a WAV file with the loaded model. Any rate
// and channel count is accepted.
func (a *App) TranscribeFile(path string) (string, error) {
	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return "", err
	}
	if rate != audio.TargetSampleRate {
		if samples, err = audio.Resample(samples, rate, audio.TargetSampleRate); err != nil {
			return "", err
		}
	}
	if len(samples) == 0 {
		return "", audio.ErrEmptyCapture
	}
	slog.Debug("[app] transcribing file", "path", path, "rate", rate, "samples", len(samples))
	return a.holder.Process(samples)
}

// LoadWhisperModel loads the model file at path, replacing the current one.
func (a *App) LoadWhisperModel(path string) error {
	return a.holder.Load(path, a.models.LoadSettings().Language)
}

// IsModelLoaded reports whether transcription is possible.
func (a *App) IsModelLoaded() bool {
	return a.holder.Loaded()
}

// ListModels returns the catalog with download state.
func (a *App) ListModels() []models.ModelStatus {
	return a.models.List()
}

// DownloadModel fetches a catalog model, emitting progress events.
func (a *App) DownloadModel(ctx context.Context, id string) (string, error) {
	lastPct := int64(-1)
	return a.models.Download(ctx, id, func(downloaded, total int64) {
		// One event per whole percent, plus the final one.
		pct := int64(100)
		if total > 0 && downloaded < total {
			pct = downloaded * 100 / total
		}
		if pct == lastPct {
			return
		}
		lastPct = pct
		a.sink.Emit(events.ModelDownloadProgress, events.DownloadProgress{
			ModelID:    id,
			Downloaded: downloaded,
			Total:      total,
		})
	})
}

// DeleteModel removes a downloaded model and unloads it if it is active.
func (a *App) DeleteModel(id string) error {
	path, err := a.models.Path(id)
	if err != nil {
		return err
	}
	if a.holder.ModelPath() == path {
		if err := a.holder.Close(); err != nil {
			slog.Warn("[app] unloading deleted model", "model", id, "err", err)
		}
	}
	return a.models.Delete(id)
}

// GetWhisperSettings returns the persisted settings.
func (a *App) GetWhisperSettings() models.Settings {
	return a.models.LoadSettings()
}

// SetWhisperSettings replaces the persisted settings wholesale.
func (a *App) SetWhisperSettings(s models.Settings) error {
	return a.models.SaveSettings(s)
}

// SetActiveModel loads a downloaded model and records it as active.
func (a *App) SetActiveModel(id string) error {
	path, err := a.models.DownloadedPath(id)
	if err != nil {
		return err
	}
	if err := a.holder.Load(path, a.models.LoadSettings().Language); err != nil {
		return err
	}
	_, err = a.models.UpdateSettings(func(s *models.Settings) { s.ActiveModel = id })
	return err
}

// SetShortcut rebinds the global shortcut and saves it. An invalid
// accelerator is rejected before the current binding is touched.
func (a *App) SetShortcut(accel string) error {
	if _, err := hotkey.ParseAccelerator(accel); err != nil {
		return err
	}
	if a.shortcut != nil {
		if err := a.shortcut.Bind(accel); err != nil {
			return err
		}
	}
	_, err := a.models.UpdateSettings(func(s *models.Settings) { s.Shortcut = accel })
	return err
}

// CheckAudioPermissions returns "OK" when the default input device can be
// opened.
func (a *App) CheckAudioPermissions() (string, error) {
	if err := audio.CheckPermission(a.host); err != nil {
		return "", err
	}
	return "OK", nil
}

// ListAudioDevices enumerates input devices.
func (a *App) ListAudioDevices() ([]audio.Device, error) {
	return audio.ListDevices(a.host)
}

// SetAudioDevice selects the input device by name; "" selects the system
// default. Unknown names are rejected.
func (a *App) SetAudioDevice(name string) error {
	if name != "" {
		devices, err := audio.ListDevices(a.host)
		if err != nil {
			return err
		}
		if !hasDevice(devices, name) {
			return fmt.Errorf("%w: %q", audio.ErrDeviceNotFound, name)
		}
	}
	_, err := a.models.UpdateSettings(func(s *models.Settings) { s.SelectedDevice = name })
	return err
}

func hasDevice(devices []audio.Device, name string) bool {
	for _, d := range devices {
		if d.Name == name {
			return true
		}
	}
	return false
}

// IsUserError reports whether err is something the user can fix by acting
// (speaking up, granting access, downloading a model) rather than a fault.
func IsUserError(err error) bool {
	for _, target := range []error{
		audio.ErrPermissionDenied,
		audio.ErrNoAudioReceived,
		audio.ErrEmptyCapture,
		audio.ErrTooQuiet,
		models.ErrUnknownModel,
		models.ErrNotDownloaded,
		transcribe.ErrNoModelLoaded,
		session.ErrAlreadyRecording,
		session.ErrNoActiveRecording,
		session.ErrNoModelLoaded,
		hotkey.ErrInvalidAccelerator,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
