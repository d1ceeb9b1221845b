package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chaz8081/gostt-dictate/internal/app"
	"github.com/chaz8081/gostt-dictate/internal/audio"
	"github.com/chaz8081/gostt-dictate/internal/config"
	"github.com/chaz8081/gostt-dictate/internal/events"
	"github.com/chaz8081/gostt-dictate/internal/hotkey"
	"github.com/chaz8081/gostt-dictate/internal/inject"
	"github.com/chaz8081/gostt-dictate/internal/models"
	"github.com/chaz8081/gostt-dictate/internal/session"
)

// run is the dictation daemon. It returns only on setup errors; shutdown
// exits the process directly.
func run(cfg *config.Config) error {
	host, err := audio.NewMalgoHost()
	if err != nil {
		return err
	}

	injector, err := inject.NewInjector(cfg.Inject.Method)
	if err != nil {
		return err
	}

	bus := events.NewBus(0)
	sinks := events.Multi{
		events.LogSink{Logger: slog.Default()},
		events.NewNotifier(cfg.Notify.Enabled),
		bus,
	}
	var mqttSink *events.MQTTSink
	if cfg.MQTT.Broker != "" {
		mqttSink, err = events.NewMQTTSink(events.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
		})
		if err != nil {
			slog.Warn("MQTT disabled", "broker", cfg.MQTT.Broker, "err", err)
		} else {
			sinks = append(sinks, mqttSink)
		}
	}

	a := app.New(app.Options{
		Host:   host,
		Models: models.NewManager(cfg.DataDir, nil),
		Audio: audio.Options{
			MaxDuration: cfg.Audio.MaxDuration,
			StopGrace:   cfg.Audio.StopGrace,
		},
		Sink: sinks,
	})
	if cfg.Audio.DumpDir != "" {
		a.Session().OnCapture = dumpCapture(cfg.Audio.DumpDir)
	}

	if status, err := a.CheckAudioPermissions(); err != nil {
		slog.Error("microphone unavailable", "err", err)
	} else {
		slog.Debug("microphone check", "status", status)
	}

	reg := hotkey.NewRegistrar(cfg.Hotkey.Mode, a.Session().Flag().IsSet)
	a.SetShortcutBinder(reg)
	a.Init()

	s := a.GetWhisperSettings()
	printBanner(cfg, s.ActiveModel, reg.Accelerator(), s.SelectedDevice)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("Ready! Ctrl+C to quit.", "shortcut", reg.Accelerator())

	hotkeyEvents := reg.Events()
	for {
		select {
		case ev, ok := <-hotkeyEvents:
			if !ok {
				slog.Info("hotkey registrar stopped")
				shutdown(a, host, mqttSink, bus)
				return nil
			}

			switch ev.Type {
			case hotkey.EventStart:
				if err := a.StartRecording(); err != nil {
					logCommandError("start recording", err)
				}
			case hotkey.EventStop:
				go dictate(a, injector)
			}

		case sig := <-sigCh:
			slog.Info("shutting down", "signal", sig.String())
			a.CancelRecording()
			shutdown(a, host, mqttSink, bus)
			// Exit directly to avoid gohook's C cleanup crash.
			// The OS reclaims the event hook on process exit.
			os.Exit(0)
		}
	}
}

// dictate finishes the current recording and types the transcript.
func dictate(a *app.App, injector inject.TextInjector) {
	text, err := a.StopAndTranscribe()
	if err != nil {
		if errors.Is(err, session.ErrNoActiveRecording) {
			slog.Debug("stop without an active recording")
			return
		}
		logCommandError("transcribe", err)
		return
	}
	if text == "" {
		slog.Info("no speech detected")
		return
	}
	if err := injector.Inject(text); err != nil {
		slog.Error("text injection failed", "err", err)
		return
	}
	slog.Debug("text injected", "chars", len(text))
}

func logCommandError(op string, err error) {
	if app.IsUserError(err) {
		slog.Warn(op, "err", err)
		return
	}
	slog.Error(op, "err", err)
}

// dumpCapture writes every validated capture to dir as <session>.wav.
func dumpCapture(dir string) func(id string, samples []float32) {
	return func(id string, samples []float32) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Warn("capture dump", "dir", dir, "err", err)
			return
		}
		path := filepath.Join(dir, id+".wav")
		if err := audio.WriteWAV(path, samples, audio.TargetSampleRate); err != nil {
			slog.Warn("capture dump", "path", path, "err", err)
			return
		}
		slog.Debug("capture saved", "path", path)
	}
}

func shutdown(a *app.App, host *audio.MalgoHost, mqttSink *events.MQTTSink, bus *events.Bus) {
	fmt.Println(summarize(bus.Since(0)))
	if mqttSink != nil {
		mqttSink.Close()
	}
	if err := a.Close(); err != nil {
		slog.Warn("closing model", "err", err)
	}
	if err := host.Close(); err != nil {
		slog.Warn("closing audio host", "err", err)
	}
	slog.Info("Goodbye!")
}

// summarize counts the session's dictations from the event history.
func summarize(history []events.Event) string {
	var ok, failed, truncated int
	for _, ev := range history {
		switch ev.Name {
		case events.TranscriptionComplete:
			ok++
		case events.TranscriptionError:
			failed++
		case events.RecordingTruncated:
			truncated++
		}
	}
	return fmt.Sprintf("Dictations: %d transcribed, %d failed, %d truncated", ok, failed, truncated)
}
