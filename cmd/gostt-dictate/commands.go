package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/chaz8081/gostt-dictate/internal/app"
	"github.com/chaz8081/gostt-dictate/internal/audio"
	"github.com/chaz8081/gostt-dictate/internal/config"
	"github.com/chaz8081/gostt-dictate/internal/events"
	"github.com/chaz8081/gostt-dictate/internal/models"
)

func dispatch(cfg *config.Config, cmd string, args []string) error {
	switch cmd {
	case "run":
		return run(cfg)
	case "init-config":
		return initConfig()
	case "models":
		return listModels(cfg)
	case "download":
		return withID(args, func(id string) error { return download(cfg, id) })
	case "delete":
		return withID(args, func(id string) error { return newApp(cfg, nil, nil).DeleteModel(id) })
	case "use":
		return withID(args, func(id string) error { return useModel(cfg, id) })
	case "settings":
		return printSettings(cfg)
	case "language":
		return language(cfg, args)
	case "shortcut":
		return withID(args, func(accel string) error { return newApp(cfg, nil, nil).SetShortcut(accel) })
	case "transcribe-file":
		return withID(args, func(path string) error { return transcribeFile(cfg, path) })
	case "devices", "device", "check-mic":
		return withHost(func(h audio.Host) error {
			a := newApp(cfg, h, nil)
			switch cmd {
			case "devices":
				return listDevices(a)
			case "device":
				return device(a, args)
			default:
				status, err := a.CheckAudioPermissions()
				if err != nil {
					return err
				}
				fmt.Println(status)
				return nil
			}
		})
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func withID(args []string, fn func(string) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one argument, got %d", len(args))
	}
	return fn(args[0])
}

func withHost(fn func(audio.Host) error) error {
	host, err := audio.NewMalgoHost()
	if err != nil {
		return err
	}
	defer host.Close()
	return fn(host)
}

// newApp wires the command surface for one CLI invocation.
func newApp(cfg *config.Config, host audio.Host, sink events.Sink) *app.App {
	return app.New(app.Options{
		Host:   host,
		Models: models.NewManager(cfg.DataDir, nil),
		Audio: audio.Options{
			MaxDuration: cfg.Audio.MaxDuration,
			StopGrace:   cfg.Audio.StopGrace,
		},
		Sink: sink,
	})
}

func initConfig() error {
	path, err := config.WriteDefault()
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Printf("Config already exists at %s\n", config.DefaultConfigPath())
		return nil
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func listModels(cfg *config.Config) error {
	a := newApp(cfg, nil, nil)
	active := a.GetWhisperSettings().ActiveModel

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDESCRIPTION")
	for _, st := range a.ListModels() {
		status := "-"
		if st.Downloaded {
			status = "downloaded"
		}
		if st.Info.ID == active {
			status += " (active)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Info.ID, status, st.Info.Description)
	}
	return w.Flush()
}

func download(cfg *config.Config, id string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Download.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Download.Timeout)
		defer cancel()
	}

	progress := events.SinkFunc(func(name string, payload any) {
		p, ok := payload.(events.DownloadProgress)
		if name != events.ModelDownloadProgress || !ok || p.Total <= 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "\r%s: %3d%% (%d / %d MB)", p.ModelID, p.Downloaded*100/p.Total, p.Downloaded>>20, p.Total>>20)
	})

	path, err := newApp(cfg, nil, progress).DownloadModel(ctx, id)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded %s to %s\n", id, path)
	return nil
}

func useModel(cfg *config.Config, id string) error {
	a := newApp(cfg, nil, nil)
	defer a.Close()
	if err := a.SetActiveModel(id); err != nil {
		if errors.Is(err, models.ErrNotDownloaded) {
			return fmt.Errorf("%w (run: gostt-dictate download %s)", err, id)
		}
		return err
	}
	fmt.Printf("Active model: %s\n", id)
	return nil
}

func printSettings(cfg *config.Config) error {
	data, err := json.MarshalIndent(newApp(cfg, nil, nil).GetWhisperSettings(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func language(cfg *config.Config, args []string) error {
	a := newApp(cfg, nil, nil)
	s := a.GetWhisperSettings()
	if len(args) == 0 {
		fmt.Println(s.Language)
		return nil
	}
	s.Language = args[0]
	return a.SetWhisperSettings(s)
}

func transcribeFile(cfg *config.Config, path string) error {
	a := newApp(cfg, nil, nil)
	defer a.Close()
	a.Init()
	if !a.IsModelLoaded() {
		return fmt.Errorf("no model loaded (run: gostt-dictate use <id>)")
	}
	text, err := a.TranscribeFile(path)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func listDevices(a *app.App) error {
	devices, err := a.ListAudioDevices()
	if err != nil {
		return err
	}
	selected := a.GetWhisperSettings().SelectedDevice
	for _, d := range devices {
		mark := " "
		if d.Name == selected || (selected == "" && d.IsDefault) {
			mark = "*"
		}
		suffix := ""
		if d.IsDefault {
			suffix = " (default)"
		}
		fmt.Printf("%s %s%s\n", mark, d.Name, suffix)
	}
	return nil
}

func device(a *app.App, args []string) error {
	if len(args) == 0 {
		name := a.GetWhisperSettings().SelectedDevice
		if name == "" {
			name = "system default"
		}
		fmt.Println(name)
		return nil
	}
	if err := a.SetAudioDevice(args[0]); err != nil {
		return err
	}
	slog.Info("input device selected", "device", args[0])
	return nil
}
