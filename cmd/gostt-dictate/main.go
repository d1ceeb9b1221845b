// Command gostt-dictate is a push-to-talk dictation daemon: hold (or
// toggle) a global shortcut, speak, and the transcript is typed into the
// focused application. Subcommands manage models, settings and devices.
//
// Usage:
//
//	gostt-dictate [-config path] [command] [args]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chaz8081/gostt-dictate/internal/config"
)

const usage = `Usage: gostt-dictate [-config path] [command] [args]

Commands:
  run                   start the dictation daemon (default)
  models                list catalog models and download state
  download <id>         download a model
  delete <id>           delete a downloaded model
  use <id>              load a downloaded model and make it active
  devices               list input devices
  device [name]         show or select the input device ("" for default)
  language [code]       show or set the transcription language
  shortcut <accel>      set the global shortcut, e.g. Alt+Space
  settings              print the dictation settings
  check-mic             check microphone access
  transcribe-file <wav> transcribe a WAV file with the active model
  init-config           write the default config file
`

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/gostt-dictate/config.yaml)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	args := flag.Args()
	cmd := "run"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	if err := dispatch(cfg, cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "gostt-dictate %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults. A .env next to the
// config file and GOSTT_* variables are applied on top.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}

	if err := config.LoadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if _, err := os.Stat(path); err == nil || explicit {
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	} else {
		cfg = config.Default()
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config, model, shortcut, device string) {
	if model == "" {
		model = "(none, run: gostt-dictate download base && gostt-dictate use base)"
	}
	if device == "" {
		device = "system default"
	}
	fmt.Println("=== gostt-dictate ===")
	fmt.Printf("  Model:   %s\n", model)
	fmt.Printf("  Hotkey:  %s (%s mode)\n", shortcut, cfg.Hotkey.Mode)
	fmt.Printf("  Device:  %s\n", device)
	fmt.Printf("  Inject:  %s\n", cfg.Inject.Method)
	fmt.Printf("  Data:    %s\n", cfg.DataDir)
	fmt.Printf("  Log:     %s\n", cfg.LogLevel)
	fmt.Println("=====================")
}
