package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if cfg.Hotkey.Mode != "hold" {
		t.Errorf("Hotkey.Mode = %q, want %q", cfg.Hotkey.Mode, "hold")
	}
	if cfg.Audio.MaxDuration != 10*time.Minute {
		t.Errorf("Audio.MaxDuration = %s, want 10m", cfg.Audio.MaxDuration)
	}
	if cfg.Audio.StopGrace != 50*time.Millisecond {
		t.Errorf("Audio.StopGrace = %s, want 50ms", cfg.Audio.StopGrace)
	}
	if cfg.Inject.Method != "type" {
		t.Errorf("Inject.Method = %q, want %q", cfg.Inject.Method, "type")
	}
	if cfg.MQTT.Broker != "" {
		t.Errorf("MQTT.Broker = %q, want empty (disabled)", cfg.MQTT.Broker)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
data_dir: /tmp/gostt-data
hotkey:
  mode: toggle
audio:
  max_duration: 2m
  stop_grace: 100ms
  dump_dir: /tmp/captures
inject:
  method: paste
notify:
  enabled: false
mqtt:
  broker: tcp://localhost:1883
  topic: home/dictation
download:
  timeout: 30m
log_level: debug
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != "/tmp/gostt-data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/tmp/gostt-data")
	}
	if cfg.Hotkey.Mode != "toggle" {
		t.Errorf("Hotkey.Mode = %q, want %q", cfg.Hotkey.Mode, "toggle")
	}
	if cfg.Audio.MaxDuration != 2*time.Minute || cfg.Audio.StopGrace != 100*time.Millisecond {
		t.Errorf("Audio = %+v", cfg.Audio)
	}
	if cfg.Audio.DumpDir != "/tmp/captures" {
		t.Errorf("Audio.DumpDir = %q", cfg.Audio.DumpDir)
	}
	if cfg.Inject.Method != "paste" {
		t.Errorf("Inject.Method = %q, want %q", cfg.Inject.Method, "paste")
	}
	if cfg.Notify.Enabled {
		t.Error("Notify.Enabled = true, want false")
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.Topic != "home/dictation" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.MQTT.ClientID != "gostt-dictate" {
		t.Errorf("MQTT.ClientID = %q, want default", cfg.MQTT.ClientID)
	}
	if cfg.Download.Timeout != 30*time.Minute {
		t.Errorf("Download.Timeout = %s, want 30m", cfg.Download.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	yamlContent := `
data_dir: ~/dictation
audio:
  dump_dir: ~/dictation/captures
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := filepath.Join(home, "dictation"); cfg.DataDir != want {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, want)
	}
	if want := filepath.Join(home, "dictation/captures"); cfg.Audio.DumpDir != want {
		t.Errorf("Audio.DumpDir = %q, want %q", cfg.Audio.DumpDir, want)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("audio: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty data dir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: true,
		},
		{
			name:    "invalid hotkey mode",
			modify:  func(c *Config) { c.Hotkey.Mode = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid inject method",
			modify:  func(c *Config) { c.Inject.Method = "ble" },
			wantErr: true,
		},
		{
			name:    "inject disabled",
			modify:  func(c *Config) { c.Inject.Method = "none" },
			wantErr: false,
		},
		{
			name:    "negative max duration",
			modify:  func(c *Config) { c.Audio.MaxDuration = -time.Second },
			wantErr: true,
		},
		{
			name:    "unbounded recording",
			modify:  func(c *Config) { c.Audio.MaxDuration = 0 },
			wantErr: false,
		},
		{
			name:    "stop grace too long",
			modify:  func(c *Config) { c.Audio.StopGrace = 5 * time.Second },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
		{
			name: "mqtt broker without topic",
			modify: func(c *Config) {
				c.MQTT.Broker = "tcp://localhost:1883"
				c.MQTT.Topic = ""
			},
			wantErr: true,
		},
		{
			name:    "negative download timeout",
			modify:  func(c *Config) { c.Download.Timeout = -time.Minute },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GOSTT_DATA_DIR", "/srv/gostt")
	t.Setenv("GOSTT_LOG_LEVEL", "debug")
	t.Setenv("GOSTT_MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("GOSTT_MQTT_USERNAME", "")

	cfg := Default()
	cfg.MQTT.Username = "from-file"
	cfg.ApplyEnv()

	if cfg.DataDir != "/srv/gostt" {
		t.Errorf("DataDir = %q, want /srv/gostt", cfg.DataDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("MQTT.Broker = %q", cfg.MQTT.Broker)
	}
	if cfg.MQTT.Username != "from-file" {
		t.Errorf("empty env var overrode MQTT.Username: %q", cfg.MQTT.Username)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "GOSTT_TEST_DOTENV_BROKER"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=tcp://dotenv:1883\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(key); got != "tcp://dotenv:1883" {
		t.Errorf("%s = %q after LoadDotEnv", key, got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("LoadDotEnv(missing) error = %v, want nil", err)
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	// Use a temp dir as fake home to avoid touching real config
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	expectedPath := filepath.Join(tmpHome, ".config", "gostt-dictate", "config.yaml")
	if path != expectedPath {
		t.Errorf("WriteDefault() path = %q, want %q", path, expectedPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}

	if !strings.HasPrefix(string(data), "# gostt-dictate") {
		t.Error("written config should start with header comment")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Hotkey.Mode != "hold" {
		t.Errorf("written config Hotkey.Mode = %q, want %q", cfg.Hotkey.Mode, "hold")
	}
	if cfg.Audio.MaxDuration != 10*time.Minute {
		t.Errorf("written config Audio.MaxDuration = %s, want 10m", cfg.Audio.MaxDuration)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load(written) error = %v", err)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("written config does not validate: %v", err)
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "gostt-dictate")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	existingContent := []byte("data_dir: /custom/data\n")
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	// WriteDefault should return ("", nil) without overwriting
	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("WriteDefault() path = %q, want empty string for existing file", path)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != string(existingContent) {
		t.Error("WriteDefault() should not overwrite existing config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
