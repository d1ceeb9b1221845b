package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "gostt-dictate"

// Config holds process-level configuration. Dictation settings (model,
// language, shortcut, device) live in the data dir's settings JSON instead.
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	LogLevel string         `yaml:"log_level"`
	Hotkey   HotkeyConfig   `yaml:"hotkey"`
	Audio    AudioConfig    `yaml:"audio"`
	Inject   InjectConfig   `yaml:"inject"`
	Notify   NotifyConfig   `yaml:"notify"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Download DownloadConfig `yaml:"download"`
}

// HotkeyConfig holds hotkey-related settings.
type HotkeyConfig struct {
	Mode string `yaml:"mode"` // "hold" or "toggle"
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	MaxDuration time.Duration `yaml:"max_duration"`
	StopGrace   time.Duration `yaml:"stop_grace"`
	DumpDir     string        `yaml:"dump_dir"` // empty disables capture dumps
}

// InjectConfig holds text injection settings.
type InjectConfig struct {
	Method string `yaml:"method"` // "type", "paste" or "none"
}

// NotifyConfig toggles desktop notifications.
type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MQTTConfig configures the optional MQTT event sink. An empty broker
// disables it.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DownloadConfig holds model download settings.
type DownloadConfig struct {
	Timeout time.Duration `yaml:"timeout"` // 0 means no overall timeout
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultDataDir returns where models and settings live by default.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		DataDir:  DefaultDataDir(),
		LogLevel: "info",
		Hotkey: HotkeyConfig{
			Mode: "hold",
		},
		Audio: AudioConfig{
			MaxDuration: 10 * time.Minute,
			StopGrace:   50 * time.Millisecond,
		},
		Inject: InjectConfig{
			Method: "type",
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
		MQTT: MQTTConfig{
			Topic:    appName,
			ClientID: appName,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.expandPaths()
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// ApplyEnv overrides config values from GOSTT_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GOSTT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("GOSTT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GOSTT_MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("GOSTT_MQTT_USERNAME"); v != "" {
		c.MQTT.Username = v
	}
	if v := os.Getenv("GOSTT_MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
	c.expandPaths()
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}

	switch c.Hotkey.Mode {
	case "hold", "toggle":
	default:
		return fmt.Errorf("hotkey.mode must be \"hold\" or \"toggle\", got %q", c.Hotkey.Mode)
	}

	if c.Audio.MaxDuration < 0 {
		return fmt.Errorf("audio.max_duration must be >= 0")
	}
	if c.Audio.StopGrace < 0 || c.Audio.StopGrace > time.Second {
		return fmt.Errorf("audio.stop_grace must be between 0 and 1s, got %s", c.Audio.StopGrace)
	}

	switch c.Inject.Method {
	case "type", "paste", "none":
	default:
		return fmt.Errorf("inject.method must be \"type\", \"paste\" or \"none\", got %q", c.Inject.Method)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if c.MQTT.Broker != "" && strings.TrimSpace(c.MQTT.Topic) == "" {
		return fmt.Errorf("mqtt.topic must not be empty when mqtt.broker is set")
	}

	if c.Download.Timeout < 0 {
		return fmt.Errorf("download.timeout must be >= 0")
	}

	return nil
}

// ParseLogLevel maps a config log level to slog. Unknown values are info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultHeader = `# gostt-dictate configuration
# Model, language, shortcut and input device are managed by the app and
# stored in <data_dir>/whisper-settings.json.
`

// WriteDefault writes the default config to DefaultConfigPath and returns
// the path. If a config file already exists it returns ("", nil) and leaves
// it untouched.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

func (c *Config) expandPaths() {
	c.DataDir = expandTilde(c.DataDir)
	c.Audio.DumpDir = expandTilde(c.Audio.DumpDir)
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
