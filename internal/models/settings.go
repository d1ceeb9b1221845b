package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultShortcut is the global dictation shortcut when none is stored.
const DefaultShortcut = "Alt+Space"

// DefaultLanguage lets whisper detect the spoken language.
const DefaultLanguage = "auto"

// Settings is the persisted dictation configuration. Empty ActiveModel and
// SelectedDevice mean none is chosen.
type Settings struct {
	ActiveModel    string `json:"active_model,omitempty"`
	Language       string `json:"language"`
	Shortcut       string `json:"shortcut"`
	SelectedDevice string `json:"selected_device,omitempty"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		Language: DefaultLanguage,
		Shortcut: DefaultShortcut,
	}
}

// withDefaults fills fields that must never be empty.
func (s Settings) withDefaults() Settings {
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.Shortcut == "" {
		s.Shortcut = DefaultShortcut
	}
	return s
}

// LoadSettings reads the settings file. A missing or unreadable file yields
// defaults; settings are convenience state and never block startup.
func (m *Manager) LoadSettings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadSettings()
}

func (m *Manager) loadSettings() Settings {
	path := m.SettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("[models] reading settings, using defaults", "path", path, "err", err)
		}
		return DefaultSettings()
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("[models] parsing settings, using defaults", "path", path, "err", err)
		return DefaultSettings()
	}
	return s.withDefaults()
}

// SaveSettings replaces the settings file atomically.
func (m *Manager) SaveSettings(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveSettings(s)
}

func (m *Manager) saveSettings(s Settings) error {
	s = s.withDefaults()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("models: encoding settings: %w", err)
	}

	if err := os.MkdirAll(m.dataDir, 0755); err != nil {
		return fmt.Errorf("%w: creating data dir: %v", ErrIO, err)
	}
	f, err := os.CreateTemp(m.dataDir, settingsFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp settings: %v", ErrIO, err)
	}
	tmpPath := f.Name()
	_, err = f.Write(append(data, '\n'))
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: writing settings: %v", ErrIO, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(m.dataDir, settingsFile)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: replacing settings: %v", ErrIO, err)
	}
	return nil
}

// UpdateSettings loads the settings, applies fn and saves the result.
func (m *Manager) UpdateSettings(fn func(*Settings)) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.loadSettings()
	fn(&s)
	if err := m.saveSettings(s); err != nil {
		return Settings{}, err
	}
	return s.withDefaults(), nil
}
