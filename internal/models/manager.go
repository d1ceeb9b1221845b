package models

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

const settingsFile = "whisper-settings.json"

// Manager resolves models and settings under an app data directory.
type Manager struct {
	dataDir string
	client  *http.Client
	catalog []ModelInfo

	// mu serializes settings read-modify-write within the process.
	mu sync.Mutex
}

// NewManager returns a Manager rooted at dataDir. A nil client uses
// http.DefaultClient.
func NewManager(dataDir string, client *http.Client) *Manager {
	return NewManagerWithCatalog(dataDir, client, Catalog)
}

// NewManagerWithCatalog is NewManager with a custom catalog, for mirrors
// and tests.
func NewManagerWithCatalog(dataDir string, client *http.Client, catalog []ModelInfo) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	return &Manager{dataDir: dataDir, client: client, catalog: catalog}
}

// ModelsDir is where model files live.
func (m *Manager) ModelsDir() string {
	return filepath.Join(m.dataDir, "models")
}

// SettingsPath is the settings JSON file.
func (m *Manager) SettingsPath() string {
	return filepath.Join(m.dataDir, settingsFile)
}

func (m *Manager) lookup(id string) (ModelInfo, error) {
	for _, info := range m.catalog {
		if info.ID == id {
			return info, nil
		}
	}
	return ModelInfo{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
}

// List reports every catalog model and whether it is on disk. It only
// looks at the filesystem.
func (m *Manager) List() []ModelStatus {
	out := make([]ModelStatus, 0, len(m.catalog))
	for _, info := range m.catalog {
		st := ModelStatus{Info: info}
		path := filepath.Join(m.ModelsDir(), info.Filename)
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			st.Downloaded = true
			st.Path = path
		}
		out = append(out, st)
	}
	return out
}

// Path returns where the model file for id lives, downloaded or not.
func (m *Manager) Path(id string) (string, error) {
	info, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.ModelsDir(), info.Filename), nil
}

// DownloadedPath returns the model path if the file exists, else
// ErrNotDownloaded.
func (m *Manager) DownloadedPath(id string) (string, error) {
	path, err := m.Path(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotDownloaded, id)
	}
	return path, nil
}

// Delete removes a model file. A model that is not on disk is not an error.
func (m *Manager) Delete(id string) error {
	path, err := m.Path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete %s: %v", ErrIO, id, err)
	}
	return nil
}
