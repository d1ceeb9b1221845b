package transcribe

import (
	"log/slog"
	"sync"
	"time"
)

// LoadFunc opens a transcriber for a model file.
type LoadFunc func(modelPath, language string) (Transcriber, error)

// LoadWhisper is the LoadFunc for whisper.cpp models.
func LoadWhisper(modelPath, language string) (Transcriber, error) {
	return NewWhisperTranscriber(modelPath, language)
}

// Holder owns the single loaded transcriber. Loading a new model replaces
// and closes the previous one; while a load is in progress Process waits.
type Holder struct {
	load LoadFunc

	mu   sync.RWMutex
	cur  Transcriber
	path string
}

// NewHolder returns an empty Holder that loads models with load.
func NewHolder(load LoadFunc) *Holder {
	return &Holder{load: load}
}

// Load opens modelPath and makes it the active transcriber. On failure the
// previously loaded model has already been released and the holder is
// left empty.
func (h *Holder) Load(modelPath, language string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cur != nil {
		if err := h.cur.Close(); err != nil {
			slog.Warn("[transcribe] closing previous model", "path", h.path, "err", err)
		}
		h.cur, h.path = nil, ""
	}

	start := time.Now()
	tr, err := h.load(modelPath, language)
	if err != nil {
		return err
	}
	h.cur, h.path = tr, modelPath
	slog.Info("[transcribe] model loaded", "path", modelPath, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// Loaded reports whether a model is ready.
func (h *Holder) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cur != nil
}

// ModelPath returns the path of the loaded model, or "".
func (h *Holder) ModelPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.path
}

// Process transcribes with the loaded model.
func (h *Holder) Process(samples []float32) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.cur == nil {
		return "", ErrNoModelLoaded
	}
	return h.cur.Process(samples)
}

// Close releases the loaded model.
func (h *Holder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return nil
	}
	err := h.cur.Close()
	h.cur, h.path = nil, ""
	return err
}
