package transcribe

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperTranscriber wraps a whisper.cpp model for speech-to-text.
type WhisperTranscriber struct {
	mu       sync.Mutex
	model    whisper.Model
	language string
}

// NewWhisperTranscriber loads a whisper model from the given path. Loading
// large models takes seconds. language is a whisper language code or
// "auto"; it only applies to multilingual models. The caller must call
// Close() when done.
func NewWhisperTranscriber(modelPath, language string) (*WhisperTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrModelLoadFailed, modelPath, err)
	}
	if language == "" {
		language = "auto"
	}
	return &WhisperTranscriber{model: model, language: language}, nil
}

// Close releases the whisper model resources.
func (t *WhisperTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model == nil {
		return nil
	}
	err := t.model.Close()
	t.model = nil
	return err
}

// Process transcribes mono 16kHz float32 audio samples to text using
// greedy decoding. Segments are joined in order and trimmed.
func (t *WhisperTranscriber) Process(samples []float32) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model == nil {
		return "", ErrNoModelLoaded
	}

	ctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("%w: create context: %v", ErrInferenceFailed, err)
	}
	ctx.SetTranslate(false)
	if t.model.IsMultilingual() {
		applyLanguage(ctx, t.language)
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("%w: process: %v", ErrInferenceFailed, err)
	}

	var sb strings.Builder
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: next segment: %v", ErrInferenceFailed, err)
		}
		sb.WriteString(seg.Text)
	}

	return strings.TrimSpace(sb.String()), nil
}

type languageSetter interface {
	SetLanguage(lang string) error
}

// applyLanguage selects lang on a multilingual context, falling back to
// auto-detection when whisper rejects the code. It returns the language in
// effect.
func applyLanguage(ctx languageSetter, lang string) string {
	if lang == "" {
		lang = "auto"
	}
	err := ctx.SetLanguage(lang)
	if err == nil {
		return lang
	}
	slog.Warn("[transcribe] unsupported language, detecting instead", "language", lang, "err", err)
	if lang == "auto" {
		return ""
	}
	if err := ctx.SetLanguage("auto"); err != nil {
		slog.Error("[transcribe] auto-detect rejected, using model default", "err", err)
		return ""
	}
	return "auto"
}
