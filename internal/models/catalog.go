// Package models manages the whisper.cpp model catalog, downloads and the
// dictation settings file stored next to the models.
package models

import "errors"

// Errors returned by the model manager.
var (
	ErrUnknownModel  = errors.New("models: unknown model")
	ErrNotDownloaded = errors.New("models: model not downloaded")
	ErrNetwork       = errors.New("models: download failed")
	ErrIO            = errors.New("models: file error")
)

const baseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// ModelInfo is a compiled-in catalog entry.
type ModelInfo struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	SizeBytes   int64  `json:"size_bytes"`
	Description string `json:"description"`
}

// ModelStatus is a catalog entry plus its state on disk.
type ModelStatus struct {
	Info       ModelInfo `json:"info"`
	Downloaded bool      `json:"downloaded"`
	Path       string    `json:"path,omitempty"`
}

// Catalog lists the supported models from smallest to largest.
var Catalog = []ModelInfo{
	{
		ID:          "tiny",
		Filename:    "ggml-tiny.bin",
		URL:         baseURL + "ggml-tiny.bin",
		SizeBytes:   75_000_000,
		Description: "Tiny (~75MB) - Fastest, lower accuracy",
	},
	{
		ID:          "base",
		Filename:    "ggml-base.bin",
		URL:         baseURL + "ggml-base.bin",
		SizeBytes:   142_000_000,
		Description: "Base (~142MB) - Good balance",
	},
	{
		ID:          "small",
		Filename:    "ggml-small.bin",
		URL:         baseURL + "ggml-small.bin",
		SizeBytes:   466_000_000,
		Description: "Small (~466MB) - Better accuracy",
	},
	{
		ID:          "medium",
		Filename:    "ggml-medium.bin",
		URL:         baseURL + "ggml-medium.bin",
		SizeBytes:   1_530_000_000,
		Description: "Medium (~1.5GB) - Best accuracy, slower",
	},
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (ModelInfo, bool) {
	for _, m := range Catalog {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}
