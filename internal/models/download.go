package models

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressFunc is called after every chunk with the bytes written so far
// and the expected total.
type ProgressFunc func(downloaded, total int64)

// Download fetches model id into the models directory and returns its
// path. The body is streamed to a temporary file that is renamed into
// place only after a complete write, so a failed download never leaves a
// file at the final name. Concurrent downloads of the same id each use
// their own temporary file and the last rename wins.
func (m *Manager) Download(ctx context.Context, id string, onProgress ProgressFunc) (string, error) {
	info, err := m.lookup(id)
	if err != nil {
		return "", err
	}

	dir := m.ModelsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating models dir: %v", ErrIO, err)
	}
	destPath := filepath.Join(dir, info.Filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s: HTTP %d", ErrNetwork, info.URL, resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.SizeBytes
	}

	slog.Info("[models] downloading", "model", id, "url", info.URL, "dest", destPath, "total", total)

	f, err := os.CreateTemp(dir, info.Filename+".*.part")
	if err != nil {
		return "", fmt.Errorf("%w: creating temp file: %v", ErrIO, err)
	}
	tmpPath := f.Name()

	pw := &progressWriter{writer: f, total: total, onProgress: onProgress}
	written, copyErr := io.Copy(pw, resp.Body)
	if copyErr == nil {
		copyErr = f.Sync()
	}
	closeErr := f.Close()

	if copyErr != nil {
		_ = os.Remove(tmpPath)
		if pw.writeErr != nil {
			return "", fmt.Errorf("%w: writing model file: %v", ErrIO, pw.writeErr)
		}
		return "", fmt.Errorf("%w: reading body: %v", ErrNetwork, copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: closing model file: %v", ErrIO, closeErr)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: short body: got %d of %d bytes", ErrNetwork, written, resp.ContentLength)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: moving model file: %v", ErrIO, err)
	}

	slog.Info("[models] downloaded", "model", id, "bytes", written)
	return destPath, nil
}

// progressWriter reports bytes written after every write.
type progressWriter struct {
	writer     io.Writer
	total      int64
	written    int64
	onProgress ProgressFunc
	writeErr   error
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if err != nil {
		pw.writeErr = err
		return n, err
	}
	if pw.onProgress != nil {
		pw.onProgress(pw.written, pw.total)
	}
	return n, nil
}
