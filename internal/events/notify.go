package events

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"
)

const appName = "gostt-dictate"

// notifyFunc is swapped out in tests.
var notifyFunc = beeep.Notify

// Notifier shows desktop notifications for the events a user cares about
// when the app has no window in front.
type Notifier struct {
	enabled bool
}

// NewNotifier creates a Notifier.
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// Emit implements Sink.
func (n *Notifier) Emit(name string, payload any) {
	if !n.enabled {
		return
	}
	switch name {
	case TranscriptionComplete:
		text := fmt.Sprint(payload)
		if text == "" {
			n.notify("No speech detected", "Nothing was transcribed.")
			return
		}
		n.notify("Transcribed", truncate(text, 100))
	case TranscriptionError:
		n.notify("Dictation failed", fmt.Sprint(payload))
	case RecordingTruncated:
		n.notify("Recording too long", fmt.Sprint(payload))
	}
}

func (n *Notifier) notify(title, message string) {
	if err := notifyFunc(appName+": "+title, message, ""); err != nil {
		slog.Debug("[notify] desktop notification failed", "err", err)
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
