// Package hotkey binds a global shortcut with gohook and turns it into
// start/stop events. It supports "hold" mode (press to start, release to
// stop) and "toggle" mode (press to start, press again to stop).
package hotkey

import (
	"errors"
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// ErrClosed is returned by Bind after Stop.
var ErrClosed = errors.New("hotkey: registrar stopped")

// EventType indicates whether recording should start or stop.
type EventType int

const (
	// EventStart signals that the hotkey was activated (start recording).
	EventStart EventType = iota
	// EventStop signals that the hotkey was deactivated (stop recording).
	EventStop
)

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// backend is the subset of gohook the registrar drives.
type backend interface {
	Register(when uint8, keys []string, cb func(hook.Event))
	Start() chan hook.Event
	Process(ev chan hook.Event) chan bool
	End()
}

type gohookBackend struct{}

func (gohookBackend) Register(when uint8, keys []string, cb func(hook.Event)) {
	hook.Register(when, keys, cb)
}
func (gohookBackend) Start() chan hook.Event               { return hook.Start() }
func (gohookBackend) Process(ev chan hook.Event) chan bool { return hook.Process(ev) }
func (gohookBackend) End()                                 { hook.End() }

// Registrar owns the single global shortcut binding.
type Registrar struct {
	b      backend
	mode   string // "hold" or "toggle"
	active func() bool
	ch     chan Event

	mu        sync.Mutex
	accel     string
	processed chan bool
	closed    bool

	toggleMu  sync.Mutex
	recording bool
}

// NewRegistrar creates an unbound Registrar. In toggle mode active, if not
// nil, reports whether a recording is already running so a press started
// from elsewhere (the UI button) is stopped by the next keypress.
func NewRegistrar(mode string, active func() bool) *Registrar {
	return newRegistrar(gohookBackend{}, mode, active)
}

func newRegistrar(b backend, mode string, active func() bool) *Registrar {
	return &Registrar{
		b:      b,
		mode:   mode,
		active: active,
		ch:     make(chan Event, 16),
	}
}

// Events returns the channel that receives hotkey events. It stays open
// across Bind calls and is closed by Stop.
func (r *Registrar) Events() <-chan Event {
	return r.ch
}

// Accelerator returns the currently bound shortcut, or "" when unbound.
func (r *Registrar) Accelerator() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accel
}

// Bind replaces the current binding with accel. The accelerator is parsed
// before anything is unregistered, so a bad value keeps the old binding.
func (r *Registrar) Bind(accel string) error {
	keys, err := ParseAccelerator(accel)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	r.unbindLocked()
	switch r.mode {
	case "toggle":
		r.registerToggle(keys)
	default:
		r.registerHold(keys)
	}
	r.processed = r.b.Process(r.b.Start())
	r.accel = accel

	slog.Info("[hotkey] bound", "accelerator", accel, "keys", keys, "mode", r.mode)
	return nil
}

// Stop removes the binding and closes the Events channel. It is safe to
// call multiple times.
func (r *Registrar) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.unbindLocked()
	r.closed = true
	close(r.ch)
}

// unbindLocked ends the hook loop, which drops every registration, and
// waits for the event processor to exit. Caller holds mu.
func (r *Registrar) unbindLocked() {
	if r.processed == nil {
		return
	}
	r.b.End()
	<-r.processed
	r.processed = nil
	r.accel = ""
}

// registerHold implements hold-to-talk mode:
// KeyDown -> EventStart, KeyUp -> EventStop.
func (r *Registrar) registerHold(keys []string) {
	r.b.Register(hook.KeyDown, keys, func(hook.Event) { r.send(EventStart) })
	r.b.Register(hook.KeyUp, keys, func(hook.Event) { r.send(EventStop) })
}

// registerToggle implements toggle mode:
// First press -> EventStart, second press -> EventStop, etc.
func (r *Registrar) registerToggle(keys []string) {
	r.b.Register(hook.KeyDown, keys, func(hook.Event) {
		r.toggleMu.Lock()
		defer r.toggleMu.Unlock()

		recording := r.recording
		if r.active != nil {
			recording = r.active()
		}
		if recording {
			r.send(EventStop)
		} else {
			r.send(EventStart)
		}
		r.recording = !recording
	})
}

// send never blocks the hook thread; a full channel drops the event.
func (r *Registrar) send(t EventType) {
	select {
	case r.ch <- Event{Type: t}:
	default:
		slog.Debug("[hotkey] event dropped, channel full")
	}
}
