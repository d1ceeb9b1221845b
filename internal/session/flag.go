package session

import "sync/atomic"

// Flag is the process-wide "is recording" state. The controller owns it and
// hands the same pointer to trigger paths such as the hotkey loop.
type Flag struct {
	v atomic.Bool
}

// TrySet sets the flag if it was clear and reports whether it did.
func (f *Flag) TrySet() bool { return f.v.CompareAndSwap(false, true) }

// IsSet reports whether a session is active.
func (f *Flag) IsSet() bool { return f.v.Load() }

// Clear marks the session inactive.
func (f *Flag) Clear() { f.v.Store(false) }
