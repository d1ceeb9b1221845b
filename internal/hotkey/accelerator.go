package hotkey

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/vcaesar/keycode"
)

// ErrInvalidAccelerator is returned for shortcut strings that cannot be bound.
var ErrInvalidAccelerator = errors.New("hotkey: invalid accelerator")

// aliases maps accelerator spellings onto gohook key names.
var aliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"command": "cmd",
	"super":   "cmd",
	"meta":    "cmd",
	"return":  "enter",
	"escape":  "esc",
	"del":     "delete",
}

// ParseAccelerator turns a string like "Alt+Space" or "CmdOrCtrl+Shift+D"
// into the lowercase key names gohook registers. Every key must be known.
func ParseAccelerator(accel string) ([]string, error) {
	if strings.TrimSpace(accel) == "" {
		return nil, fmt.Errorf("%w: empty shortcut", ErrInvalidAccelerator)
	}

	parts := strings.Split(accel, "+")
	keys := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		k := normalizeKey(p)
		if k == "" {
			return nil, fmt.Errorf("%w: empty key in %q", ErrInvalidAccelerator, accel)
		}
		if _, ok := keycode.Keycode[k]; !ok {
			return nil, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidAccelerator, strings.TrimSpace(p), accel)
		}
		if seen[k] {
			return nil, fmt.Errorf("%w: %q repeats %q", ErrInvalidAccelerator, accel, k)
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys, nil
}

func normalizeKey(s string) string {
	k := strings.ToLower(strings.TrimSpace(s))
	if k == "cmdorctrl" || k == "commandorcontrol" {
		if runtime.GOOS == "darwin" {
			return "cmd"
		}
		return "ctrl"
	}
	if a, ok := aliases[k]; ok {
		return a
	}
	return k
}
