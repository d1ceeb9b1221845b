// Package inject delivers a transcript to the active application using
// robotgo for keystroke simulation or clipboard paste.
package inject

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/go-vgo/robotgo"
)

// Injection methods.
const (
	MethodType  = "type"
	MethodPaste = "paste"
	MethodNone  = "none"
)

// keyboard is the subset of robotgo the injector uses.
type keyboard interface {
	Type(text string)
	ReadAll() (string, error)
	WriteAll(text string) error
	KeyTap(key string, modifier string) error
}

type robotgoKeyboard struct{}

func (robotgoKeyboard) Type(text string)           { robotgo.Type(text) }
func (robotgoKeyboard) ReadAll() (string, error)   { return robotgo.ReadAll() }
func (robotgoKeyboard) WriteAll(text string) error { return robotgo.WriteAll(text) }
func (robotgoKeyboard) KeyTap(key, modifier string) error {
	return robotgo.KeyTap(key, modifier)
}

// TextInjector delivers text to wherever the user is typing.
type TextInjector interface {
	Inject(text string) error
}

var _ TextInjector = (*Injector)(nil)

// Injector handles typing or pasting text into the active application.
type Injector struct {
	method string
	kb     keyboard
}

// Validate reports whether method is a known injection method.
func Validate(method string) error {
	switch method {
	case MethodType, MethodPaste, MethodNone:
		return nil
	default:
		return fmt.Errorf("inject: unknown method %q (want type, paste or none)", method)
	}
}

// NewInjector creates an Injector with the given method.
func NewInjector(method string) (*Injector, error) {
	if err := Validate(method); err != nil {
		return nil, err
	}
	return &Injector{method: method, kb: robotgoKeyboard{}}, nil
}

// Method returns the configured method.
func (inj *Injector) Method() string { return inj.method }

// Inject sends text to the active application using the configured method.
func (inj *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}

	switch inj.method {
	case MethodNone:
		return nil
	case MethodPaste:
		return inj.paste(text)
	default:
		inj.kb.Type(text)
		return nil
	}
}

// paste copies text to the clipboard, sends the platform paste shortcut and
// restores the previous clipboard.
func (inj *Injector) paste(text string) error {
	prev, err := inj.kb.ReadAll()
	if err != nil {
		slog.Debug("[inject] clipboard read failed", "err", err)
	}

	if err := inj.kb.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write to clipboard: %w", err)
	}

	mod := pasteModifier()
	if err := inj.kb.KeyTap("v", mod); err != nil {
		return fmt.Errorf("inject: key tap %s+v: %w", mod, err)
	}

	// Best effort.
	_ = inj.kb.WriteAll(prev)
	return nil
}

func pasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
