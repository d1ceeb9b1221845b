package audio

import "fmt"

// Device is an audio input device as shown to the user. Name is its
// identity; there is no stable ID across enumerations.
type Device struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// DataFunc receives raw interleaved samples from the capture thread. raw is
// only valid for the duration of the call.
type DataFunc func(raw []byte, frames int)

// Stream is an open capture stream. Close stops it and returns only after
// in-flight callbacks have finished.
type Stream interface {
	Close() error
}

// Host is the platform audio layer. An empty device name selects the
// system default input.
type Host interface {
	InputDevices() ([]Device, error)
	NativeConfig(deviceName string) (StreamConfig, error)
	OpenStream(deviceName string, cfg StreamConfig, onData DataFunc) (Stream, error)
}

// ListDevices enumerates input devices. Zero devices is an error because
// any capture attempt would fail anyway.
func ListDevices(h Host) ([]Device, error) {
	devices, err := h.InputDevices()
	if err != nil {
		return nil, fmt.Errorf("audio: enumerate input devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	return devices, nil
}

// findDevice checks that name is a current input device. The empty name
// resolves to the default device if one exists.
func findDevice(h Host, name string) error {
	devices, err := ListDevices(h)
	if err != nil {
		return err
	}
	if name == "" {
		return nil
	}
	for _, d := range devices {
		if d.Name == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}
