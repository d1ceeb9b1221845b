package audio

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// MalgoHost implements Host on top of miniaudio.
type MalgoHost struct {
	ctx *malgo.AllocatedContext
}

// NewMalgoHost initializes an audio context. Call Close() when done.
func NewMalgoHost() (*MalgoHost, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		slog.Debug("[audio] miniaudio", "msg", strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, fmt.Errorf("audio: initializing audio context: %w", err)
	}
	return &MalgoHost{ctx: ctx}, nil
}

// Close releases the audio context.
func (h *MalgoHost) Close() error {
	if h.ctx == nil {
		return nil
	}
	if err := h.ctx.Uninit(); err != nil {
		return fmt.Errorf("audio: uninitializing audio context: %w", err)
	}
	h.ctx.Free()
	h.ctx = nil
	return nil
}

// InputDevices lists capture devices.
func (h *MalgoHost) InputDevices() ([]Device, error) {
	infos, err := h.ctx.Context.Devices(malgo.Capture)
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(infos))
	for i := range infos {
		devices = append(devices, Device{
			Name:      infos[i].Name(),
			IsDefault: infos[i].IsDefault != 0,
		})
	}
	return devices, nil
}

// NativeConfig opens the device without starting it so miniaudio reports
// the format it would deliver natively.
func (h *MalgoHost) NativeConfig(deviceName string) (StreamConfig, error) {
	dev, unpin, err := h.initDevice(deviceName, StreamConfig{}, malgo.DeviceCallbacks{})
	if err != nil {
		return StreamConfig{}, err
	}
	defer unpin()
	defer dev.Uninit()

	cfg := StreamConfig{
		SampleRate: int(dev.SampleRate()),
		Channels:   int(dev.CaptureChannels()),
		Format:     fromMalgoFormat(dev.CaptureFormat()),
	}
	if cfg.Format == FormatUnknown {
		return cfg, fmt.Errorf("%w: native format %v", ErrUnsupportedFormat, dev.CaptureFormat())
	}
	return cfg, nil
}

// OpenStream starts capturing with the given config.
func (h *MalgoHost) OpenStream(deviceName string, cfg StreamConfig, onData DataFunc) (Stream, error) {
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frames uint32) {
			onData(pInput, int(frames))
		},
	}
	dev, unpin, err := h.initDevice(deviceName, cfg, callbacks)
	if err != nil {
		return nil, err
	}
	unpin()

	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("audio: starting capture device: %w", err)
	}
	return &malgoStream{dev: dev}, nil
}

// initDevice resolves deviceName and initializes a capture device. A zero
// config asks for the native format. The returned func unpins the device
// ID and must be called once the device is initialized.
func (h *MalgoHost) initDevice(deviceName string, cfg StreamConfig, callbacks malgo.DeviceCallbacks) (*malgo.Device, func(), error) {
	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.SampleRate = uint32(cfg.SampleRate)
	deviceCfg.Capture.Channels = uint32(cfg.Channels)
	deviceCfg.Capture.Format = malgo.FormatUnknown
	if cfg.Format != FormatUnknown {
		f, err := toMalgoFormat(cfg.Format)
		if err != nil {
			return nil, nil, err
		}
		deviceCfg.Capture.Format = f
	}

	var pinner runtime.Pinner
	if deviceName != "" {
		id, err := h.lookup(deviceName)
		if err != nil {
			return nil, nil, err
		}
		pinner.Pin(id)
		deviceCfg.Capture.DeviceID = unsafe.Pointer(id)
	}

	dev, err := malgo.InitDevice(h.ctx.Context, deviceCfg, callbacks)
	if err != nil {
		pinner.Unpin()
		return nil, nil, classifyInitError(err)
	}
	return dev, pinner.Unpin, nil
}

// lookup finds the ID of the named capture device.
func (h *MalgoHost) lookup(name string) (*malgo.DeviceID, error) {
	infos, err := h.ctx.Context.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("audio: enumerate input devices: %w", err)
	}
	for i := range infos {
		if infos[i].Name() == name {
			id := infos[i].ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// classifyInitError maps device init failures caused by missing OS
// permission to ErrPermissionDenied.
func classifyInitError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "access") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrDeviceConfig, err)
}

func fromMalgoFormat(f malgo.FormatType) SampleFormat {
	switch f {
	case malgo.FormatF32:
		return FormatF32
	case malgo.FormatS16:
		return FormatI16
	default:
		return FormatUnknown
	}
}

// toMalgoFormat fails for FormatU16, which miniaudio has no native type for.
func toMalgoFormat(f SampleFormat) (malgo.FormatType, error) {
	switch f {
	case FormatF32:
		return malgo.FormatF32, nil
	case FormatI16:
		return malgo.FormatS16, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// malgoStream owns the native device handle. The capture callback only
// touches the recorder's locked buffer, so the handle itself is used from
// the control path alone.
type malgoStream struct {
	dev *malgo.Device
}

// Close uninitializes the device, which stops it and waits for the
// callback to return.
func (s *malgoStream) Close() error {
	if s.dev == nil {
		return nil
	}
	s.dev.Uninit()
	s.dev = nil
	return nil
}
