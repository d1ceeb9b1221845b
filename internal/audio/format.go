package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SampleFormat is the native encoding of captured samples.
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatF32                  // 32-bit float, little-endian
	FormatI16                  // 16-bit signed integer, little-endian
	FormatU16                  // 16-bit unsigned integer, little-endian
)

func (f SampleFormat) String() string {
	switch f {
	case FormatF32:
		return "f32"
	case FormatI16:
		return "i16"
	case FormatU16:
		return "u16"
	default:
		return "unknown"
	}
}

// bytesPerSample returns the encoded size of one sample.
func (f SampleFormat) bytesPerSample() (int, error) {
	switch f {
	case FormatF32:
		return 4, nil
	case FormatI16, FormatU16:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// StreamConfig describes the native shape of a capture stream.
type StreamConfig struct {
	SampleRate int
	Channels   int
	Format     SampleFormat
}

// validate rejects configs the recorder cannot decode.
func (c StreamConfig) validate() error {
	if _, err := c.Format.bytesPerSample(); err != nil {
		return err
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrDeviceConfig, c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("%w: %d channels", ErrDeviceConfig, c.Channels)
	}
	return nil
}

// ToMono decodes interleaved raw samples and averages each frame across
// channels. A trailing partial frame is ignored.
func ToMono(raw []byte, channels int, format SampleFormat) ([]float32, error) {
	size, err := format.bytesPerSample()
	if err != nil {
		return nil, err
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrDeviceConfig, channels)
	}
	frames := len(raw) / (size * channels)
	return appendMono(make([]float32, 0, frames), raw, channels, format), nil
}

// appendMono is the allocation-free core of ToMono used on the capture
// callback. format must already be validated.
func appendMono(dst []float32, raw []byte, channels int, format SampleFormat) []float32 {
	size, err := format.bytesPerSample()
	if err != nil || channels <= 0 {
		return dst
	}
	frameBytes := size * channels
	frames := len(raw) / frameBytes
	for i := 0; i < frames; i++ {
		frame := raw[i*frameBytes : (i+1)*frameBytes]
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += decodeSample(frame[ch*size:(ch+1)*size], format)
		}
		dst = append(dst, sum/float32(channels))
	}
	return dst
}

// decodeSample normalizes one encoded sample to [-1, 1].
func decodeSample(b []byte, format SampleFormat) float32 {
	switch format {
	case FormatF32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case FormatI16:
		return float32(int16(binary.LittleEndian.Uint16(b))) / 32768.0
	case FormatU16:
		return (float32(binary.LittleEndian.Uint16(b)) - 32768) / 32768.0
	default:
		return 0
	}
}

// RMS returns the root-mean-square amplitude of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
