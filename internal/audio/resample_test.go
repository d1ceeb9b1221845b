package audio

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestResampleIdentity(t *testing.T) {
	for _, rate := range []int{8000, 16000, 44100, 48000} {
		in := sine(1000, rate, 300, 0.5)
		out, err := Resample(in, rate, rate)
		if err != nil {
			t.Fatalf("Resample(%d, %d) error = %v", rate, rate, err)
		}
		if len(out) != len(in) {
			t.Fatalf("Resample(%d, %d) length = %d, want %d", rate, rate, len(out), len(in))
		}
		for i := range in {
			if out[i] != in[i] {
				t.Fatalf("Resample(%d, %d) sample[%d] = %f, want %f", rate, rate, i, out[i], in[i])
			}
		}
	}
}

func TestResampleLength(t *testing.T) {
	tests := []struct {
		from, to, in, want int
	}{
		{48000, 16000, 48000, 16000},
		{44100, 16000, 44100, 16000},
		{8000, 16000, 800, 1600},
		{48000, 16000, 10, 4},
	}
	for _, tt := range tests {
		out, err := Resample(make([]float32, tt.in), tt.from, tt.to)
		if err != nil {
			t.Fatalf("Resample(%d -> %d) error = %v", tt.from, tt.to, err)
		}
		if len(out) != tt.want {
			t.Errorf("Resample(%d samples, %d -> %d) length = %d, want %d", tt.in, tt.from, tt.to, len(out), tt.want)
		}
	}
}

func TestResampleRoundTripPreservesRMS(t *testing.T) {
	in := sine(48000, 48000, 440, 0.5)

	down, err := Resample(in, 48000, 16000)
	if err != nil {
		t.Fatalf("Resample(48000 -> 16000) error = %v", err)
	}
	up, err := Resample(down, 16000, 48000)
	if err != nil {
		t.Fatalf("Resample(16000 -> 48000) error = %v", err)
	}

	// Skip the edges where the kernel runs off the buffer.
	mid := func(s []float32) []float32 { return s[len(s)/10 : len(s)*9/10] }
	want := RMS(mid(in))
	got := RMS(mid(up))
	if math.Abs(got-want)/want > 0.02 {
		t.Errorf("round-trip RMS = %f, want %f within 2%%", got, want)
	}
	if got := RMS(mid(down)); math.Abs(got-want)/want > 0.02 {
		t.Errorf("downsampled RMS = %f, want %f within 2%%", got, want)
	}
}

func TestResampleDeterministic(t *testing.T) {
	in := sine(4410, 44100, 1000, 0.3)
	a, err := Resample(in, 44100, 16000)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Resample(in, 44100, 16000)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample[%d] differs between runs: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestResamplePhasesMatchDirect(t *testing.T) {
	tests := []struct{ from, to int }{
		{44100, 16000},
		{48000, 16000},
		{16000, 48000},
		{22050, 16000},
	}
	for _, tt := range tests {
		in := sine(tt.from/10, tt.from, 440, 0.5)
		ratio := float64(tt.to) / float64(tt.from)
		table := sincTable(cutoffScale * math.Min(1, ratio))
		n := (len(in)*tt.to + tt.from - 1) / tt.from
		g := gcd(tt.from, tt.to)

		fast, err := resamplePhases(in, make([]float32, n), table, tt.to/g, tt.from/g)
		if err != nil {
			t.Fatalf("resamplePhases(%d -> %d) error = %v", tt.from, tt.to, err)
		}
		slow, err := resampleDirect(in, make([]float32, n), table, 1/ratio)
		if err != nil {
			t.Fatalf("resampleDirect(%d -> %d) error = %v", tt.from, tt.to, err)
		}
		for i := range slow {
			if math.Abs(float64(fast[i]-slow[i])) > 1e-5 {
				t.Fatalf("%d -> %d sample[%d] = %f, want %f", tt.from, tt.to, i, fast[i], slow[i])
			}
		}
	}
}

func TestResampleInvalidRates(t *testing.T) {
	tests := []struct{ from, to int }{
		{0, 16000},
		{48000, 0},
		{-1, 16000},
		{48000, 5_000_000},
	}
	for _, tt := range tests {
		if _, err := Resample([]float32{0.1}, tt.from, tt.to); !errors.Is(err, ErrResamplerInit) {
			t.Errorf("Resample(%d -> %d) error = %v, want ErrResamplerInit", tt.from, tt.to, err)
		}
	}
}

func TestResampleNonFinite(t *testing.T) {
	in := sine(480, 48000, 440, 0.5)
	in[200] = float32(math.NaN())
	if _, err := Resample(in, 48000, 16000); !errors.Is(err, ErrResampling) {
		t.Errorf("Resample() with NaN input error = %v, want ErrResampling", err)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")
	in := sine(1600, 16000, 440, 0.5)

	if err := WriteWAV(path, in, 16000); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}
	out, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if rate != 16000 {
		t.Errorf("ReadWAV() rate = %d, want 16000", rate)
	}
	if len(out) != len(in) {
		t.Fatalf("ReadWAV() returned %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 1e-3 {
			t.Fatalf("sample[%d] = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestReadWAVMissingFile(t *testing.T) {
	if _, _, err := ReadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("ReadWAV() should fail for a missing file")
	}
}
