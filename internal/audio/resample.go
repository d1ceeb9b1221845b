package audio

import (
	"fmt"
	"math"
)

// TargetSampleRate is the rate whisper.cpp expects.
const TargetSampleRate = 16000

const (
	sincLen     = 256
	oversample  = 256
	cutoffScale = 0.95
	maxRate     = 1_000_000
)

// Resample converts a complete mono buffer between sample rates with
// windowed-sinc interpolation. Output length is len(in)*to/from rounded up.
// The result depends only on the input and the rate pair.
func Resample(in []float32, from, to int) ([]float32, error) {
	if from <= 0 || to <= 0 || from > maxRate || to > maxRate {
		return nil, fmt.Errorf("%w: %d Hz -> %d Hz", ErrResamplerInit, from, to)
	}
	out := make([]float32, 0)
	if from == to {
		return append(out, in...), nil
	}
	if len(in) == 0 {
		return out, nil
	}

	ratio := float64(to) / float64(from)
	table := sincTable(cutoffScale * math.Min(1, ratio))

	n := int((int64(len(in))*int64(to) + int64(from) - 1) / int64(from))
	out = make([]float32, n)

	g := gcd(from, to)
	up, down := to/g, from/g
	if up <= maxPhases {
		return resamplePhases(in, out, table, up, down)
	}
	return resampleDirect(in, out, table, 1/ratio)
}

// maxPhases bounds the coefficient bank to maxPhases*sincLen taps.
const maxPhases = 4096

// resamplePhases handles rate pairs whose reduced ratio is up/down. Output
// sample i sits at input position i*down/up, so its fractional offset is one
// of up phases and the taps for each phase are computed once.
func resamplePhases(in, out []float32, table kernel, up, down int) ([]float32, error) {
	bank := make([]float64, up*sincLen)
	for p := 0; p < up; p++ {
		frac := float64(p) / float64(up)
		for j := 0; j < sincLen; j++ {
			bank[p*sincLen+j] = table.at(float64(j-sincLen/2+1) - frac)
		}
	}

	for i := range out {
		pos := int64(i) * int64(down)
		center := int(pos / int64(up))
		taps := bank[int(pos%int64(up))*sincLen:][:sincLen]
		first := center - sincLen/2 + 1

		lo, hi := 0, sincLen
		if first < 0 {
			lo = -first
		}
		if first+hi > len(in) {
			hi = len(in) - first
		}
		var acc float64
		for j := lo; j < hi; j++ {
			acc += float64(in[first+j]) * taps[j]
		}
		if math.IsNaN(acc) || math.IsInf(acc, 0) {
			return nil, fmt.Errorf("%w: non-finite sample at %d", ErrResampling, i)
		}
		out[i] = float32(acc)
	}
	return out, nil
}

// resampleDirect evaluates the kernel per tap. It serves rate pairs with no
// small common ratio.
func resampleDirect(in, out []float32, table kernel, step float64) ([]float32, error) {
	for i := range out {
		t := float64(i) * step
		center := int(math.Floor(t))
		var acc float64
		for k := center - sincLen/2 + 1; k <= center+sincLen/2; k++ {
			if k < 0 || k >= len(in) {
				continue
			}
			acc += float64(in[k]) * table.at(float64(k)-t)
		}
		if math.IsNaN(acc) || math.IsInf(acc, 0) {
			return nil, fmt.Errorf("%w: non-finite sample at %d", ErrResampling, i)
		}
		out[i] = float32(acc)
	}
	return out, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// kernel is an oversampled windowed-sinc lookup table spanning
// [-sincLen/2, sincLen/2] input samples.
type kernel []float64

// sincTable builds c*sinc(c*x) tapered by a squared Blackman-Harris window.
// c is the cutoff as a fraction of the input Nyquist.
func sincTable(c float64) kernel {
	const a0, a1, a2, a3 = 0.35875, 0.48829, 0.14128, 0.01168
	t := make(kernel, sincLen*oversample+1)
	for j := range t {
		x := float64(j)/oversample - sincLen/2
		p := float64(j) / float64(len(t)-1)
		w := a0 - a1*math.Cos(2*math.Pi*p) + a2*math.Cos(4*math.Pi*p) - a3*math.Cos(6*math.Pi*p)
		t[j] = c * sinc(c*x) * w * w
	}
	return t
}

// at linearly interpolates the table at offset x.
func (t kernel) at(x float64) float64 {
	p := (x + sincLen/2) * oversample
	i := int(math.Floor(p))
	if i < 0 || i >= len(t)-1 {
		return 0
	}
	f := p - float64(i)
	return t[i] + (t[i+1]-t[i])*f
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}
