package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var (
	ErrTooFewSamples  = errors.New("too few samples")
	ErrUnevenSampling = errors.New("samples are not evenly spaced")
	ErrNoPeak         = errors.New("no spectral peak")
)

// FFT is a radix-2 transform. len(data) must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum returns the magnitude of the first half of the transform.
// Input of any length is zero-padded to the next power of two.
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(pad(data))
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

func pad(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n <<= 1
	}
	if n == len(data) {
		return data
	}
	out := make([]float64, n)
	copy(out, data)
	return out
}

// DominantPeriod estimates the period of the strongest oscillation in an
// evenly sampled series. The mean is removed first and the peak bin is
// refined by fitting a parabola through its neighbours.
func DominantPeriod(times, values []float64) (float64, error) {
	if len(times) != len(values) {
		return 0, fmt.Errorf("period: %d times for %d values", len(times), len(values))
	}
	if len(values) < 8 {
		return 0, fmt.Errorf("period: %w (%d)", ErrTooFewSamples, len(values))
	}

	dt := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	if !(dt > 0) {
		return 0, fmt.Errorf("period: %w", ErrUnevenSampling)
	}
	for i := 1; i < len(times); i++ {
		if math.Abs(times[i]-times[i-1]-dt) > 1e-6*dt+1e-12 {
			return 0, fmt.Errorf("period: %w at sample %d", ErrUnevenSampling, i)
		}
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	centred := make([]float64, len(values))
	for i, v := range values {
		centred[i] = v - mean
	}

	ps := PowerSpectrum(centred)
	n := 2 * len(ps)

	k := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > ps[k] || k == 0 {
			k = i
		}
	}
	if k == 0 || ps[k] <= 1e-12 {
		return 0, ErrNoPeak
	}

	bin := float64(k)
	if k+1 < len(ps) {
		a, b, c := ps[k-1], ps[k], ps[k+1]
		if den := a - 2*b + c; den != 0 {
			bin += 0.5 * (a - c) / den
		}
	}
	return float64(n) * dt / bin, nil
}
