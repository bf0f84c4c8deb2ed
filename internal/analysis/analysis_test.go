package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/initial"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFT_Impulse(t *testing.T) {
	out := FFT([]float64{1, 0, 0, 0, 0, 0, 0, 0})
	require.Len(t, out, 8)
	for _, c := range out {
		assert.InDelta(t, 1.0, real(c), 1e-12)
		assert.InDelta(t, 0.0, imag(c), 1e-12)
	}
}

func TestPowerSpectrum_Pads(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 100))
	assert.Len(t, ps, 64)
}

func TestDominantPeriod_Sine(t *testing.T) {
	// 512 samples span exactly 8 periods
	n, period := 512, 2.0
	dt := period / 64
	times := make([]float64, n)
	values := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * dt
		values[i] = 3 + math.Sin(2*math.Pi*times[i]/period)
	}

	got, err := DominantPeriod(times, values)
	require.NoError(t, err)
	assert.InDelta(t, period, got, 1e-9)
}

func TestDominantPeriod_Errors(t *testing.T) {
	_, err := DominantPeriod([]float64{0, 1}, []float64{0})
	assert.Error(t, err)

	_, err = DominantPeriod([]float64{0, 1, 2}, []float64{0, 1, 0})
	assert.ErrorIs(t, err, ErrTooFewSamples)

	times := []float64{0, 1, 2, 3, 4, 5, 6, 9}
	_, err = DominantPeriod(times, make([]float64, len(times)))
	assert.ErrorIs(t, err, ErrUnevenSampling)

	flat := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	_, err = DominantPeriod(flat, []float64{2, 2, 2, 2, 2, 2, 2, 2})
	assert.ErrorIs(t, err, ErrNoPeak)
}

func TestDominantPeriod_Binary(t *testing.T) {
	p := initial.DefaultBinaryParams()
	s, err := initial.Binary(p)
	require.NoError(t, err)
	period := initial.BinaryPeriod(p)

	step := integrators.Leapfrog(physics.DefaultGravity())
	dt := period / 1280
	times := make([]float64, 1024)
	values := make([]float64, 1024)
	for i := range times {
		times[i] = float64(i) * 10 * dt
		values[i] = s.Body(0).Position.X()
		s = integrators.Iterate(step, s, dt, 10)
	}

	got, err := DominantPeriod(times, values)
	require.NoError(t, err)
	assert.InEpsilon(t, period, got, 0.01)
}

func TestLyapunovExponent_Validation(t *testing.T) {
	step := integrators.Leapfrog(physics.DefaultGravity())
	s := initial.FigureEight()

	_, err := LyapunovExponent(step, dynamo.State{}, 0, 0.01, 10, 1e-8)
	assert.ErrorIs(t, err, dynamo.ErrTooFewBodies)

	_, err = LyapunovExponent(step, s, 3, 0.01, 10, 1e-8)
	assert.Error(t, err)
	_, err = LyapunovExponent(step, s, 0, 0, 10, 1e-8)
	assert.Error(t, err)
	_, err = LyapunovExponent(step, s, 0, 0.01, 10, 0)
	assert.Error(t, err)
}

func TestLyapunovExponent_Binary(t *testing.T) {
	p := initial.DefaultBinaryParams()
	s, err := initial.Binary(p)
	require.NoError(t, err)

	step := integrators.Leapfrog(physics.DefaultGravity())
	dt := initial.BinaryPeriod(p) / 500
	a, err := LyapunovExponent(step, s, 0, dt, 1000, 1e-8)
	require.NoError(t, err)
	b, err := LyapunovExponent(step, s, 0, dt, 1000, 1e-8)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.False(t, math.IsNaN(a))
	assert.Less(t, a, 1.0)
	assert.Greater(t, a, -1.0)
}
