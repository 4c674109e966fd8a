package fft

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPowerSpectrumRejectsNonPowerOfTwo(t *testing.T) {
	k := NewKernel()
	_, err := k.PowerSpectrum(make([]float64, 300))
	require.Error(t, err)
	var notPow2 ErrNotPowerOfTwo
	assert.ErrorAs(t, err, &notPow2)
}

func TestPowerSpectrumDCBinIsSumSquared(t *testing.T) {
	k := NewKernel()
	frame := make([]float64, 64)
	for i := range frame {
		frame[i] = 1.0
	}
	power, err := k.PowerSpectrum(frame)
	require.NoError(t, err)
	// DC bin of an all-ones signal is N, so power is N^2.
	assert.InDelta(t, float64(64*64), power[0], 1e-6)
}

func TestPowerSpectrumDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.SampledFrom([]int{64, 128, 256, 512}).Draw(t, "size")
		frame := rapid.SliceOfN(rapid.Float64Range(-1, 1), size, size).Draw(t, "frame")

		k := NewKernel()
		a, err := k.PowerSpectrum(frame)
		require.NoError(t, err)
		b, err := k.PowerSpectrum(frame)
		require.NoError(t, err)
		require.Equal(t, len(a), len(b))
		for i := range a {
			assert.Equal(t, a[i], b[i])
		}
	})
}

func TestHannWindowStartsNearZeroAndPeaksAtCentre(t *testing.T) {
	w := HannWindow(512)
	assert.InDelta(t, 0, w[0], 1e-9)
	assert.InDelta(t, 1, w[256], 0.01)
}

func TestApplyWindowLeavesFrameUntouched(t *testing.T) {
	frame := []float64{1, 1, 1, 1}
	w := []float64{0, 1, 1, 0}
	out := ApplyWindow(frame, w)
	assert.Equal(t, []float64{0, 1, 1, 0}, out)
	assert.Equal(t, []float64{1, 1, 1, 1}, frame)
}

func TestPowerSpectrumNeverNegative(t *testing.T) {
	k := NewKernel()
	frame := make([]float64, 128)
	for i := range frame {
		frame[i] = math.Sin(float64(i) * 0.3)
	}
	power, err := k.PowerSpectrum(frame)
	require.NoError(t, err)
	for _, p := range power {
		assert.GreaterOrEqual(t, p, 0.0)
	}
}
