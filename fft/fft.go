// Package fft implements the real-valued, power-of-two FFT kernel used by
// the MFCC extractor. It wraps gonum's dsp/fourier real-FFT with a plan
// cache so repeated frames of the same size never pay plan-construction
// cost on the hot path, mirroring the plan-once-per-size discipline the
// spec requires.
package fft

import (
	"fmt"
	"math"
	"math/bits"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Kernel computes magnitude spectra for power-of-two windows. A Kernel is
// safe for concurrent use; a session should still own one exclusively on
// its hot path (§5: MFCC state is owned exclusively by its session).
type Kernel struct {
	mu    sync.Mutex
	plans map[int]*fourier.FFT
}

// NewKernel returns an empty Kernel. Plans are created lazily on first use
// for each distinct frame size and cached for the Kernel's lifetime.
func NewKernel() *Kernel {
	return &Kernel{plans: make(map[int]*fourier.FFT)}
}

// ErrNotPowerOfTwo is returned when a frame's length is not a power of two.
type ErrNotPowerOfTwo struct{ N int }

func (e ErrNotPowerOfTwo) Error() string {
	return fmt.Sprintf("fft: frame size %d is not a power of two", e.N)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}

func (k *Kernel) plan(n int) (*fourier.FFT, error) {
	if !isPowerOfTwo(n) {
		return nil, ErrNotPowerOfTwo{N: n}
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	p, ok := k.plans[n]
	if !ok {
		p = fourier.NewFFT(n)
		k.plans[n] = p
	}
	return p, nil
}

// PowerSpectrum returns the one-sided power spectrum (bins 0..N/2
// inclusive, Nyquist included, bins above Nyquist discarded) of a
// windowed real frame, using the forward convention e^{-2*pi*i*k*n/N}.
func (k *Kernel) PowerSpectrum(frame []float64) ([]float64, error) {
	n := len(frame)
	plan, err := k.plan(n)
	if err != nil {
		return nil, err
	}
	coeffs := plan.Coefficients(nil, frame)
	out := make([]float64, n/2+1)
	for i, c := range coeffs {
		re, im := real(c), imag(c)
		out[i] = re*re + im*im
	}
	return out, nil
}

// MagnitudeSpectrum is PowerSpectrum followed by an element-wise sqrt, for
// callers that want linear magnitude rather than power.
func (k *Kernel) MagnitudeSpectrum(frame []float64) ([]float64, error) {
	power, err := k.PowerSpectrum(frame)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(power))
	for i, p := range power {
		if p > 0 {
			out[i] = math.Sqrt(p)
		}
	}
	return out, nil
}
