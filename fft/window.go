package fft

import (
	"sync"

	"github.com/chewxy/math32"
)

var hannCache sync.Map // map[int][]float64

// HannWindow returns the symmetric Hann window of length n, computed once
// per distinct n and cached for reuse across frames.
func HannWindow(n int) []float64 {
	if v, ok := hannCache.Load(n); ok {
		return v.([]float64)
	}
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
	} else {
		denom := float32(n - 1)
		for i := range w {
			v := float32(0.5) - float32(0.5)*math32.Cos(2*math32.Pi*float32(i)/denom)
			w[i] = float64(v)
		}
	}
	hannCache.Store(n, w)
	return w
}

// ApplyWindow multiplies frame by window element-wise into a new slice,
// leaving frame untouched.
func ApplyWindow(frame, window []float64) []float64 {
	out := make([]float64, len(frame))
	for i := range frame {
		out[i] = frame[i] * window[i]
	}
	return out
}
