package mfcc

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// dctPlanCache caches gonum's DCT-II plan per input size, the same
// plan-once-per-size discipline as fft.Kernel; the teacher reconstructs a
// DCT plan on every call in mel.CepstrumDct, which this generalizes away.
var dctPlanCache sync.Map // map[int]*fourier.DCT

func dctPlan(n int) *fourier.DCT {
	if v, ok := dctPlanCache.Load(n); ok {
		return v.(*fourier.DCT)
	}
	p := fourier.NewDCT(n)
	actual, _ := dctPlanCache.LoadOrStore(n, p)
	return actual.(*fourier.DCT)
}

// cepstrum applies a DCT-II to logFilterEnergies and returns the first
// numCoefficients coefficients.
func cepstrum(logFilterEnergies []float64, numCoefficients int) []float64 {
	plan := dctPlan(len(logFilterEnergies))
	coeffs := plan.Transform(nil, logFilterEnergies)
	if numCoefficients > len(coeffs) {
		numCoefficients = len(coeffs)
	}
	out := make([]float64, numCoefficients)
	copy(out, coeffs[:numCoefficients])
	return out
}

// lifter multiplies coefficient k by 1 + (L/2)*sin(pi*k/L), per spec §4.2
// step 7.
func lifter(coeffs []float64, l float64) {
	for k := range coeffs {
		factor := 1.0 + (l/2.0)*math.Sin(math.Pi*float64(k)/l)
		coeffs[k] *= factor
	}
}
