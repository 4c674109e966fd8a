package mfcc

import "github.com/chewxy/math32"

// filterBank is the precomputed set of triangular mel-scale filters
// spanning [lowFreq, highFreq], one row per filter, each row holding a
// weight per FFT power-spectrum bin (0..frameSize/2). Grounded on the
// triangular-filter construction in the teacher's mel.InitFilters, adapted
// from etensor storage to plain [][]float64.
type filterBank struct {
	weights [][]float64 // [numFilters][numBins]
}

func freqToMel(freq float64) float64 {
	return 2595.0 * log10(1.0+freq/700.0)
}

func melToFreq(mel float64) float64 {
	return 700.0 * (pow10(mel/2595.0) - 1.0)
}

func log10(x float64) float64 {
	return float64(math32.Log10(float32(x)))
}

func pow10(x float64) float64 {
	return float64(math32.Pow(10, float32(x)))
}

// buildFilterBank precomputes numFilters triangular filters over numBins
// power-spectrum bins (0..frameSize/2 inclusive), spanning [lowFreq,
// highFreq] on the mel scale.
func buildFilterBank(numFilters, frameSize, sampleRate int, lowFreq, highFreq float64) filterBank {
	numBins := frameSize/2 + 1
	loMel := freqToMel(lowFreq)
	hiMel := freqToMel(highFreq)

	// numFilters+2 mel-spaced points: the filter edges and peaks.
	points := make([]float64, numFilters+2)
	step := (hiMel - loMel) / float64(numFilters+1)
	for i := range points {
		points[i] = loMel + float64(i)*step
	}
	bin := make([]int, numFilters+2)
	for i, m := range points {
		freq := melToFreq(m)
		b := int((float64(frameSize+1) * freq) / float64(sampleRate))
		if b < 0 {
			b = 0
		}
		if b > numBins-1 {
			b = numBins - 1
		}
		bin[i] = b
	}

	weights := make([][]float64, numFilters)
	for f := 0; f < numFilters; f++ {
		row := make([]float64, numBins)
		lo, peak, hi := bin[f], bin[f+1], bin[f+2]
		for b := lo; b <= peak; b++ {
			if peak > lo {
				row[b] = float64(b-lo) / float64(peak-lo)
			} else if b == peak {
				row[b] = 1
			}
		}
		for b := peak; b <= hi; b++ {
			if hi > peak {
				v := float64(hi-b) / float64(hi-peak)
				if v > row[b] {
					row[b] = v
				}
			} else if b == peak {
				row[b] = 1
			}
		}
		weights[f] = row
	}
	return filterBank{weights: weights}
}

// apply sums the weighted power spectrum under each filter, returning one
// energy value per filter.
func (fb filterBank) apply(power []float64) []float64 {
	out := make([]float64, len(fb.weights))
	for f, row := range fb.weights {
		var sum float64
		for b, w := range row {
			if w == 0 {
				continue
			}
			sum += w * power[b]
		}
		out[f] = sum
	}
	return out
}
