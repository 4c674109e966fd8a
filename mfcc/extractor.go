// Package mfcc implements the framed, windowed MFCC feature extractor
// described in spec §4.2: frame -> windowed spectrum -> mel filterbank ->
// log -> DCT -> liftered cepstrum, with optional batch framing over a
// buffer and an offline-only frame-hash cache. Grounded on the teacher's
// mel.Params/dft.Params pipeline (windowing, FFT, mel filter, DCT), with
// the etensor-backed storage replaced by plain slices and the pipeline
// split into reusable pieces (fft.Kernel, filterBank, cepstrum).
package mfcc

import (
	"hash/fnv"
	"math"
	"sync"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/fft"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"
)

// Extractor produces one FeatureVector per frame of audio for a fixed
// Config. An Extractor is not safe for concurrent calls to Process on the
// same instance; a session owns its Extractor exclusively (spec §5).
type Extractor struct {
	cfg    Config
	kernel *fft.Kernel
	window []float64
	bank   filterBank

	// cache is an optional frame-hash -> FeatureVector cache used only by
	// offline reference extraction (EnableCache). Per spec §4.2 it must
	// never be consulted for live session frames.
	cacheEnabled bool
	cache        sync.Map // map[uint64]FeatureVector
}

// New builds an Extractor for cfg, precomputing the mel filter bank and
// Hann window. Returns gcerr.KindInvalidConfig if cfg violates spec §3.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	high := cfg.effectiveHighFreq()
	return &Extractor{
		cfg:    cfg,
		kernel: fft.NewKernel(),
		window: fft.HannWindow(cfg.FrameSize),
		bank:   buildFilterBank(cfg.NumFilters, cfg.FrameSize, cfg.SampleRate, cfg.LowFreq, high),
	}, nil
}

// EnableCache turns on the offline frame-hash cache. It must only be used
// by reference-feature extraction, never by live session processing.
func (e *Extractor) EnableCache() { e.cacheEnabled = true }

// Config returns the extractor's immutable configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Process runs the full pipeline of spec §4.2 on exactly one frame of
// FrameSize samples, returning a FeatureVector of NumCoefficients values.
func (e *Extractor) Process(frame []float64) (FeatureVector, error) {
	if len(frame) != e.cfg.FrameSize {
		return nil, gcerr.Newf(gcerr.KindInvalidParams, "frame length %d != frame_size %d", len(frame), e.cfg.FrameSize)
	}

	var key uint64
	if e.cacheEnabled {
		key = hashFrame(frame)
		if v, ok := e.cache.Load(key); ok {
			return v.(FeatureVector).clone(), nil
		}
	}

	windowed := fft.ApplyWindow(frame, e.window)
	power, err := e.kernel.PowerSpectrum(windowed)
	if err != nil {
		return nil, gcerr.Wrap(gcerr.KindComponentError, "mfcc.Process: fft", err)
	}

	filtered := e.bank.apply(power)
	logFiltered := make([]float64, len(filtered))
	for i, v := range filtered {
		if v <= 0 {
			v = 1e-10 // floor before log, spec §4.2 step 4
		}
		logFiltered[i] = math.Log(v)
	}

	coeffs := cepstrum(logFiltered, e.cfg.NumCoefficients)

	if e.cfg.UseEnergy {
		var energy float64
		for _, s := range frame {
			energy += s * s
		}
		coeffs[0] = math.Log(energy + 1e-10)
	}

	if e.cfg.ApplyLifter {
		lifter(coeffs, e.cfg.LifterCoeff)
	}

	if e.cacheEnabled {
		e.cache.Store(key, FeatureVector(coeffs).clone())
	}
	return coeffs, nil
}

func (v FeatureVector) clone() FeatureVector {
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}

// ProcessBuffer cuts successive frames from buf at offsets 0, hop, 2*hop,
// ... while offset+FrameSize <= len(buf), feeding each to Process. It
// returns the produced FeatureMatrix and the number of leading samples of
// buf that were consumed by complete frames; the caller is responsible for
// retaining buf[consumed:] for the next chunk (spec §4.2 batch mode).
func (e *Extractor) ProcessBuffer(buf []float64) (FeatureMatrix, int, error) {
	var out FeatureMatrix
	offset := 0
	for offset+e.cfg.FrameSize <= len(buf) {
		fv, err := e.Process(buf[offset : offset+e.cfg.FrameSize])
		if err != nil {
			return nil, offset, err
		}
		out = append(out, fv)
		offset += e.cfg.HopSize
	}
	return out, offset, nil
}

func hashFrame(frame []float64) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, s := range frame {
		bits := math.Float64bits(s)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf)
	}
	return h.Sum64()
}
