package mfcc

import "github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"

// Config holds the parameters of an MFCC extractor, per spec §3. It is
// immutable once a session starts producing features unless the session
// is reset.
type Config struct {
	SampleRate      int     // Hz, > 0
	FrameSize       int     // samples, power of two, >= 64
	HopSize         int     // samples, 1 <= HopSize <= FrameSize
	NumCoefficients int     // 1..=FrameSize/2
	NumFilters      int     // >= NumCoefficients
	LowFreq         float64 // Hz
	HighFreq        float64 // Hz; 0 means SampleRate/2
	UseEnergy       bool
	ApplyLifter     bool
	LifterCoeff     float64 // >= 1
}

// DefaultConfig returns the authoritative tunables of spec §6.
func DefaultConfig() Config {
	return Config{
		SampleRate:      44100,
		FrameSize:       512,
		HopSize:         256,
		NumCoefficients: 13,
		NumFilters:      26,
		LowFreq:         0,
		HighFreq:        0,
		UseEnergy:       true,
		ApplyLifter:     true,
		LifterCoeff:     22,
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Validate enforces the invariants in spec §3, returning
// gcerr.KindInvalidConfig on the first violation found.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return gcerr.New(gcerr.KindInvalidConfig, "sample_rate must be > 0")
	case !isPowerOfTwo(c.FrameSize) || c.FrameSize < 64:
		return gcerr.New(gcerr.KindInvalidConfig, "frame_size must be a power of two >= 64")
	case c.HopSize < 1 || c.HopSize > c.FrameSize:
		return gcerr.New(gcerr.KindInvalidConfig, "hop_size must be in [1, frame_size]")
	case c.NumCoefficients < 1 || c.NumCoefficients > c.FrameSize/2:
		return gcerr.New(gcerr.KindInvalidConfig, "num_coefficients must be in [1, frame_size/2]")
	case c.NumFilters < c.NumCoefficients:
		return gcerr.New(gcerr.KindInvalidConfig, "num_filters must be >= num_coefficients")
	case c.LowFreq < 0:
		return gcerr.New(gcerr.KindInvalidConfig, "low_freq must be >= 0")
	case c.ApplyLifter && c.LifterCoeff < 1:
		return gcerr.New(gcerr.KindInvalidConfig, "lifter_coeff must be >= 1")
	}
	high := c.effectiveHighFreq()
	if c.LowFreq >= high || high > float64(c.SampleRate)/2 {
		return gcerr.New(gcerr.KindInvalidConfig, "require 0 <= low_freq < high_freq <= sample_rate/2")
	}
	return nil
}

func (c Config) effectiveHighFreq() float64 {
	if c.HighFreq == 0 {
		return float64(c.SampleRate) / 2
	}
	return c.HighFreq
}
