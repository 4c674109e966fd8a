package vad

import "github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"

// Config holds the Voice Activity Detector's tunables, per spec §3.
type Config struct {
	EnergyThreshold    float64 // > 0, mean-square amplitude threshold
	WindowDurationMs   float64
	MinSoundDurationMs float64
	PreBufferMs        float64
	PostBufferMs       float64
	SampleRate         int
}

// DefaultConfig returns reasonable defaults at 44.1kHz.
func DefaultConfig() Config {
	return Config{
		EnergyThreshold:    0.01,
		WindowDurationMs:   20,
		MinSoundDurationMs: 60,
		PreBufferMs:        100,
		PostBufferMs:       300,
		SampleRate:         44100,
	}
}

// Validate enforces the invariants in spec §3.
func (c Config) Validate() error {
	switch {
	case c.EnergyThreshold <= 0:
		return gcerr.New(gcerr.KindInvalidConfig, "energy_threshold must be > 0")
	case c.WindowDurationMs <= 0:
		return gcerr.New(gcerr.KindInvalidConfig, "window_duration_ms must be > 0")
	case c.MinSoundDurationMs < 0:
		return gcerr.New(gcerr.KindInvalidConfig, "min_sound_duration_ms must be >= 0")
	case c.PreBufferMs < 0 || c.PostBufferMs < 0:
		return gcerr.New(gcerr.KindInvalidConfig, "pre/post buffer durations must be >= 0")
	case c.SampleRate <= 0:
		return gcerr.New(gcerr.KindInvalidConfig, "sample_rate must be > 0")
	}
	return nil
}

func (c Config) preBufferSamples() int {
	return msToSamples(c.PreBufferMs, c.SampleRate)
}

func msToSamples(ms float64, sampleRate int) int {
	n := int(ms * float64(sampleRate) / 1000.0)
	if n < 1 {
		n = 1
	}
	return n
}
