// Package config carries the authoritative numeric tunables for the
// gamecalls engine core (spec §6) as plain Go values, with optional YAML
// override loading for deployments that want to tune defaults without a
// rebuild. This is parameter configuration only — it never touches
// reference-call audio assets, which remain the reference-provider
// collaborator's concern.
package config

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/dtw"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/mfcc"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/scorer"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/vad"
)

// Tunables holds every numeric default named in spec §6. Session, MFCC,
// VAD, DTW and Scorer configs are all seeded from these values; callers
// may override any subset per-session afterward.
type Tunables struct {
	SampleRate      int `yaml:"sample_rate"`
	FrameSize       int `yaml:"frame_size"`
	HopSize         int `yaml:"hop_size"`
	NumCoefficients int `yaml:"num_coefficients"`
	NumFilters      int `yaml:"num_filters"`

	DTWDistanceScaling float64 `yaml:"dtw_distance_scaling"`

	ConfidenceThreshold     float64 `yaml:"confidence_threshold"`
	MinScoreForMatch        float64 `yaml:"min_score_for_match"`
	ScoringHistorySize      int     `yaml:"scoring_history_size"`
	MinSamplesForConfidence int     `yaml:"min_samples_for_confidence"`

	WeightMFCC   float64 `yaml:"weight_mfcc"`
	WeightVolume float64 `yaml:"weight_volume"`
	WeightTiming float64 `yaml:"weight_timing"`
	WeightPitch  float64 `yaml:"weight_pitch"`
}

// Defaults returns the authoritative numeric tunables documented in spec §6.
func Defaults() Tunables {
	return Tunables{
		SampleRate:              44100,
		FrameSize:               512,
		HopSize:                 256,
		NumCoefficients:         13,
		NumFilters:              26,
		DTWDistanceScaling:      10.0,
		ConfidenceThreshold:     0.7,
		MinScoreForMatch:        0.005,
		ScoringHistorySize:      50,
		MinSamplesForConfidence: 22050,
		WeightMFCC:              0.5,
		WeightVolume:            0.2,
		WeightTiming:            0.2,
		WeightPitch:             0.1,
	}
}

// LoadYAML reads tunable overrides from r on top of Defaults(). Fields
// absent from the document keep their default value.
func LoadYAML(r io.Reader) (Tunables, error) {
	t := Defaults()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&t); err != nil && err != io.EOF {
		return Tunables{}, err
	}
	return t, nil
}

// MFCCConfig builds an mfcc.Config from t, overriding sampleRate (each
// session may run at a different rate than the tunables document).
func (t Tunables) MFCCConfig(sampleRate int) mfcc.Config {
	c := mfcc.DefaultConfig()
	c.SampleRate = sampleRate
	c.FrameSize = t.FrameSize
	c.HopSize = t.HopSize
	c.NumCoefficients = t.NumCoefficients
	c.NumFilters = t.NumFilters
	return c
}

// VADConfig builds a vad.Config from t at sampleRate. t carries no VAD
// tunables of its own, so this seeds only the sample rate and otherwise
// defers to vad.DefaultConfig's hysteresis timings.
func (t Tunables) VADConfig(sampleRate int) vad.Config {
	c := vad.DefaultConfig()
	c.SampleRate = sampleRate
	return c
}

// DTWConfig builds a dtw.Config from t. t carries no DTW band/weight
// tunables of its own, so this is dtw.DefaultConfig unchanged; the
// distance-to-similarity scaling lives in ScorerConfig instead.
func (t Tunables) DTWConfig() dtw.Config {
	return dtw.DefaultConfig()
}

// ScorerConfig builds a scorer.Config from t.
func (t Tunables) ScorerConfig() scorer.Config {
	return scorer.Config{
		Weights: scorer.Weights{
			MFCC:   t.WeightMFCC,
			Volume: t.WeightVolume,
			Timing: t.WeightTiming,
			Pitch:  t.WeightPitch,
		},
		ConfidenceThreshold:     t.ConfidenceThreshold,
		MinScoreForMatch:        t.MinScoreForMatch,
		ScoringHistorySize:      t.ScoringHistorySize,
		DTWDistanceScaling:      t.DTWDistanceScaling,
		MinSamplesForConfidence: t.MinSamplesForConfidence,
		EnablePitchAnalysis:     false,
	}
}
