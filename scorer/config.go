package scorer

import "github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"

// Weights holds the per-component weighting used to combine the scorer's
// four components into an overall score. They must sum to 1.0 within
// 0.01, per spec §3.
type Weights struct {
	MFCC   float64
	Volume float64
	Timing float64
	Pitch  float64
}

func (w Weights) sum() float64 {
	return w.MFCC + w.Volume + w.Timing + w.Pitch
}

// Config holds the realtime scorer's tunables, per spec §3/§4.6.
type Config struct {
	Weights                 Weights
	ConfidenceThreshold     float64 // in [0,1]
	MinScoreForMatch        float64 // >= 0
	ScoringHistorySize      int     // > 0
	DTWDistanceScaling      float64 // > 0, converts DTW distance to similarity
	MinSamplesForConfidence int     // >= 0
	EnablePitchAnalysis     bool
}

// DefaultConfig returns the authoritative tunables of spec §6.
func DefaultConfig() Config {
	return Config{
		Weights:                 Weights{MFCC: 0.5, Volume: 0.2, Timing: 0.2, Pitch: 0.1},
		ConfidenceThreshold:     0.7,
		MinScoreForMatch:        0.005,
		ScoringHistorySize:      50,
		DTWDistanceScaling:      10.0,
		MinSamplesForConfidence: 22050,
		EnablePitchAnalysis:     false,
	}
}

// Validate enforces the invariants in spec §3.
func (c Config) Validate() error {
	const tol = 0.01
	sum := c.Weights.sum()
	if sum < 1.0-tol || sum > 1.0+tol {
		return gcerr.Newf(gcerr.KindInvalidParams, "scorer weights must sum to 1.0 (+/- 0.01), got %.4f", sum)
	}
	switch {
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return gcerr.New(gcerr.KindInvalidParams, "confidence_threshold must be in [0,1]")
	case c.MinScoreForMatch < 0:
		return gcerr.New(gcerr.KindInvalidParams, "min_score_for_match must be >= 0")
	case c.ScoringHistorySize <= 0:
		return gcerr.New(gcerr.KindInvalidParams, "scoring_history_size must be > 0")
	case c.DTWDistanceScaling <= 0:
		return gcerr.New(gcerr.KindInvalidParams, "dtw_distance_scaling must be > 0")
	case c.MinSamplesForConfidence < 0:
		return gcerr.New(gcerr.KindInvalidParams, "min_samples_for_confidence must be >= 0")
	}
	return nil
}

// effectiveWeights redistributes the pitch weight proportionally across
// the remaining active weights when pitch analysis is disabled, per spec
// §4.6, so the weighted sum remains a valid convex combination.
func (c Config) effectiveWeights() Weights {
	w := c.Weights
	if c.EnablePitchAnalysis || w.Pitch == 0 {
		return w
	}
	remaining := w.MFCC + w.Volume + w.Timing
	if remaining <= 0 {
		return w
	}
	scale := (remaining + w.Pitch) / remaining
	return Weights{
		MFCC:   w.MFCC * scale,
		Volume: w.Volume * scale,
		Timing: w.Timing * scale,
		Pitch:  0,
	}
}
