package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/dtw"
)

func flatMatrix(n, dim int, fill func(i, j int) float64) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, dim)
		for j := range m[i] {
			m[i][j] = fill(i, j)
		}
	}
	return m
}

func TestNewRejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{MFCC: 0.9, Volume: 0.9, Timing: 0.1, Pitch: 0.1}
	_, err := New(cfg, dtw.DefaultConfig())
	require.Error(t, err)
}

func TestProcessWithoutReferenceIsError(t *testing.T) {
	s, err := New(DefaultConfig(), dtw.DefaultConfig())
	require.NoError(t, err)
	_, err = s.Process(Input{LiveFeatures: flatMatrix(4, 13, func(i, j int) float64 { return 0 })})
	require.Error(t, err)
}

func TestIdenticalSequencesScoreNearPerfect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSamplesForConfidence = 0
	s, err := New(cfg, dtw.DefaultConfig())
	require.NoError(t, err)

	ref := flatMatrix(20, 13, func(i, j int) float64 { return float64((i + j) % 5) })
	require.NoError(t, s.SetReference(ref, make([]float64, 20)))
	assert.Equal(t, HasReference, s.State())

	score, err := s.Process(Input{
		LiveFeatures:    ref,
		LiveLevelDb:     make([]float64, 20),
		SamplesAnalyzed: 44100,
	})
	require.NoError(t, err)
	assert.Equal(t, Scoring, s.State())
	assert.Greater(t, score.Overall, 0.9)
	assert.True(t, score.IsReliable)
}

func TestEffectiveWeightedSumStaysInUnitRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mfcc := rapid.Float64Range(0, 1).Draw(t, "mfcc")
		vol := rapid.Float64Range(0, 1).Draw(t, "vol")
		timing := rapid.Float64Range(0, 1).Draw(t, "timing")

		cfg := DefaultConfig()
		cfg.MinSamplesForConfidence = 0
		w := cfg.effectiveWeights()
		overall := w.MFCC*mfcc + w.Volume*vol + w.Timing*timing + w.Pitch*0.5
		assert.GreaterOrEqual(t, overall, 0.0)
		assert.LessOrEqual(t, overall, 1.0001)
	})
}

// IsMatch is defined purely by overall >= min_score_for_match; it has no
// confidence/reliability term, so it can be true while IsReliable is false
// (e.g. too few samples analyzed yet, but the live features already align
// closely with the reference).
func TestIsMatchDependsOnlyOnOverallThreshold(t *testing.T) {
	cfg := DefaultConfig()
	s, err := New(cfg, dtw.DefaultConfig())
	require.NoError(t, err)
	ref := flatMatrix(10, 13, func(i, j int) float64 { return float64(i) })
	require.NoError(t, s.SetReference(ref, make([]float64, 10)))

	score, err := s.Process(Input{LiveFeatures: ref, LiveLevelDb: make([]float64, 10), SamplesAnalyzed: 1})
	require.NoError(t, err)
	assert.False(t, score.IsReliable)
	assert.Equal(t, score.Overall >= cfg.MinScoreForMatch, score.IsMatch)
}

func TestProcessWithEmptyLiveFeaturesSucceedsUnreliable(t *testing.T) {
	cfg := DefaultConfig()
	s, err := New(cfg, dtw.DefaultConfig())
	require.NoError(t, err)
	ref := flatMatrix(10, 13, func(i, j int) float64 { return float64(i) })
	require.NoError(t, s.SetReference(ref, make([]float64, 10)))

	score, err := s.Process(Input{LiveFeatures: nil, LiveLevelDb: nil, SamplesAnalyzed: 0})
	require.NoError(t, err)
	assert.False(t, score.IsReliable)
	assert.Equal(t, Scoring, s.State())
}

func TestConfidenceBelowMinSamplesNeverReachesThreshold(t *testing.T) {
	cfg := DefaultConfig()
	s, err := New(cfg, dtw.DefaultConfig())
	require.NoError(t, err)
	ref := flatMatrix(10, 13, func(i, j int) float64 { return float64(i) })
	require.NoError(t, s.SetReference(ref, make([]float64, 10)))

	score, err := s.Process(Input{LiveFeatures: ref, LiveLevelDb: make([]float64, 10), SamplesAnalyzed: cfg.MinSamplesForConfidence - 1})
	require.NoError(t, err)
	assert.Less(t, score.Confidence, cfg.ConfidenceThreshold)
	assert.False(t, score.IsReliable)
}

func TestResetPreservesReferenceButClearsHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSamplesForConfidence = 0
	s, err := New(cfg, dtw.DefaultConfig())
	require.NoError(t, err)
	ref := flatMatrix(10, 13, func(i, j int) float64 { return float64(i) })
	require.NoError(t, s.SetReference(ref, make([]float64, 10)))
	_, err = s.Process(Input{LiveFeatures: ref, LiveLevelDb: make([]float64, 10), SamplesAnalyzed: 44100})
	require.NoError(t, err)
	require.Equal(t, 1, len(s.History(100)))

	s.Reset()
	assert.Equal(t, HasReference, s.State())
	assert.Len(t, s.History(100), 0)
}

func TestClearReferenceReturnsToReady(t *testing.T) {
	s, err := New(DefaultConfig(), dtw.DefaultConfig())
	require.NoError(t, err)
	ref := flatMatrix(5, 13, func(i, j int) float64 { return 0 })
	require.NoError(t, s.SetReference(ref, make([]float64, 5)))
	s.ClearReference()
	assert.Equal(t, Ready, s.State())
}

func TestQualityAssessmentOrdering(t *testing.T) {
	assert.Equal(t, "Needs improvement", qualityAssessment(0.001))
	assert.Equal(t, "Fair", qualityAssessment(0.003))
	assert.Equal(t, "Good", qualityAssessment(0.007))
	assert.Equal(t, "Very good", qualityAssessment(0.015))
	assert.Equal(t, "Excellent", qualityAssessment(0.5))
}

func TestHistoryCapsAtConfiguredSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoringHistorySize = 3
	cfg.MinSamplesForConfidence = 0
	s, err := New(cfg, dtw.DefaultConfig())
	require.NoError(t, err)
	ref := flatMatrix(5, 13, func(i, j int) float64 { return float64(i) })
	require.NoError(t, s.SetReference(ref, make([]float64, 5)))
	for i := 0; i < 10; i++ {
		_, err := s.Process(Input{LiveFeatures: ref, LiveLevelDb: make([]float64, 5), SamplesAnalyzed: 44100})
		require.NoError(t, err)
	}
	assert.Len(t, s.History(100), 3)
}
