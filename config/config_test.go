package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchDocumentedValues(t *testing.T) {
	d := Defaults()
	assert.Equal(t, 44100, d.SampleRate)
	assert.Equal(t, 0.7, d.ConfidenceThreshold)
	assert.InDelta(t, 1.0, d.WeightMFCC+d.WeightVolume+d.WeightTiming+d.WeightPitch, 0.01)
}

func TestLoadYAMLOverridesSubsetOfFields(t *testing.T) {
	doc := strings.NewReader("sample_rate: 48000\nweight_mfcc: 0.6\n")

	tunables, err := LoadYAML(doc)
	require.NoError(t, err)

	assert.Equal(t, 48000, tunables.SampleRate)
	assert.Equal(t, 0.6, tunables.WeightMFCC)
	assert.Equal(t, Defaults().ScoringHistorySize, tunables.ScoringHistorySize)
}

func TestLoadYAMLEmptyDocumentKeepsDefaults(t *testing.T) {
	tunables, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), tunables)
}

func TestMFCCConfigSeedsFromTunablesAndSampleRate(t *testing.T) {
	d := Defaults()
	c := d.MFCCConfig(48000)
	assert.Equal(t, 48000, c.SampleRate)
	assert.Equal(t, d.FrameSize, c.FrameSize)
	assert.Equal(t, d.HopSize, c.HopSize)
	assert.Equal(t, d.NumCoefficients, c.NumCoefficients)
	assert.NoError(t, c.Validate())
}

func TestScorerConfigSeedsWeightsAndIsValid(t *testing.T) {
	d := Defaults()
	c := d.ScorerConfig()
	assert.Equal(t, d.WeightMFCC, c.Weights.MFCC)
	assert.Equal(t, d.MinSamplesForConfidence, c.MinSamplesForConfidence)
	assert.NoError(t, c.Validate())
}

func TestVADConfigSeedsSampleRateAndIsValid(t *testing.T) {
	c := Defaults().VADConfig(16000)
	assert.Equal(t, 16000, c.SampleRate)
	assert.NoError(t, c.Validate())
}
