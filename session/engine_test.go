package session

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/config"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/level"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/refstore"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/scorer"
)

type fixedProvider struct {
	audio map[refstore.ID][]float64
}

func (p *fixedProvider) Fetch(_ context.Context, id refstore.ID) (refstore.FetchResult, error) {
	a, ok := p.audio[id]
	if !ok {
		return refstore.FetchResult{}, gcerr.New(gcerr.KindFileNotFound, "no such reference")
	}
	return refstore.FetchResult{RawAudio: a}, nil
}

func tone(n int, amplitude float64, freqHz, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/sampleRate)
	}
	return out
}

func newTestEngine(audio map[refstore.ID][]float64) *Engine {
	store := refstore.New(&fixedProvider{audio: audio}, level.DefaultConfig())
	return New(store)
}

func TestCreateSessionRejectsBadSampleRate(t *testing.T) {
	e := newTestEngine(nil)
	_, err := e.CreateSession(0)
	require.Error(t, err)
}

func TestWithTunablesSeedsNewSessionsScorerWeights(t *testing.T) {
	tunables := config.Defaults()
	tunables.WeightMFCC, tunables.WeightVolume, tunables.WeightTiming, tunables.WeightPitch = 0.4, 0.3, 0.2, 0.1

	store := refstore.New(&fixedProvider{}, level.DefaultConfig())
	e := New(store, WithTunables(tunables))

	id, err := e.CreateSession(44100)
	require.NoError(t, err)
	s, err := e.lookup(id)
	require.NoError(t, err)
	assert.Equal(t, 0.4, s.scorerCfg.Weights.MFCC)
}

func TestDestroySessionIsIdempotentlyNotFoundAfterwards(t *testing.T) {
	e := newTestEngine(nil)
	id, err := e.CreateSession(44100)
	require.NoError(t, err)
	require.NoError(t, e.DestroySession(id))

	err = e.ProcessAudioChunk(id, make([]float64, 512))
	require.Error(t, err)
	assert.Equal(t, gcerr.KindSessionNotFound, gcerr.KindOf(err))

	err = e.DestroySession(id)
	require.Error(t, err)
	assert.Equal(t, gcerr.KindSessionNotFound, gcerr.KindOf(err))
}

func TestProcessAudioChunkWithoutReferenceSucceedsButScoresUnavailable(t *testing.T) {
	e := newTestEngine(nil)
	id, err := e.CreateSession(44100)
	require.NoError(t, err)

	loud := tone(4096, 0.8, 440, 44100)
	require.NoError(t, e.ProcessAudioChunk(id, loud))

	_, err = e.GetDetailedScore(id)
	require.Error(t, err)
}

func TestSelfSimilarityScoresHigh(t *testing.T) {
	sampleRate := 44100.0
	refAudio := tone(int(sampleRate), 0.8, 440, sampleRate)
	e := newTestEngine(map[refstore.ID][]float64{"call-1": refAudio})

	id, err := e.CreateSession(44100)
	require.NoError(t, err)
	require.NoError(t, e.LoadMasterCall(context.Background(), id, "call-1"))

	chunkSize := 4096
	for i := 0; i+chunkSize <= len(refAudio); i += chunkSize {
		require.NoError(t, e.ProcessAudioChunk(id, refAudio[i:i+chunkSize]))
	}

	score, err := e.GetDetailedScore(id)
	require.NoError(t, err)
	assert.Greater(t, score.Overall, 0.8)
}

func TestSessionIsolation(t *testing.T) {
	sampleRate := 44100.0
	refA := tone(int(sampleRate), 0.8, 440, sampleRate)
	refB := tone(int(sampleRate), 0.8, 2000, sampleRate)
	e := newTestEngine(map[refstore.ID][]float64{"a": refA, "b": refB})

	idA, err := e.CreateSession(44100)
	require.NoError(t, err)
	idB, err := e.CreateSession(44100)
	require.NoError(t, err)
	require.NoError(t, e.LoadMasterCall(context.Background(), idA, "a"))
	require.NoError(t, e.LoadMasterCall(context.Background(), idB, "b"))

	chunkSize := 4096
	for i := 0; i+chunkSize <= len(refA); i += chunkSize {
		require.NoError(t, e.ProcessAudioChunk(idA, refA[i:i+chunkSize]))
		require.NoError(t, e.ProcessAudioChunk(idB, refB[i:i+chunkSize]))
	}

	scoreA, err := e.GetDetailedScore(idA)
	require.NoError(t, err)
	scoreB, err := e.GetDetailedScore(idB)
	require.NoError(t, err)
	assert.Greater(t, scoreA.Overall, 0.8)
	assert.Greater(t, scoreB.Overall, 0.8)

	require.NoError(t, e.DestroySession(idA))
	require.NoError(t, e.ProcessAudioChunk(idB, refB[:chunkSize]))
}

func TestResetSessionPreservesReference(t *testing.T) {
	sampleRate := 44100.0
	refAudio := tone(int(sampleRate), 0.8, 440, sampleRate)
	e := newTestEngine(map[refstore.ID][]float64{"call-1": refAudio})

	id, err := e.CreateSession(44100)
	require.NoError(t, err)
	require.NoError(t, e.LoadMasterCall(context.Background(), id, "call-1"))
	require.NoError(t, e.ProcessAudioChunk(id, refAudio[:4096]))

	require.NoError(t, e.ResetSession(id))

	hist, err := e.GetScoringHistory(id, 100)
	require.NoError(t, err)
	assert.Len(t, hist, 0)

	require.NoError(t, e.ProcessAudioChunk(id, refAudio[:4096]))
	_, err = e.GetDetailedScore(id)
	require.NoError(t, err)
}

func TestSetRealtimeScorerConfigRejectsBadWeightsAndRetainsPrevious(t *testing.T) {
	e := newTestEngine(nil)
	id, err := e.CreateSession(44100)
	require.NoError(t, err)

	bad := scorer.DefaultConfig()
	bad.Weights.MFCC = 0.9 // sums well past 1.0 now

	err = e.SetRealtimeScorerConfig(id, bad)
	require.Error(t, err)
	assert.Equal(t, gcerr.KindInvalidParams, gcerr.KindOf(err))

	s, lookupErr := e.lookup(id)
	require.NoError(t, lookupErr)
	assert.Equal(t, scorer.DefaultConfig().Weights, s.scorerCfg.Weights)
}

func TestLoadMasterCallUnknownReferenceIsError(t *testing.T) {
	e := newTestEngine(nil)
	id, err := e.CreateSession(44100)
	require.NoError(t, err)
	err = e.LoadMasterCall(context.Background(), id, "missing")
	require.Error(t, err)
}

func TestUnloadMasterCallAllowsReload(t *testing.T) {
	sampleRate := 44100.0
	refAudio := tone(int(sampleRate), 0.8, 440, sampleRate)
	e := newTestEngine(map[refstore.ID][]float64{"call-1": refAudio})

	id, err := e.CreateSession(44100)
	require.NoError(t, err)
	require.NoError(t, e.LoadMasterCall(context.Background(), id, "call-1"))
	require.NoError(t, e.UnloadMasterCall(id))
	require.NoError(t, e.ProcessAudioChunk(id, refAudio[:4096]))
	_, err = e.GetDetailedScore(id)
	require.Error(t, err)

	require.NoError(t, e.LoadMasterCall(context.Background(), id, "call-1"))
}
