package refstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/level"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/mfcc"
)

type fakeProvider struct {
	features map[ID]mfcc.FeatureMatrix
	raw      map[ID][]float64
	fetches  int
}

func (p *fakeProvider) Fetch(_ context.Context, id ID) (FetchResult, error) {
	p.fetches++
	if f, ok := p.features[id]; ok {
		return FetchResult{Features: f}, nil
	}
	if a, ok := p.raw[id]; ok {
		return FetchResult{RawAudio: a}, nil
	}
	return FetchResult{}, assertErr{id}
}

type assertErr struct{ id ID }

func (e assertErr) Error() string { return "no such reference: " + string(e.id) }

func TestAcquireCachesAcrossCalls(t *testing.T) {
	p := &fakeProvider{features: map[ID]mfcc.FeatureMatrix{
		"a": {{1, 2}, {3, 4}},
	}}
	store := New(p, level.DefaultConfig())

	h1, err := store.Acquire(context.Background(), "a", mfcc.DefaultConfig())
	require.NoError(t, err)
	h2, err := store.Acquire(context.Background(), "a", mfcc.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, p.fetches, "second acquire must hit the cache, not the provider")
	assert.Equal(t, h1.Features(), h2.Features())
	h1.Release()
	h2.Release()
}

func TestEvictFailsWhileHandleOutstanding(t *testing.T) {
	p := &fakeProvider{features: map[ID]mfcc.FeatureMatrix{"a": {{1}}}}
	store := New(p, level.DefaultConfig())
	h, err := store.Acquire(context.Background(), "a", mfcc.DefaultConfig())
	require.NoError(t, err)

	assert.False(t, store.Evict("a"))
	h.Release()
	assert.True(t, store.Evict("a"))
	assert.Equal(t, 0, store.Len())
}

func TestAcquireExtractsFromRawAudio(t *testing.T) {
	cfg := mfcc.DefaultConfig()
	samples := make([]float64, cfg.FrameSize*5)
	for i := range samples {
		samples[i] = 0.1
	}
	p := &fakeProvider{raw: map[ID][]float64{"tone": samples}}
	store := New(p, level.DefaultConfig())

	h, err := store.Acquire(context.Background(), "tone", cfg)
	require.NoError(t, err)
	defer h.Release()

	assert.NotEmpty(t, h.Features())
	assert.Equal(t, len(h.Features()), len(h.LevelDb()))
}

func TestAcquireUnknownIDPropagatesProviderError(t *testing.T) {
	p := &fakeProvider{}
	store := New(p, level.DefaultConfig())
	_, err := store.Acquire(context.Background(), "missing", mfcc.DefaultConfig())
	require.Error(t, err)
}
