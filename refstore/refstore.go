// Package refstore implements the shared, reference-counted reference-call
// feature cache of spec §5: entries are loaded on demand through a
// ReferenceProvider collaborator, lent out as read-only handles to any
// number of sessions, and never evicted while a handle is outstanding.
// Grounded on the shared-ownership discipline called for in spec §5
// ("the standard technique is reference-counted ownership of each
// entry"); the pack's mutex/atomics-heavy teacher code (spec's Source
// Parity Notes) is deliberately replaced here with one mutex guarding a
// map of refcounted entries, rather than ad-hoc atomics per field.
package refstore

import (
	"context"
	"sync"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/level"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/mfcc"
)

// ID is the opaque key identifying a reference call.
type ID string

// FetchResult is what a ReferenceProvider returns for one ID: either an
// already-extracted feature matrix, or raw audio the store must extract
// itself with the requesting session's MFCC config.
type FetchResult struct {
	Features mfcc.FeatureMatrix
	RawAudio []float64
}

// Provider is the reference-asset collaborator of spec §6: given an ID it
// supplies either cached features or raw reference audio. File I/O,
// format conversion, and network calls live entirely on the
// implementation's side of this interface.
type Provider interface {
	Fetch(ctx context.Context, id ID) (FetchResult, error)
}

type entry struct {
	features mfcc.FeatureMatrix
	levelDb  []float64
	refs     int
}

// Store is the process-wide reference cache. It is safe for concurrent
// use by multiple sessions.
type Store struct {
	mu       sync.Mutex
	entries  map[ID]*entry
	provider Provider
	levelCfg level.Config
}

// New constructs a Store backed by provider, using levelCfg to precompute
// each loaded reference's RMS dB trajectory.
func New(provider Provider, levelCfg level.Config) *Store {
	return &Store{
		entries:  make(map[ID]*entry),
		provider: provider,
		levelCfg: levelCfg,
	}
}

// Handle is a lease on one cached reference entry. Callers must call
// Release exactly once when done; the underlying entry is immutable and
// safe to read concurrently for the handle's lifetime.
type Handle struct {
	store *Store
	id    ID
	e     *entry
}

// Features returns the reference feature matrix. The returned matrix must
// not be mutated; callers needing a writable copy should Clone it.
func (h *Handle) Features() mfcc.FeatureMatrix { return h.e.features }

// LevelDb returns the reference's precomputed RMS dB trajectory, one
// value per feature frame. When the provider supplied features instead of
// raw audio, no trajectory is computed and every value is 0.
func (h *Handle) LevelDb() []float64 { return h.e.levelDb }

// Release decrements the entry's refcount. It is safe to call Release at
// most once per Acquire; calling it more than once will under-count and
// may allow a live entry to be evicted out from under another holder.
func (h *Handle) Release() {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if h.e.refs > 0 {
		h.e.refs--
	}
}

// Acquire returns a Handle on id's feature matrix, extracting it via
// mfccCfg if the provider only supplies raw audio. If the entry is
// already cached, the cached features are reused regardless of mfccCfg
// (the provider contract guarantees offline references are consistently
// extracted once per ID).
func (s *Store) Acquire(ctx context.Context, id ID, mfccCfg mfcc.Config) (*Handle, error) {
	s.mu.Lock()
	if e, ok := s.entries[id]; ok {
		e.refs++
		s.mu.Unlock()
		return &Handle{store: s, id: id, e: e}, nil
	}
	s.mu.Unlock()

	res, err := s.provider.Fetch(ctx, id)
	if err != nil {
		return nil, gcerr.Wrap(gcerr.KindFileNotFound, "refstore: provider fetch failed for "+string(id), err)
	}

	features := res.Features
	var levelDb []float64
	if features == nil {
		if res.RawAudio == nil {
			return nil, gcerr.New(gcerr.KindInitFailed, "refstore: provider returned neither features nor raw audio")
		}
		features, levelDb, err = extract(res.RawAudio, mfccCfg, s.levelCfg)
		if err != nil {
			return nil, gcerr.Wrap(gcerr.KindInitFailed, "refstore: feature extraction failed for "+string(id), err)
		}
	} else {
		levelDb = make([]float64, len(features))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		// Lost the race against a concurrent first-load; reuse the winner's entry.
		e.refs++
		return &Handle{store: s, id: id, e: e}, nil
	}
	e := &entry{features: features, levelDb: levelDb, refs: 1}
	s.entries[id] = e
	return &Handle{store: s, id: id, e: e}, nil
}

// Evict removes id from the cache if, and only if, no handle is
// currently outstanding on it. It reports whether the entry was evicted.
func (s *Store) Evict(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	if e.refs > 0 {
		return false
	}
	delete(s.entries, id)
	return true
}

// Len reports the number of cached entries, for diagnostics and tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func extract(audio []float64, mfccCfg mfcc.Config, levelCfg level.Config) (mfcc.FeatureMatrix, []float64, error) {
	ex, err := mfcc.New(mfccCfg)
	if err != nil {
		return nil, nil, err
	}
	features, consumed, err := ex.ProcessBuffer(audio)
	if err != nil {
		return nil, nil, err
	}
	_ = consumed

	lp, err := level.New(levelCfg)
	if err != nil {
		return nil, nil, err
	}
	levelDb := make([]float64, 0, len(features))
	for i := 0; i+mfccCfg.HopSize <= len(audio); i += mfccCfg.HopSize {
		m, _, err := lp.Update(audio[i:i+mfccCfg.HopSize], float64(i))
		if err != nil {
			return nil, nil, err
		}
		levelDb = append(levelDb, m.RMSDb)
	}
	if len(levelDb) > len(features) {
		levelDb = levelDb[:len(features)]
	}
	for len(levelDb) < len(features) {
		levelDb = append(levelDb, levelCfg.DbFloor)
	}
	return features, levelDb, nil
}
