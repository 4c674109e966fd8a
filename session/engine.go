// Package session implements the per-session pipeline and multi-session
// engine manager of spec §4.7: session/reference lifecycle, the chunk
// processing pipeline (buffer -> MFCC -> VAD gate -> level -> scorer),
// transactional configuration changes, and the reader/writer locking
// discipline of spec §5. Grounded on the pack's engine-manager shape
// (a shared handle owning a map of per-entity state, each entry guarded
// by its own lock) generalized from the pack's single-resource-per-entry
// pattern to a session owning five cooperating components.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/config"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/diag"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/dtw"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/refstore"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/scorer"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/vad"
)

// Engine owns every session created through it; sessions never outlive
// their Engine (spec §3).
type Engine struct {
	mu       sync.Mutex
	sessions map[ID]*Session
	nextID   uint64

	store    *refstore.Store
	sink     diag.Sink
	tunables config.Tunables
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithSink installs a diagnostics sink; the default is diag.NoopSink, so
// the core never logs unconditionally (spec §9 design notes).
func WithSink(sink diag.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithTunables installs the numeric tunables new sessions seed their MFCC,
// VAD, DTW and Scorer configs from; the default is config.Defaults(). Pass
// the result of config.LoadYAML to deploy tuned defaults without a rebuild.
func WithTunables(tunables config.Tunables) Option {
	return func(e *Engine) { e.tunables = tunables }
}

// New constructs an Engine backed by store for reference lookups.
func New(store *refstore.Store, opts ...Option) *Engine {
	e := &Engine{
		sessions: make(map[ID]*Session),
		store:    store,
		sink:     diag.NoopSink,
		tunables: config.Defaults(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateSession allocates a new session at sampleRate and returns its ID.
func (e *Engine) CreateSession(sampleRate int) (ID, error) {
	e.mu.Lock()
	tunables := e.tunables
	e.mu.Unlock()
	s, err := newSession(0, sampleRate, tunables)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	id := ID(atomic.AddUint64(&e.nextID, 1))
	s.id = id
	e.sessions[id] = s
	e.sink.Infof("session %d created at %dHz", id, sampleRate)
	return id, nil
}

// DestroySession removes and releases a session, including its reference
// handle. Idempotent: destroying an already-unknown ID returns
// SESSION_NOT_FOUND rather than panicking.
func (e *Engine) DestroySession(id ID) error {
	e.mu.Lock()
	s, ok := e.sessions[id]
	if ok {
		delete(e.sessions, id)
	}
	e.mu.Unlock()
	if !ok {
		return gcerr.New(gcerr.KindSessionNotFound, "session: unknown id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refHandle != nil {
		s.refHandle.Release()
		s.refHandle = nil
	}
	s.destroyed = true
	e.sink.Infof("session %d destroyed", id)
	return nil
}

func (e *Engine) lookup(id ID) (*Session, error) {
	e.mu.Lock()
	s, ok := e.sessions[id]
	e.mu.Unlock()
	if !ok {
		return nil, gcerr.New(gcerr.KindSessionNotFound, "session: unknown id")
	}
	return s, nil
}

// LoadMasterCall attaches refID's feature matrix to session id, replacing
// any previously loaded reference. Takes the session's writer lock; may
// block on the reference provider collaborator.
func (e *Engine) LoadMasterCall(ctx context.Context, id ID, refID refstore.ID) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadMasterCall(ctx, e.store, refID); err != nil {
		e.sink.Warnf("session %d: load_master_call(%s) failed: %v", id, refID, err)
		return err
	}
	return nil
}

// UnloadMasterCall forgets session id's loaded reference, if any.
func (e *Engine) UnloadMasterCall(id ID) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unloadMasterCall()
	return nil
}

// ProcessAudioChunk runs the per-chunk pipeline of spec §4.7 on session
// id. Takes the session's writer lock; does not block on I/O.
func (e *Engine) ProcessAudioChunk(id ID, samples []float64) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processChunk(samples)
}

// GetSimilarityScore returns session id's latest overall similarity in
// [0,1]. Takes the session's reader lock.
func (e *Engine) GetSimilarityScore(id ID) (float64, error) {
	sc, err := e.GetDetailedScore(id)
	if err != nil {
		return 0, err
	}
	return sc.Overall, nil
}

// GetDetailedScore returns session id's latest full Score.
func (e *Engine) GetDetailedScore(id ID) (Score, error) {
	s, err := e.lookup(id)
	if err != nil {
		return Score{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	hist := s.sc.History(1)
	if len(hist) == 0 {
		return Score{}, gcerr.New(gcerr.KindInsufficientData, "session: no score available yet")
	}
	return hist[0], nil
}

// GetRealtimeFeedback returns session id's current coaching feedback.
func (e *Engine) GetRealtimeFeedback(id ID) (Feedback, error) {
	s, err := e.lookup(id)
	if err != nil {
		return Feedback{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sc.Feedback(), nil
}

// GetScoringHistory returns up to max of session id's most recent scores,
// oldest first.
func (e *Engine) GetScoringHistory(id ID, max int) ([]Score, error) {
	s, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sc.History(max), nil
}

// ConfigureVAD validates cfg and, only if valid, installs a fresh
// Detector with it, replacing the session's current VAD state.
func (e *Engine) ConfigureVAD(id ID, cfg vad.Config) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	detector, err := vad.New(cfg)
	if err != nil {
		return err
	}
	s.detector = detector
	s.vadCfg = cfg
	return nil
}

// ConfigureDTW validates cfg and, only if valid, installs it as the
// scorer's DTW configuration.
func (e *Engine) ConfigureDTW(id ID, cfg dtw.Config) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sc.SetDTWConfig(cfg); err != nil {
		return err
	}
	s.dtwCfg = cfg
	return nil
}

// SetRealtimeScorerConfig validates cfg and, only if valid, installs it as
// the session's scorer configuration. On failure (e.g. weights not
// summing to 1.0) the previous configuration is retained (spec §7, §8
// testable property 5).
func (e *Engine) SetRealtimeScorerConfig(id ID, cfg scorer.Config) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sc.SetConfig(cfg); err != nil {
		return err
	}
	s.scorerCfg = cfg
	return nil
}

// SetRecordingSink installs sink as session id's recording collaborator,
// or clears it if sink is nil.
func (e *Engine) SetRecordingSink(id ID, sink RecordingSink) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = sink
	return nil
}

// ResetSession clears session id's live buffers, features, scorer state,
// and level history, preserving its configuration and reference. It is
// idempotent (spec §8 testable property: reset_session restores the
// session to the same observable state as immediately after
// create_session + load_master_call on the same reference).
func (e *Engine) ResetSession(id ID) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}
