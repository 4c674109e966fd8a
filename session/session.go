package session

import (
	"context"
	"sync"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/config"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/dtw"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/level"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/mfcc"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/refstore"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/scorer"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/vad"
)

// defaultFrameHorizon bounds the live feature matrix before any reference
// is loaded; once a reference is loaded the horizon becomes the
// reference's own frame count (spec §5 resource bounds).
const defaultFrameHorizon = 2000

// Session is one isolated scoring context: its own sample rate, component
// configs, reference handle, live buffers, and scorer state. A Session is
// guarded by its own reader/writer lock (spec §5); callers reach it only
// through Engine, which takes the appropriate lock before delegating to
// the unexported methods below.
type Session struct {
	mu sync.RWMutex

	id         ID
	sampleRate int

	mfccCfg   mfcc.Config
	vadCfg    vad.Config
	dtwCfg    dtw.Config
	scorerCfg scorer.Config

	extractor *mfcc.Extractor
	detector  *vad.Detector
	levelProc *level.Processor
	sc        *scorer.Scorer

	refHandle *refstore.Handle
	refID     refstore.ID

	liveBuffer   []float64
	liveFeatures mfcc.FeatureMatrix
	liveLevelDb  []float64

	frameHorizon int

	rawSamplesIngested int
	samplesAnalyzed    int
	destroyed          bool

	recorder RecordingSink
}

func newSession(id ID, sampleRate int, tunables config.Tunables) (*Session, error) {
	if sampleRate <= 0 {
		return nil, gcerr.New(gcerr.KindInvalidParams, "session: sample_rate must be > 0")
	}
	mfccCfg := tunables.MFCCConfig(sampleRate)
	vadCfg := tunables.VADConfig(sampleRate)
	dtwCfg := tunables.DTWConfig()
	scorerCfg := tunables.ScorerConfig()

	extractor, err := mfcc.New(mfccCfg)
	if err != nil {
		return nil, err
	}
	detector, err := vad.New(vadCfg)
	if err != nil {
		return nil, err
	}
	levelCfg := level.DefaultConfig()
	levelCfg.SampleRate = sampleRate
	levelProc, err := level.New(levelCfg)
	if err != nil {
		return nil, err
	}
	sc, err := scorer.New(scorerCfg, dtwCfg)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:           id,
		sampleRate:   sampleRate,
		mfccCfg:      mfccCfg,
		vadCfg:       vadCfg,
		dtwCfg:       dtwCfg,
		scorerCfg:    scorerCfg,
		extractor:    extractor,
		detector:     detector,
		levelProc:    levelProc,
		sc:           sc,
		frameHorizon: defaultFrameHorizon,
	}, nil
}

// loadMasterCall acquires refID's feature matrix from store and attaches
// it to the session, replacing any previously loaded reference. Caller
// must hold the writer lock.
func (s *Session) loadMasterCall(ctx context.Context, store *refstore.Store, refID refstore.ID) error {
	handle, err := store.Acquire(ctx, refID, s.mfccCfg)
	if err != nil {
		return err
	}
	if s.refHandle != nil {
		s.refHandle.Release()
	}
	s.refHandle = handle
	s.refID = refID
	s.frameHorizon = len(handle.Features())
	if s.frameHorizon <= 0 {
		s.frameHorizon = defaultFrameHorizon
	}
	s.trimToHorizon()
	return s.sc.SetReference(toRaw(handle.Features()), handle.LevelDb())
}

// unloadMasterCall releases the loaded reference, if any. Caller must
// hold the writer lock.
func (s *Session) unloadMasterCall() {
	if s.refHandle != nil {
		s.refHandle.Release()
		s.refHandle = nil
		s.refID = ""
	}
	s.frameHorizon = defaultFrameHorizon
	s.sc.ClearReference()
}

// processChunk runs the pipeline of spec §4.7 on one chunk of contiguous
// samples. Caller must hold the writer lock.
func (s *Session) processChunk(chunk []float64) error {
	if len(chunk) == 0 {
		return gcerr.New(gcerr.KindInvalidParams, "session: empty chunk")
	}

	savedBuffer := append([]float64(nil), s.liveBuffer...)
	savedFeatureLen := len(s.liveFeatures)

	s.liveBuffer = append(s.liveBuffer, chunk...)
	newFeatures, consumed, err := s.extractor.ProcessBuffer(s.liveBuffer)
	if err != nil {
		// Roll back: chunk processing must not corrupt session state (spec §7).
		s.liveBuffer = savedBuffer
		return gcerr.Wrap(gcerr.KindComponentError, "session: MFCC extraction failed", err)
	}
	s.liveBuffer = s.liveBuffer[consumed:]

	vadResult, err := s.detector.Update(chunk)
	if err != nil {
		s.liveBuffer = savedBuffer
		s.liveFeatures = s.liveFeatures[:savedFeatureLen]
		return gcerr.Wrap(gcerr.KindComponentError, "session: VAD update failed", err)
	}

	levelMeasurement, _, err := s.levelProc.Update(chunk, s.virtualClockMs())
	if err != nil {
		s.liveBuffer = savedBuffer
		s.liveFeatures = s.liveFeatures[:savedFeatureLen]
		return gcerr.Wrap(gcerr.KindComponentError, "session: level update failed", err)
	}

	if vadResult.IsActive {
		s.liveFeatures = append(s.liveFeatures, newFeatures...)
		for range newFeatures {
			s.liveLevelDb = append(s.liveLevelDb, levelMeasurement.RMSDb)
		}
		s.samplesAnalyzed += consumed
	}
	s.rawSamplesIngested += len(chunk)
	s.trimToHorizon()

	if s.recorder != nil {
		if err := s.recorder.Record(s.id, chunk); err != nil {
			return gcerr.Wrap(gcerr.KindProcessingError, "session: recording sink failed", err)
		}
	}

	if s.refHandle != nil {
		_, err := s.sc.Process(scorer.Input{
			LiveFeatures:    toRaw(s.liveFeatures),
			LiveLevelDb:     s.liveLevelDb,
			SamplesAnalyzed: s.samplesAnalyzed,
			NowMs:           s.virtualClockMs(),
		})
		if err != nil {
			return gcerr.Wrap(gcerr.KindComponentError, "session: scoring failed", err)
		}
	}
	return nil
}

// trimToHorizon discards the oldest frames once liveFeatures exceeds
// frameHorizon, keeping memory per session O(reference length), per spec
// §5 resource bounds.
func (s *Session) trimToHorizon() {
	if len(s.liveFeatures) > s.frameHorizon {
		drop := len(s.liveFeatures) - s.frameHorizon
		s.liveFeatures = s.liveFeatures[drop:]
		s.liveLevelDb = s.liveLevelDb[drop:]
	}
	maxBuffer := s.frameHorizon*s.mfccCfg.HopSize + s.mfccCfg.FrameSize
	if len(s.liveBuffer) > maxBuffer {
		s.liveBuffer = s.liveBuffer[len(s.liveBuffer)-maxBuffer:]
	}
}

// reset clears live buffers, features, scorer state, and level history,
// while preserving configuration and the loaded reference (spec §3).
// Caller must hold the writer lock.
func (s *Session) reset() {
	s.liveBuffer = nil
	s.liveFeatures = nil
	s.liveLevelDb = nil
	s.rawSamplesIngested = 0
	s.samplesAnalyzed = 0
	s.detector.Reset()
	s.levelProc.Reset()
	s.sc.Reset()
}

func (s *Session) virtualClockMs() float64 {
	return float64(s.rawSamplesIngested) * 1000.0 / float64(s.sampleRate)
}

func toRaw(fm mfcc.FeatureMatrix) [][]float64 {
	out := make([][]float64, len(fm))
	for i, v := range fm {
		out[i] = []float64(v)
	}
	return out
}
