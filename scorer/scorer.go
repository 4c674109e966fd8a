// Package scorer implements the realtime multi-component similarity
// scorer of spec §4.6: it fuses an MFCC/DTW distance, a volume-trajectory
// comparison, a timing/alignment-deviation measure, and (optionally) a
// pitch component into a single [0,1] similarity score with an attached
// confidence and coaching feedback. Grounded on the pack's weighted
// multi-component distance scoring idiom (component scores folded into
// one weighted sum with a confidence gate), generalized from a two-way
// fusion to the spec's four weighted components.
package scorer

import (
	"math"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/dtw"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"
)

// Scorer accumulates a bounded history of recent scores against one
// loaded reference call and derives trend/peak/progress feedback from it.
// A Scorer is owned by exactly one session; callers must not share one
// across goroutines without external synchronization.
type Scorer struct {
	cfg    Config
	dtwCfg dtw.Config
	state  State

	reference [][]float64 // reference MFCC feature matrix
	refLevel  []float64   // reference dB level trajectory

	history []Score // ring buffer, size cfg.ScoringHistorySize
	head    int
	count   int

	peak        Score
	havePeak    bool
	trend       Trend
	haveTrend   bool
	prevTrendOK bool
	prevTrend   Trend

	liveFrames int // live feature frame count of the latest Process call
}

// New constructs a Scorer in the Ready state.
func New(cfg Config, dtwCfg dtw.Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := dtwCfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{
		cfg:     cfg,
		dtwCfg:  dtwCfg,
		state:   Ready,
		history: make([]Score, cfg.ScoringHistorySize),
	}, nil
}

// State reports the scorer's current lifecycle state.
func (s *Scorer) State() State { return s.state }

// SetConfig validates cfg and, only if valid, installs it in place of the
// scorer's current configuration. On validation failure the previous
// configuration is retained untouched (spec §7 transactional config
// changes).
func (s *Scorer) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// SetDTWConfig validates cfg and, only if valid, installs it as the DTW
// configuration used by the MFCC and timing components.
func (s *Scorer) SetDTWConfig(cfg dtw.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.dtwCfg = cfg
	return nil
}

// SetReference attaches a reference call's MFCC feature matrix and level
// trajectory, transitioning Ready/HasReference/Scoring -> HasReference and
// clearing any prior scoring history.
func (s *Scorer) SetReference(features [][]float64, levelDb []float64) error {
	if len(features) == 0 {
		return gcerr.New(gcerr.KindInvalidParams, "scorer.SetReference: empty reference features")
	}
	s.reference = features
	s.refLevel = levelDb
	s.clearHistory()
	s.state = HasReference
	return nil
}

// ClearReference forgets the loaded reference, transitioning back to
// Ready. Used when a session unloads its master call.
func (s *Scorer) ClearReference() {
	s.reference = nil
	s.refLevel = nil
	s.clearHistory()
	s.state = Ready
}

// Reset clears scoring history, peak, and trend state but preserves the
// loaded reference, per the session reset_session contract (spec §3: reset
// preserves config and reference). The scorer returns to HasReference if a
// reference is loaded, or Ready otherwise.
func (s *Scorer) Reset() {
	s.clearHistory()
	if s.reference != nil {
		s.state = HasReference
	} else {
		s.state = Ready
	}
}

func (s *Scorer) clearHistory() {
	s.head, s.count = 0, 0
	for i := range s.history {
		s.history[i] = Score{}
	}
	s.peak, s.havePeak = Score{}, false
	s.trend, s.haveTrend = Trend{}, false
	s.prevTrend, s.prevTrendOK = Trend{}, false
	s.liveFrames = 0
}

// Input bundles the per-chunk material the session assembles before
// calling Process: the live and reference feature matrices to align, the
// corresponding dB level trajectories, and bookkeeping for the confidence
// computation.
type Input struct {
	LiveFeatures    [][]float64
	LiveLevelDb     []float64
	SamplesAnalyzed int
	NowMs           float64
}

// Process computes one similarity score against the loaded reference,
// records it in history, and transitions HasReference/Scoring -> Scoring.
func (s *Scorer) Process(in Input) (Score, error) {
	if s.state == Ready || s.state == Uninitialized {
		return Score{}, gcerr.New(gcerr.KindNoMasterCall, "scorer.Process: no reference loaded")
	}

	// Empty live features (e.g. a chunk the VAD has not yet classified
	// Active) is not an error: dtw.Compare already returns +Inf distance
	// for an empty sequence, which distanceToSimilarity maps to 0
	// similarity, and the confidence gate below naturally yields
	// is_reliable=false. INSUFFICIENT_DATA is observable state, not a
	// failure (spec.md's scorer state notes).
	mfccSim, err := s.mfccSimilarity(in.LiveFeatures)
	if err != nil {
		return Score{}, err
	}
	volSim := s.volumeSimilarity(in.LiveLevelDb)
	timingSim, path, err := s.timingSimilarity(in.LiveFeatures)
	if err != nil {
		return Score{}, err
	}
	pitchSim := s.pitchSimilarity()

	w := s.cfg.effectiveWeights()
	overall := w.MFCC*mfccSim + w.Volume*volSim + w.Timing*timingSim + w.Pitch*pitchSim

	bandOccupancy := progressRatio(len(in.LiveFeatures), len(s.reference))
	agreement := componentAgreement(mfccSim, volSim, timingSim)
	confidence := s.confidence(in.SamplesAnalyzed, bandOccupancy, agreement)

	score := Score{
		Overall:         clamp01(overall),
		MFCC:            mfccSim,
		Volume:          volSim,
		Timing:          timingSim,
		Pitch:           pitchSim,
		Confidence:      confidence,
		SamplesAnalyzed: in.SamplesAnalyzed,
		TimestampMs:     in.NowMs,
	}
	score.IsReliable = confidence >= s.cfg.ConfidenceThreshold
	score.IsMatch = score.Overall >= s.cfg.MinScoreForMatch

	_ = path // retained for future path-level diagnostics; not otherwise consumed here

	s.liveFrames = len(in.LiveFeatures)
	s.record(score)
	s.state = Scoring
	return score, nil
}

func (s *Scorer) record(score Score) {
	s.history[s.head] = score
	s.head = (s.head + 1) % len(s.history)
	if s.count < len(s.history) {
		s.count++
	}
	if !s.havePeak || score.Overall > s.peak.Overall {
		s.peak = score
		s.havePeak = true
	}
	if score.IsReliable {
		if s.haveTrend {
			s.prevTrend = s.trend
			s.prevTrendOK = true
		}
		s.trend = s.recentTrend()
		s.haveTrend = true
	}
}

// recentTrend computes the componentwise mean of the last min(count,K)
// reliable scores in history.
func (s *Scorer) recentTrend() Trend {
	const k = 10
	n := s.count
	if n > k {
		n = k
	}
	var t Trend
	reliable := 0
	for i := 0; i < s.count && reliable < n; i++ {
		idx := (s.head - 1 - i + len(s.history)) % len(s.history)
		sc := s.history[idx]
		if !sc.IsReliable {
			continue
		}
		t.Overall += sc.Overall
		t.MFCC += sc.MFCC
		t.Volume += sc.Volume
		t.Timing += sc.Timing
		t.Pitch += sc.Pitch
		reliable++
	}
	if reliable == 0 {
		return Trend{}
	}
	div := float64(reliable)
	t.Overall /= div
	t.MFCC /= div
	t.Volume /= div
	t.Timing /= div
	t.Pitch /= div
	return t
}

// Feedback assembles the realtime coaching payload from the scorer's
// current state.
func (s *Scorer) Feedback() Feedback {
	var current Score
	if s.count > 0 {
		current = s.history[(s.head-1+len(s.history))%len(s.history)]
	}
	ratio := progressRatio(s.liveFrames, sum0(len(s.reference)))
	improving := s.prevTrendOK && s.trend.Overall > s.prevTrend.Overall

	return Feedback{
		Current:           current,
		Trending:          s.trend,
		Peak:              s.peak,
		ProgressRatio:     ratio,
		QualityAssessment: qualityAssessment(current.Overall),
		Recommendation:    recommendation(lowestComponent(current), improving),
		IsImproving:       improving,
	}
}

// History returns up to max of the most recent scores, oldest first.
func (s *Scorer) History(max int) []Score {
	if max <= 0 || max > s.count {
		max = s.count
	}
	out := make([]Score, max)
	start := (s.head - max + len(s.history)) % len(s.history)
	if start < 0 {
		start += len(s.history)
	}
	for i := 0; i < max; i++ {
		out[i] = s.history[(start+i)%len(s.history)]
	}
	return out
}

func (s *Scorer) mfccSimilarity(live [][]float64) (float64, error) {
	res, err := dtw.Compare(live, s.reference, s.dtwCfg, false)
	if err != nil {
		return 0, gcerr.Wrap(gcerr.KindComponentError, "scorer: mfcc DTW failed", err)
	}
	return distanceToSimilarity(res.Distance, s.cfg.DTWDistanceScaling), nil
}

func (s *Scorer) timingSimilarity(live [][]float64) (float64, []dtw.Point, error) {
	res, err := dtw.Compare(live, s.reference, s.dtwCfg, true)
	if err != nil {
		return 0, nil, gcerr.Wrap(gcerr.KindComponentError, "scorer: timing DTW failed", err)
	}
	return pathDiagonalFit(res.Path), res.Path, nil
}

func (s *Scorer) volumeSimilarity(liveLevelDb []float64) float64 {
	if len(liveLevelDb) == 0 || len(s.refLevel) == 0 {
		return 0
	}
	live1d := to1d(liveLevelDb)
	ref1d := to1d(s.refLevel)
	res, err := dtw.Compare(live1d, ref1d, s.dtwCfg, false)
	if err != nil || math.IsInf(res.Distance, 1) {
		return 0
	}
	// dB-space distances are much larger than normalized MFCC distances;
	// they use the same exponential-decay shape with a fixed 40 dB scale
	// (a 40 dB distance maps to e^-1).
	return distanceToSimilarity(res.Distance, 40.0)
}

func (s *Scorer) pitchSimilarity() float64 {
	if !s.cfg.EnablePitchAnalysis {
		return 0
	}
	// Pitch tracking is not implemented; when enabled this component
	// contributes neutrally rather than penalizing the overall score.
	return 0.5
}

// confidence implements a monotone-non-decreasing function of sample
// count, DTW band occupancy, and cross-component agreement, gated so that
// samples_analyzed must reach min_samples_for_confidence before the
// confidence threshold is reachable (spec §4.6).
func (s *Scorer) confidence(samplesAnalyzed int, bandOccupancy, agreement float64) float64 {
	min := s.cfg.MinSamplesForConfidence
	if min <= 0 {
		min = 1
	}
	if samplesAnalyzed < min {
		ratio := float64(samplesAnalyzed) / float64(min)
		return clamp01(ratio * s.cfg.ConfidenceThreshold * 0.999)
	}
	base := s.cfg.ConfidenceThreshold
	extra := (1 - base) * (0.5*clamp01(bandOccupancy) + 0.5*clamp01(agreement))
	return clamp01(base + extra)
}

func distanceToSimilarity(distance, scaling float64) float64 {
	if math.IsInf(distance, 1) {
		return 0
	}
	return math.Exp(-distance / scaling)
}

// pathDiagonalFit scores how closely a DTW warping path tracks the
// identity diagonal: 1.0 for a perfectly synchronized alignment, decaying
// toward 0 as the path drifts away from it.
func pathDiagonalFit(path []dtw.Point) float64 {
	if len(path) == 0 {
		return 0
	}
	maxI, maxJ := path[len(path)-1].I, path[len(path)-1].J
	if maxI == 0 || maxJ == 0 {
		return 1
	}
	var sumSq float64
	for _, p := range path {
		expectedJ := float64(p.I) * float64(maxJ) / float64(maxI)
		d := float64(p.J) - expectedJ
		sumSq += d * d
	}
	rmse := math.Sqrt(sumSq / float64(len(path)))
	normalized := rmse / float64(maxJ+1)
	return math.Exp(-4 * normalized)
}

func componentAgreement(a, b, c float64) float64 {
	mean := (a + b + c) / 3
	variance := ((a-mean)*(a-mean) + (b-mean)*(b-mean) + (c-mean)*(c-mean)) / 3
	stddev := math.Sqrt(variance)
	return clamp01(1 - 2*stddev)
}

func progressRatio(live, reference int) float64 {
	if reference <= 0 {
		return 0
	}
	r := float64(live) / float64(reference)
	return clamp01(r)
}

func sum0(n int) int { return n }

func qualityAssessment(overall float64) string {
	switch {
	case overall < 0.002:
		return "Needs improvement"
	case overall < 0.005:
		return "Fair"
	case overall < 0.01:
		return "Good"
	case overall < 0.02:
		return "Very good"
	default:
		return "Excellent"
	}
}

func lowestComponent(s Score) string {
	lowest := "mfcc"
	val := s.MFCC
	if s.Volume < val {
		lowest, val = "volume", s.Volume
	}
	if s.Timing < val {
		lowest, val = "timing", s.Timing
	}
	return lowest
}

func recommendation(lowest string, improving bool) string {
	tip := map[string]string{
		"mfcc":   "Focus on matching the call's tone and timbre.",
		"volume": "Match the reference call's volume and dynamics more closely.",
		"timing": "Work on the call's rhythm and timing.",
	}[lowest]
	if improving {
		return tip + " You're trending upward, keep it up."
	}
	return tip
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func to1d(x []float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, v := range x {
		out[i] = []float64{v}
	}
	return out
}
