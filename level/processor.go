// Package level implements the streaming RMS/peak audio level processor
// of spec §4.5: asymmetric attack/release smoothing, dB mapping, a bounded
// measurement history, and a lock-free atomic snapshot for UI readers.
// Grounded on the teacher's dft.Params smoothing coefficient pattern
// (PrevSmooth/CurSmooth blending of successive power frames in
// dft/dft.go), generalized from a single fixed blend factor to the
// spec's asymmetric attack-vs-release time constants.
package level

import (
	"math"
	"sync/atomic"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"
)

// Processor tracks RMS and peak level for one session's live audio. It is
// owned exclusively by the session's writer path for Update, but Current
// may be called concurrently by reader threads without blocking the
// writer (spec §5).
type Processor struct {
	cfg Config

	alphaAttack  float64
	alphaRelease float64

	rmsLevel  float64
	peakLevel float64

	history []Measurement // ring buffer
	head    int
	count   int
	lastEmitMs float64
	haveEmitted bool

	current atomic.Pointer[Measurement]
}

// New builds a Processor for cfg.
func New(cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Processor{
		cfg:          cfg,
		alphaAttack:  smoothingAlpha(cfg.AttackMs, cfg.SampleRate),
		alphaRelease: smoothingAlpha(cfg.ReleaseMs, cfg.SampleRate),
		history:      make([]Measurement, cfg.HistorySize),
	}
	zero := Measurement{RMSDb: cfg.DbFloor, PeakDb: cfg.DbFloor}
	p.current.Store(&zero)
	return p, nil
}

func smoothingAlpha(tauMs float64, sampleRate int) float64 {
	tauSec := tauMs / 1000.0
	return math.Exp(-1.0 / (tauSec * float64(sampleRate)))
}

// Update feeds a chunk of samples through the smoothing filters, always
// refreshing the atomic current-level snapshot, and appends a
// Measurement to history (returning emitted=true) only if update_rate_ms
// has elapsed since the last emission.
func (p *Processor) Update(chunk []float64, nowMs float64) (Measurement, bool, error) {
	if len(chunk) == 0 {
		return Measurement{}, false, gcerr.New(gcerr.KindInvalidParams, "level.Update: empty chunk")
	}

	rms := rmsOf(chunk)
	peak := peakOf(chunk)

	n := float64(len(chunk))
	p.rmsLevel = p.smooth(p.rmsLevel, rms, n)
	p.peakLevel = p.smooth(p.peakLevel, peak, n)

	m := Measurement{
		RMSLinear:   p.rmsLevel,
		RMSDb:       p.toDb(p.rmsLevel),
		PeakLinear:  p.peakLevel,
		PeakDb:      p.toDb(p.peakLevel),
		TimestampMs: nowMs,
	}
	p.current.Store(&m)

	emitted := !p.haveEmitted || nowMs-p.lastEmitMs >= p.cfg.UpdateRateMs
	if emitted {
		p.history[p.head] = m
		p.head = (p.head + 1) % len(p.history)
		if p.count < len(p.history) {
			p.count++
		}
		p.lastEmitMs = nowMs
		p.haveEmitted = true
	}
	return m, emitted, nil
}

// smooth advances the per-sample one-pole filter by n samples of constant
// input x, so the attack/release time constants hold for any chunk size.
func (p *Processor) smooth(level, x, n float64) float64 {
	if x > level {
		a := math.Pow(p.alphaAttack, n)
		return a*level + (1-a)*x
	}
	a := math.Pow(p.alphaRelease, n)
	return a*level + (1-a)*x
}

func (p *Processor) toDb(linear float64) float64 {
	floorLinear := math.Pow(10, p.cfg.DbFloor/20)
	db := 20 * math.Log10(math.Max(linear, floorLinear))
	if db < p.cfg.DbFloor {
		db = p.cfg.DbFloor
	}
	if db > p.cfg.DbCeiling {
		db = p.cfg.DbCeiling
	}
	return db
}

// Current returns an atomic snapshot of the most recent measurement
// without taking any lock.
func (p *Processor) Current() Measurement {
	return *p.current.Load()
}

// History returns up to max of the most recent measurements, oldest first.
func (p *Processor) History(max int) []Measurement {
	if max <= 0 || max > p.count {
		max = p.count
	}
	out := make([]Measurement, max)
	start := (p.head - max + len(p.history)) % len(p.history)
	if start < 0 {
		start += len(p.history)
	}
	for i := 0; i < max; i++ {
		out[i] = p.history[(start+i)%len(p.history)]
	}
	return out
}

// Reset clears smoothing state and history.
func (p *Processor) Reset() {
	p.rmsLevel = 0
	p.peakLevel = 0
	p.head = 0
	p.count = 0
	p.lastEmitMs = 0
	p.haveEmitted = false
	for i := range p.history {
		p.history[i] = Measurement{}
	}
	zero := Measurement{RMSDb: p.cfg.DbFloor, PeakDb: p.cfg.DbFloor}
	p.current.Store(&zero)
}

func rmsOf(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func peakOf(x []float64) float64 {
	var m float64
	for _, v := range x {
		a := math.Abs(v)
		if a > m {
			m = a
		}
	}
	return m
}
