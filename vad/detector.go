// Package vad implements the per-window voice activity detector of spec
// §4.3: an energy-threshold classifier with attack/release hysteresis and
// pre/post buffering. The teacher corpus has no direct analog (its
// k-winner-take-all packages solve a different, non-temporal activation
// problem); this state machine is built directly from the spec, in the
// idiom of the pack's other real-time classifiers (e.g. the hysteresis
// VADManager pattern seen across the retrieval pack), with exclusive
// per-session ownership (spec §5).
package vad

import "github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"

// Detector classifies successive windows of audio as active/silent with
// hysteresis. A Detector is owned exclusively by one session's writer
// path; it is not safe for concurrent Update calls.
type Detector struct {
	cfg Config

	state          State
	candidateMs    float64 // accumulated candidate-active duration in the current run
	silentMs       float64 // accumulated silent duration since the last active window
	activeDuration float64 // total active duration since last Reset, in ms

	preBuffer []float64 // most recent preBufferSamples of audio, ring-like
}

// New builds a Detector for cfg. Returns gcerr.KindInvalidConfig if cfg
// violates spec §3.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg, state: Silent}, nil
}

// State returns the detector's current hysteresis state.
func (d *Detector) State() State { return d.state }

// Update classifies one window's worth of samples, advancing the
// hysteresis state machine, per spec §4.3.
func (d *Detector) Update(window []float64) (Result, error) {
	if len(window) == 0 {
		return Result{}, gcerr.New(gcerr.KindInvalidParams, "vad.Update: empty window")
	}

	energy := meanSquare(window)
	windowMs := 1000.0 * float64(len(window)) / float64(d.cfg.SampleRate)
	candidateActive := energy >= d.cfg.EnergyThreshold

	d.retainPreBuffer(window)

	switch d.state {
	case Silent:
		if candidateActive {
			d.state = Candidate
			d.candidateMs = windowMs
		}
	case Candidate:
		if candidateActive {
			d.candidateMs += windowMs
			if d.candidateMs >= d.cfg.MinSoundDurationMs {
				d.state = Active
				d.activeDuration += d.candidateMs
				d.candidateMs = 0
			}
		} else {
			d.state = Silent
			d.candidateMs = 0
		}
	case Active:
		if candidateActive {
			d.activeDuration += windowMs
		} else {
			d.state = Hangover
			d.silentMs = windowMs
		}
	case Hangover:
		if candidateActive {
			d.state = Active
			d.activeDuration += windowMs
			d.silentMs = 0
		} else {
			d.silentMs += windowMs
			if d.silentMs >= d.cfg.PostBufferMs {
				d.state = Silent
				d.silentMs = 0
			}
		}
	}

	level := energy / d.cfg.EnergyThreshold
	if level > 1 {
		level = 1
	}

	return Result{
		IsActive:         d.state == Active || d.state == Hangover,
		EnergyLevel:      level,
		ActiveDurationMs: d.activeDuration,
		State:            d.state,
	}, nil
}

// PreBuffer returns the retained pre-buffer samples captured so an onset
// segment can include the audio immediately preceding detection.
func (d *Detector) PreBuffer() []float64 {
	out := make([]float64, len(d.preBuffer))
	copy(out, d.preBuffer)
	return out
}

func (d *Detector) retainPreBuffer(window []float64) {
	max := d.cfg.preBufferSamples()
	d.preBuffer = append(d.preBuffer, window...)
	if len(d.preBuffer) > max {
		d.preBuffer = d.preBuffer[len(d.preBuffer)-max:]
	}
}

// Reset returns the detector to Silent, clearing buffers and duration.
func (d *Detector) Reset() {
	d.state = Silent
	d.candidateMs = 0
	d.silentMs = 0
	d.activeDuration = 0
	d.preBuffer = nil
}

func meanSquare(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum / float64(len(x))
}
