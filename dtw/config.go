package dtw

import "github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"

// Config holds the DTW comparator's tunables, per spec §3/§4.4.
type Config struct {
	WindowRatio       float64 // in [0,1], Sakoe-Chiba band as a fraction of the longer sequence
	UseWindow         bool
	NormalizeDistance bool
	DistanceWeight    float64 // scales the returned cost; 0 defaults to 1
	EnableSIMD        bool    // advisory only; behavior is identical either way
}

// DefaultConfig returns a reasonable default: a 10% Sakoe-Chiba band with
// length-normalized distance.
func DefaultConfig() Config {
	return Config{
		WindowRatio:       0.1,
		UseWindow:         true,
		NormalizeDistance: true,
		DistanceWeight:    1.0,
	}
}

// Validate enforces the invariants in spec §3.
func (c Config) Validate() error {
	if c.WindowRatio < 0 || c.WindowRatio > 1 {
		return gcerr.New(gcerr.KindInvalidConfig, "window_ratio must be in [0,1]")
	}
	return nil
}

func (c Config) weight() float64 {
	if c.DistanceWeight == 0 {
		return 1.0
	}
	return c.DistanceWeight
}
