package level

import "github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"

// Config holds the audio level processor's tunables, per spec §4.5.
type Config struct {
	SampleRate     int
	AttackMs       float64 // time constant for rising levels
	ReleaseMs      float64 // time constant for falling levels
	DbFloor        float64 // e.g. -60
	DbCeiling      float64 // e.g. 0
	UpdateRateMs   float64 // minimum spacing between emitted measurements
	HistorySize    int     // ring capacity
}

// DefaultConfig returns reasonable smoothing defaults at 44.1kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		AttackMs:     10,
		ReleaseMs:    100,
		DbFloor:      -60,
		DbCeiling:    0,
		UpdateRateMs: 50,
		HistorySize:  100,
	}
}

// Validate enforces basic sanity on the config.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return gcerr.New(gcerr.KindInvalidConfig, "sample_rate must be > 0")
	case c.AttackMs <= 0 || c.ReleaseMs <= 0:
		return gcerr.New(gcerr.KindInvalidConfig, "attack_ms and release_ms must be > 0")
	case c.DbFloor >= c.DbCeiling:
		return gcerr.New(gcerr.KindInvalidConfig, "db_floor must be < db_ceiling")
	case c.HistorySize <= 0:
		return gcerr.New(gcerr.KindInvalidConfig, "history_size must be > 0")
	case c.UpdateRateMs < 0:
		return gcerr.New(gcerr.KindInvalidConfig, "update_rate_ms must be >= 0")
	}
	return nil
}
