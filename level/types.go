package level

// Measurement is one emitted level reading, per spec §4.5.
type Measurement struct {
	RMSLinear  float64
	RMSDb      float64
	PeakLinear float64
	PeakDb     float64
	TimestampMs float64
}
