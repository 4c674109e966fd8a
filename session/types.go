package session

import "github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/scorer"

// ID identifies a session within an Engine. Zero is never assigned by
// CreateSession and means "invalid" (spec §3).
type ID uint64

// RecordingSink is the optional collaborator a session pushes processed
// chunks into when recording is enabled. File I/O and format concerns
// belong entirely to the implementation.
type RecordingSink interface {
	Record(id ID, chunk []float64) error
}

// Score mirrors scorer.Score at the session API boundary; kept as a
// distinct alias so callers depend on the session package's surface
// rather than reaching into the scorer package directly.
type Score = scorer.Score

// Feedback mirrors scorer.Feedback at the session API boundary.
type Feedback = scorer.Feedback
