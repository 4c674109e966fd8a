package dtw

// Point is one step (i, j) of a warping path.
type Point struct{ I, J int }

// Result is the outcome of a DTW comparison, per spec §4.4.
type Result struct {
	Distance float64 // cost, lower is more similar; +Inf for empty input
	Path     []Point // only populated when WithPath is requested
}
