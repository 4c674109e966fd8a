// Package dtw implements the Sakoe-Chiba-banded Dynamic Time Warping
// comparator of spec §4.4. No example in the retrieval pack ships a DTW
// implementation directly; this is built from the spec's DP recurrence
// directly, in the idiom of the pack's other numeric-matrix code (plain
// slices, no external matrix library, deterministic tie-breaks for
// reproducible tests) — the closest pack analog is the weighted
// multi-component distance scoring in the pack's piano-analysis sibling,
// which informs the component-fusion shape reused by the scorer package.
package dtw

import (
	"math"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/gcerr"
)

var inf = math.Inf(1)

// Compare computes the DTW alignment cost between sequences a and b,
// optionally restricted to a Sakoe-Chiba band. Dimension mismatch between
// feature vectors is a precondition violation the caller must avoid; if it
// occurs anyway, Compare returns gcerr.KindInvalidParams rather than
// silently producing a meaningless distance.
func Compare(a, b [][]float64, cfg Config, withPath bool) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return Result{Distance: math.Inf(1)}, nil
	}
	dim := len(a[0])
	for _, v := range a {
		if len(v) != dim {
			return Result{}, gcerr.New(gcerr.KindInvalidParams, "dtw.Compare: ragged sequence A")
		}
	}
	for _, v := range b {
		if len(v) != dim {
			return Result{}, gcerr.New(gcerr.KindInvalidParams, "dtw.Compare: ragged sequence B")
		}
	}
	if len(b[0]) != dim {
		return Result{}, gcerr.New(gcerr.KindInvalidParams, "dtw.Compare: feature dimension mismatch between A and B")
	}

	halfWidth := n // unbounded by default
	if cfg.UseWindow {
		longer := m
		if n > longer {
			longer = n
		}
		halfWidth = int(math.Ceil(cfg.WindowRatio * float64(longer)))
	}

	d := make([][]float64, m)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			d[i][j] = inf
		}
	}

	inBand := func(i, j int) bool {
		if !cfg.UseWindow {
			return true
		}
		return abs(i-j) <= halfWidth
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if !inBand(i, j) {
				continue
			}
			cost := euclid(a[i], b[j])
			if i == 0 && j == 0 {
				d[i][j] = cost
				continue
			}
			best := inf
			if i > 0 && inBand(i-1, j) {
				best = min2(best, d[i-1][j])
			}
			if j > 0 && inBand(i, j-1) {
				best = min2(best, d[i][j-1])
			}
			if i > 0 && j > 0 && inBand(i-1, j-1) {
				best = min2(best, d[i-1][j-1])
			}
			if best == inf {
				continue
			}
			d[i][j] = cost + best
		}
	}

	rawDist := d[m-1][n-1]
	var path []Point
	pathLen := 0
	if rawDist != inf {
		path, pathLen = recoverPath(d, m, n)
	}

	dist := rawDist
	if cfg.NormalizeDistance && pathLen > 0 && dist != inf {
		dist /= float64(pathLen)
	}
	dist *= cfg.weight()

	res := Result{Distance: dist}
	if withPath {
		res.Path = path
	}
	return res, nil
}

// recoverPath walks the cost matrix backward from (m-1,n-1) to (0,0),
// picking among tied predecessors in the deterministic order required by
// spec §4.4: diagonal first, then the step that advances the longer
// sequence, then the remaining step.
func recoverPath(d [][]float64, m, n int) ([]Point, int) {
	preferLonger := longerAdvancesI(m, n)

	i, j := m-1, n-1
	path := []Point{{i, j}}
	for i > 0 || j > 0 {
		type cand struct {
			di, dj int
			cost   float64
			order  int
		}
		var cands []cand
		if i > 0 && j > 0 {
			cands = append(cands, cand{-1, -1, d[i-1][j-1], 0})
		}
		if preferLonger {
			if i > 0 {
				cands = append(cands, cand{-1, 0, d[i-1][j], 1})
			}
			if j > 0 {
				cands = append(cands, cand{0, -1, d[i][j-1], 2})
			}
		} else {
			if j > 0 {
				cands = append(cands, cand{0, -1, d[i][j-1], 1})
			}
			if i > 0 {
				cands = append(cands, cand{-1, 0, d[i-1][j], 2})
			}
		}

		bestIdx := 0
		for k := 1; k < len(cands); k++ {
			if cands[k].cost < cands[bestIdx].cost {
				bestIdx = k
			}
		}
		best := cands[bestIdx]
		i += best.di
		j += best.dj
		path = append(path, Point{i, j})
	}
	// reverse
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path, len(path)
}

// longerAdvancesI reports whether "advance the longer sequence" means
// stepping i backward (true, when A is the longer/equal sequence) or j
// backward (false, when B is strictly longer).
func longerAdvancesI(m, n int) bool {
	return m >= n
}

func euclid(x, y []float64) float64 {
	var sum float64
	for i := range x {
		diff := x[i] - y[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
