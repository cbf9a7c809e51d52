package analytics

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"retail-insights/models"
)

const eulerGamma = 0.5772156649015329

// IsolationForest scores a one-dimensional series by how quickly random splits
// isolate each point. The Contamination share of lowest-scoring points are outliers.
type IsolationForest struct {
	Trees         int
	MaxSamples    int
	Contamination float64
	Seed          int64
	MinPoints     int
	MaxPoints     int
}

// NewIsolationForest returns a forest of 20 trees over at most 128 samples each,
// assuming 5% contamination, for series of 3 to 500 points.
func NewIsolationForest(seed int64) *IsolationForest {
	return &IsolationForest{
		Trees:         20,
		MaxSamples:    128,
		Contamination: 0.05,
		Seed:          seed,
		MinPoints:     3,
		MaxPoints:     500,
	}
}

func (f *IsolationForest) Name() string { return StrategyIsolationForest }

// Detect fits a fresh forest on quantities and flags the outliers. A flagged point is
// High when it exceeds the series mean, Low otherwise. The random source is reseeded
// on every call so identical input always yields identical flags.
func (f *IsolationForest) Detect(quantities []float64) ([]Flag, error) {
	n := len(quantities)
	if n < f.MinPoints {
		return nil, ErrInsufficientData
	}
	if n > f.MaxPoints {
		return nil, fmt.Errorf("%w (%d rows)", ErrSeriesTooLarge, n)
	}
	if f.Trees <= 0 || f.Contamination <= 0 || f.Contamination > 0.5 {
		return nil, fmt.Errorf("%w: trees=%d contamination=%v", ErrDegenerateSeries, f.Trees, f.Contamination)
	}
	if err := checkFinite(quantities); err != nil {
		return nil, err
	}

	scores := f.scoreSamples(quantities)
	offset := percentile(scores, 100*f.Contamination)
	mean := stat.Mean(quantities, nil)

	var flags []Flag
	for i, s := range scores {
		if s >= offset {
			continue
		}
		kind := models.AnomalyLow
		if quantities[i] > mean {
			kind = models.AnomalyHigh
		}
		flags = append(flags, Flag{Index: i, Type: kind, Score: -s})
	}
	return flags, nil
}

// scoreSamples returns the negated anomaly score of every point, so lower is more abnormal.
func (f *IsolationForest) scoreSamples(x []float64) []float64 {
	rng := rand.New(rand.NewSource(f.Seed))
	psi := f.MaxSamples
	if psi <= 0 || psi > len(x) {
		psi = len(x)
	}
	heightLimit := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))

	depths := make([]float64, len(x))
	sample := make([]float64, psi)
	for t := 0; t < f.Trees; t++ {
		for i, idx := range rng.Perm(len(x))[:psi] {
			sample[i] = x[idx]
		}
		root := growTree(rng, append([]float64(nil), sample...), 0, heightLimit)
		for i, v := range x {
			depths[i] += root.pathLength(v, 0)
		}
	}

	norm := averagePathLength(psi)
	scores := make([]float64, len(x))
	for i := range x {
		meanDepth := depths[i] / float64(f.Trees)
		scores[i] = -math.Pow(2, -meanDepth/norm)
	}
	return scores
}

type isolationNode struct {
	split       float64
	left, right *isolationNode
	size        int
}

func growTree(rng *rand.Rand, values []float64, depth, limit int) *isolationNode {
	if depth >= limit || len(values) <= 1 {
		return &isolationNode{size: len(values)}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return &isolationNode{size: len(values)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &isolationNode{
		split: split,
		left:  growTree(rng, left, depth+1, limit),
		right: growTree(rng, right, depth+1, limit),
	}
}

func (n *isolationNode) pathLength(v float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + averagePathLength(n.size)
	}
	if v < n.split {
		return n.left.pathLength(v, depth+1)
	}
	return n.right.pathLength(v, depth+1)
}

// averagePathLength is the expected path length of an unsuccessful BST search over n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		m := float64(n - 1)
		return 2*(math.Log(m)+eulerGamma) - 2*m/float64(n)
	}
}

// percentile interpolates linearly between the closest ranks, p in [0, 100].
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
