package classifier

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"leafguard/server/models"
)

// HeuristicScorer derives a pseudo-probability from image statistics when no
// trained classifier is available. The constants below are hand-tuned
// against labeled crop photos; do not adjust them without re-running the
// labeled test set.
type HeuristicScorer struct {
	mu     sync.Mutex
	jitter distuv.Normal
}

// NewHeuristicScorer returns a scorer with a time-seeded jitter source.
func NewHeuristicScorer() *HeuristicScorer {
	return NewSeededHeuristicScorer(uint64(time.Now().UnixNano()))
}

// NewSeededHeuristicScorer returns a scorer whose jitter is reproducible for
// a given seed.
func NewSeededHeuristicScorer(seed uint64) *HeuristicScorer {
	return &HeuristicScorer{
		jitter: distuv.Normal{
			Mu:    0,
			Sigma: 0.01,
			Src:   rand.NewSource(seed),
		},
	}
}

// Score combines the feature vector and crop bias into a probability in
// [0.001, 0.999]. The primary tiers are mutually exclusive alternatives, the
// secondary adjustments stack on whichever tier matched.
func (s *HeuristicScorer) Score(f models.FeatureVector, cropBias float64) float64 {
	var score float64
	switch {
	case f.Brightness > 0.6 && f.GreenDominance > 0.35 && f.TextureComplexity > 0.02:
		score = 0.95 // strong healthy signal
	case f.Brightness > 0.4 && f.GreenDominance > 0.3:
		score = 0.75 // moderate healthy signal
	case f.Brightness < 0.3 || f.GreenDominance < 0.25:
		score = 0.15 // strong affected signal
	default:
		score = 0.45 // borderline
	}

	if f.Contrast > 0.2 && f.Contrast < 0.4 {
		score += 0.05
	}
	if f.ColorBalance > 0.3 {
		// Heavy red/blue imbalance reads as unnatural coloring.
		score -= 0.1
	}

	// The table values are intentionally coarse; they enter the score
	// dampened tenfold.
	score += cropBias * 0.1

	s.mu.Lock()
	score += s.jitter.Rand()
	s.mu.Unlock()

	return clamp(score, 0.001, 0.999)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
