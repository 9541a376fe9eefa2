package matching

import (
	"math"
)

// varianceThreshold splits vectors into high and low variance regimes for
// adaptive metric weighting.
const defaultVarianceThreshold = 0.1

// metricWeights holds the blend weights for the six similarity metrics.
type metricWeights struct {
	cosine      float64
	euclidean   float64
	correlation float64
	structural  float64
	manhattan   float64
	weighted    float64
}

// highVarianceWeights favors angular metrics, which discriminate better
// when the feature values spread out.
var highVarianceWeights = metricWeights{
	cosine:      0.35,
	euclidean:   0.15,
	correlation: 0.25,
	structural:  0.10,
	manhattan:   0.05,
	weighted:    0.10,
}

// lowVarianceWeights favors distance metrics, which stay informative when
// most feature values cluster near each other.
var lowVarianceWeights = metricWeights{
	cosine:      0.20,
	euclidean:   0.30,
	correlation: 0.15,
	structural:  0.15,
	manhattan:   0.10,
	weighted:    0.10,
}

// SimilarityScorer blends six vector similarity metrics into a single
// integer score in [0,100], choosing metric weights adaptively from the
// variance of the inputs.
type SimilarityScorer struct {
	varianceThreshold float64
}

// NewSimilarityScorer returns a scorer with the given variance threshold.
// A non-positive threshold falls back to the default.
func NewSimilarityScorer(varianceThreshold float64) *SimilarityScorer {
	if varianceThreshold <= 0 {
		varianceThreshold = defaultVarianceThreshold
	}
	return &SimilarityScorer{varianceThreshold: varianceThreshold}
}

// Score compares two feature vectors and returns a rounded similarity in
// [0,100]. Identical non-degenerate vectors score 100. A zero-magnitude
// vector on either side scores 0: an all-zero vector carries no signal
// worth matching against.
func (s *SimilarityScorer) Score(a, b []float64) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	a, b = a[:n], b[:n]

	if magnitude(a) == 0 || magnitude(b) == 0 {
		return 0
	}

	w := s.weightsFor(a, b)

	blend := w.cosine*cosineSimilarity(a, b) +
		w.euclidean*euclideanSimilarity(a, b) +
		w.correlation*correlationSimilarity(a, b) +
		w.structural*structuralSimilarity(a, b) +
		w.manhattan*manhattanSimilarity(a, b) +
		w.weighted*positionWeightedSimilarity(a, b)

	return int(math.Round(logisticScale(blend)))
}

func (s *SimilarityScorer) weightsFor(a, b []float64) metricWeights {
	avgVar := (variance(a) + variance(b)) / 2
	if avgVar > s.varianceThreshold {
		return highVarianceWeights
	}
	return lowVarianceWeights
}

// logisticScale maps a blend in [0,1] to [0,100] through a logistic curve
// centered at 0.5, rescaled so 0 maps to exactly 0 and 1 to exactly 100.
// The steepness rewards strong agreement and punishes weak blends harder
// than a linear scale would.
func logisticScale(blend float64) float64 {
	if blend <= 0 {
		return 0
	}
	if blend >= 1 {
		return 100
	}
	const k = 8.0
	raw := 1 / (1 + math.Exp(-k*(blend-0.5)))
	lo := 1 / (1 + math.Exp(k*0.5))
	hi := 1 / (1 + math.Exp(-k*0.5))
	return 100 * (raw - lo) / (hi - lo)
}

func magnitude(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func variance(v []float64) float64 {
	m := mean(v)
	sum := 0.0
	for _, x := range v {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(v))
}

// cosineSimilarity returns the cosine of the angle between a and b,
// clamped to [0,1]. Callers guarantee non-zero magnitudes.
func cosineSimilarity(a, b []float64) float64 {
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	cos := dot / (magnitude(a) * magnitude(b))
	return clamp01(cos)
}

// euclideanSimilarity converts L2 distance to a similarity by normalizing
// against the largest possible distance for the dimension, sqrt(n) when
// every component lies in [0,1].
func euclideanSimilarity(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return clamp01(1 - math.Sqrt(sum)/math.Sqrt(float64(len(a))))
}

// correlationSimilarity is the absolute Pearson correlation. A constant
// vector on either side leaves the correlation undefined, which counts
// as 0.
func correlationSimilarity(a, b []float64) float64 {
	ma, mb := mean(a), mean(b)
	var cov, va, vb float64
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0
	}
	return clamp01(math.Abs(cov / math.Sqrt(va*vb)))
}

// structuralSimilarity compares the value distributions of the two vectors
// through 10-bin histograms and a chi-square style divergence.
func structuralSimilarity(a, b []float64) float64 {
	const bins = 10
	ha := histogram(a, bins)
	hb := histogram(b, bins)

	chi := 0.0
	for i := 0; i < bins; i++ {
		sum := ha[i] + hb[i]
		if sum == 0 {
			continue
		}
		d := ha[i] - hb[i]
		chi += (d * d) / sum
	}
	// chi ranges over [0,2] for normalized histograms.
	return clamp01(1 - chi/2)
}

func histogram(v []float64, bins int) []float64 {
	lo, hi := v[0], v[0]
	for _, x := range v {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	h := make([]float64, bins)
	if hi == lo {
		h[0] = 1
		return h
	}
	for _, x := range v {
		idx := int(float64(bins) * (x - lo) / (hi - lo))
		if idx == bins {
			idx = bins - 1
		}
		h[idx]++
	}
	n := float64(len(v))
	for i := range h {
		h[i] /= n
	}
	return h
}

// manhattanSimilarity converts L1 distance to a similarity, normalized by
// twice the dimension so it stays in [0,1] for values in [-1,1].
func manhattanSimilarity(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return clamp01(1 - sum/(2*float64(len(a))))
}

// positionWeightedSimilarity weights per-component agreement by an
// exponential decay over position, so earlier components dominate.
func positionWeightedSimilarity(a, b []float64) float64 {
	var num, den float64
	for i := range a {
		w := math.Exp(-float64(i) / float64(len(a)))
		num += w * (1 - math.Min(1, math.Abs(a[i]-b[i])))
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
