package matching

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityScorer_IdenticalVectors(t *testing.T) {
	scorer := NewSimilarityScorer(0.1)

	v := []float64{0.2, 0.8, 0.5, 0.9, 0.1, 0.7}
	assert.Equal(t, 100, scorer.Score(v, v))
}

func TestSimilarityScorer_ZeroMagnitude(t *testing.T) {
	scorer := NewSimilarityScorer(0.1)

	zero := make([]float64, 8)
	v := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}

	assert.Equal(t, 0, scorer.Score(zero, v))
	assert.Equal(t, 0, scorer.Score(v, zero))
	assert.Equal(t, 0, scorer.Score(zero, zero))
}

func TestSimilarityScorer_EmptyVectors(t *testing.T) {
	scorer := NewSimilarityScorer(0.1)

	assert.Equal(t, 0, scorer.Score(nil, nil))
	assert.Equal(t, 0, scorer.Score([]float64{0.5}, nil))
}

func TestSimilarityScorer_Symmetric(t *testing.T) {
	scorer := NewSimilarityScorer(0.1)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 10; i++ {
		a := randomVector(rng, 32)
		b := randomVector(rng, 32)
		assert.Equal(t, scorer.Score(a, b), scorer.Score(b, a))
	}
}

func TestSimilarityScorer_Bounded(t *testing.T) {
	scorer := NewSimilarityScorer(0.1)
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 50; i++ {
		a := randomVector(rng, 16)
		b := randomVector(rng, 16)
		score := scorer.Score(a, b)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestSimilarityScorer_SimilarBeatsDissimilar(t *testing.T) {
	scorer := NewSimilarityScorer(0.1)

	base := []float64{0.1, 0.9, 0.2, 0.8, 0.3, 0.7, 0.4, 0.6}
	near := []float64{0.12, 0.88, 0.22, 0.78, 0.32, 0.68, 0.42, 0.58}
	far := []float64{0.9, 0.1, 0.8, 0.2, 0.7, 0.3, 0.6, 0.4}

	assert.Greater(t, scorer.Score(base, near), scorer.Score(base, far))
}

func TestSimilarityScorer_AdaptiveWeights(t *testing.T) {
	scorer := NewSimilarityScorer(0.1)

	spread := []float64{0.0, 1.0, 0.0, 1.0, 0.0, 1.0}
	// variance of alternating 0/1 is 0.25, above the threshold
	assert.Equal(t, highVarianceWeights, scorer.weightsFor(spread, spread))

	flat := []float64{0.5, 0.51, 0.49, 0.5, 0.52, 0.48}
	assert.Equal(t, lowVarianceWeights, scorer.weightsFor(flat, flat))
}

func TestSimilarityScorer_MismatchedLengths(t *testing.T) {
	scorer := NewSimilarityScorer(0.1)

	a := []float64{0.2, 0.8, 0.5}
	b := []float64{0.2, 0.8, 0.5, 0.9, 0.1}

	// Compared over the shared prefix, which is identical.
	assert.Equal(t, 100, scorer.Score(a, b))
}

func TestEuclideanSimilarity_DimensionNormalized(t *testing.T) {
	// A uniform offset of d in every component gives distance d*sqrt(n),
	// so the similarity is 1 - d regardless of dimension.
	for _, n := range []int{8, 64, 1024} {
		a := make([]float64, n)
		b := make([]float64, n)
		for i := range a {
			a[i] = 0.5
			b[i] = 0.6
		}
		assert.InDelta(t, 0.9, euclideanSimilarity(a, b), 1e-9)
	}

	same := []float64{0.3, 0.7, 0.1}
	assert.InDelta(t, 1, euclideanSimilarity(same, same), 1e-9)

	// Maximal distance in the unit hypercube pins the similarity at 0.
	lo := []float64{0, 0, 0, 0}
	hi := []float64{1, 1, 1, 1}
	assert.InDelta(t, 0, euclideanSimilarity(lo, hi), 1e-9)
}

func TestCorrelationSimilarity_ConstantVectorsScoreZero(t *testing.T) {
	flat := []float64{0.5, 0.5, 0.5, 0.5}
	varied := []float64{0.1, 0.9, 0.3, 0.7}

	assert.Equal(t, 0.0, correlationSimilarity(flat, flat))
	assert.Equal(t, 0.0, correlationSimilarity(flat, varied))
	assert.Equal(t, 0.0, correlationSimilarity(varied, flat))

	assert.InDelta(t, 1, correlationSimilarity(varied, varied), 1e-9)
}

func TestLogisticScale_Endpoints(t *testing.T) {
	assert.Equal(t, 0.0, logisticScale(0))
	assert.Equal(t, 100.0, logisticScale(1))
	assert.InDelta(t, 50, logisticScale(0.5), 1e-6)

	// Monotonic across the range.
	prev := -1.0
	for b := 0.0; b <= 1.0; b += 0.05 {
		s := logisticScale(b)
		assert.Greater(t, s, prev)
		prev = s
	}
}

func TestSimilarityScorer_RoundsAtBoundary(t *testing.T) {
	scorer := NewSimilarityScorer(0.1)
	rng := rand.New(rand.NewSource(3))

	// The integer score tracks the underlying blend to within half a
	// point of the continuous scale.
	for i := 0; i < 20; i++ {
		a := randomVector(rng, 16)
		b := randomVector(rng, 16)

		n := len(a)
		w := scorer.weightsFor(a, b)
		blend := w.cosine*cosineSimilarity(a[:n], b[:n]) +
			w.euclidean*euclideanSimilarity(a, b) +
			w.correlation*correlationSimilarity(a, b) +
			w.structural*structuralSimilarity(a, b) +
			w.manhattan*manhattanSimilarity(a, b) +
			w.weighted*positionWeightedSimilarity(a, b)

		assert.InDelta(t, logisticScale(blend), float64(scorer.Score(a, b)), 0.5)
	}
}

func randomVector(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()
	}
	return v
}
