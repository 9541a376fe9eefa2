// Package features provides feature-vector normalization for image matching.
package features

import (
	"hash/fnv"
	"math"
)

// DefaultDimension is the output width of the reference extractor.
const DefaultDimension = 1024

// Provenance records where a vector's values came from.
type Provenance int

const (
	// ProvenanceExtracted marks a vector produced by the feature extractor.
	ProvenanceExtracted Provenance = iota
	// ProvenanceFallback marks a deterministic pseudo-vector generated when
	// extraction was unavailable. Fallback vectors keep callers functional
	// but carry no real visual signal, so scores built on them are
	// down-weighted by the search service.
	ProvenanceFallback
)

// Vector is a fixed-length feature vector with values in [0,1].
type Vector struct {
	Values     []float64
	Provenance Provenance
}

// IsFallback reports whether the vector is a deterministic pseudo-vector.
func (v Vector) IsFallback() bool {
	return v.Provenance == ProvenanceFallback
}

// Normalizer produces bounded, well-formed vectors for comparison.
type Normalizer struct {
	dimension int
}

// NewNormalizer creates a normalizer for the given extractor dimension.
func NewNormalizer(dimension int) *Normalizer {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Normalizer{dimension: dimension}
}

// Dimension returns the configured vector width.
func (n *Normalizer) Dimension() int {
	return n.dimension
}

// Normalize converts a raw extractor output into a comparison-ready vector.
// Non-empty input is clipped to the configured dimension (truncated or
// zero-padded) and min-max rescaled into [0,1]. Empty or nil input yields a
// deterministic pseudo-vector derived from seed, so repeated calls with the
// same seed are reproducible. Normalize never fails.
func (n *Normalizer) Normalize(raw []float64, seed string) Vector {
	if len(raw) == 0 {
		return Vector{
			Values:     n.fallback(seed),
			Provenance: ProvenanceFallback,
		}
	}

	values := make([]float64, n.dimension)
	copy(values, raw) // truncates or leaves zero padding

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	// Degenerate vectors (all values equal) are returned unscaled rather
	// than dividing by zero.
	if maxV > minV {
		scale := maxV - minV
		for i, v := range values {
			values[i] = (v - minV) / scale
		}
	}

	return Vector{Values: values, Provenance: ProvenanceExtracted}
}

// fallback generates a deterministic pseudo-vector from the seed. A smooth
// periodic function over the seed hash keeps values in [0,1] and stable
// across calls.
func (n *Normalizer) fallback(seed string) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	sum := h.Sum64()

	phase := float64(sum%100000) / 100000.0 * 2 * math.Pi
	freq := 0.05 + float64((sum>>16)%1000)/10000.0

	values := make([]float64, n.dimension)
	for i := range values {
		values[i] = 0.5 + 0.5*math.Sin(freq*float64(i)+phase)
	}
	return values
}
