// Package detection post-processes object detections from camera feeds:
// overlap suppression, cross-frame tracking, and abandonment scoring.
package detection

import (
	"sort"

	"github.com/recovr-ai/matching-engine/internal/catalog"
)

// Box is an axis-aligned detection box with a confidence score.
type Box struct {
	X          float64          `json:"x"`
	Y          float64          `json:"y"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Confidence float64          `json:"confidence"`
	Category   catalog.Category `json:"category"`
	TrackingID int              `json:"tracking_id,omitempty"`
}

// Area returns the box area. Degenerate boxes have zero area.
func (b Box) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Center returns the box center point.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// IoU computes intersection over union of two boxes. Disjoint or
// degenerate boxes score 0.
func IoU(a, b Box) float64 {
	x1 := maxFloat(a.X, b.X)
	y1 := maxFloat(a.Y, b.Y)
	x2 := minFloat(a.X+a.Width, b.X+b.Width)
	y2 := minFloat(a.Y+a.Height, b.Y+b.Height)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	inter := (x2 - x1) * (y2 - y1)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// NonMaxSuppression keeps the highest-confidence box from each group of
// overlapping detections. Boxes whose overlap with a kept box exceeds
// the IoU threshold are discarded; an overlap exactly at the threshold
// survives. The operation is idempotent: running it on its own output
// changes nothing.
func NonMaxSuppression(boxes []Box, iouThreshold float64) []Box {
	if len(boxes) <= 1 {
		return append([]Box(nil), boxes...)
	}

	sorted := append([]Box(nil), boxes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Box, 0, len(sorted))
	suppressed := make([]bool, len(sorted))
	for i, box := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, box)
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] {
				continue
			}
			if IoU(box, sorted[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
