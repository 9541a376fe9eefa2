package matching

import (
	"math"
	"strings"

	"github.com/recovr-ai/matching-engine/internal/catalog"
	"github.com/recovr-ai/matching-engine/internal/fuzzy"
)

// TextQuery carries the optional attribute fields of a text search. Empty
// fields contribute nothing to the score.
type TextQuery struct {
	Name        string
	Description string
	Category    string
	Location    string
	Color       string
	Material    string
	Size        string
}

// Per-field score caps. They sum above 100 intentionally; the total is
// capped, so a strong match on a few fields can saturate the score.
const (
	nameScoreCap        = 95.0
	descriptionScoreCap = 25.0
	categoryScoreFull   = 20.0
	categoryScoreNear   = 15.0
	locationScoreFull   = 15.0
	locationScoreCap    = 12.0
	colorScoreCap       = 5.0
	materialScoreCap    = 3.0
	sizeScoreCap        = 2.0
	maxTextScore        = 100.0
)

// TextScorer computes field-by-field relevance between a text query and a
// catalog item. Scores are integers in [0,100].
type TextScorer struct{}

// NewTextScorer returns a text relevance scorer.
func NewTextScorer() *TextScorer {
	return &TextScorer{}
}

// Score returns the relevance of item to the query, rounded to an
// integer. An exact name match, ignoring case and surrounding
// whitespace, short-circuits to 100. Other paths accumulate per-field
// scores up to the cap of 100. A query with only a description still
// matches against the item name: people often describe a lost item
// with the words its finder used to name it.
func (s *TextScorer) Score(q TextQuery, item catalog.Item) int {
	keywords := q.Name
	if keywords == "" {
		keywords = q.Description
	}
	if keywords != "" && strings.EqualFold(strings.TrimSpace(keywords), strings.TrimSpace(item.Name)) {
		return int(maxTextScore)
	}

	total := s.nameScore(keywords, item.Name)
	total += s.descriptionScore(q.Description, item.Description)
	total += s.categoryScore(q.Category, string(item.Category))
	total += s.locationScore(q.Location, item.Location)

	itemText := NormalizeText(item.Name + " " + item.Description)
	total += attributeScore(q.Color, itemText, colorScoreCap, 0.8)
	total += attributeScore(q.Material, itemText, materialScoreCap, 0.8)
	total += s.sizeScore(q.Size, itemText)

	if total > maxTextScore {
		total = maxTextScore
	}
	return int(math.Round(total))
}

func (s *TextScorer) nameScore(query, name string) float64 {
	if query == "" || name == "" {
		return 0
	}
	nq, nn := NormalizeText(query), NormalizeText(name)
	if nq == nn {
		return nameScoreCap
	}

	score := fuzzy.Similarity(nq, nn) * 35

	queryWords := strings.Fields(nq)
	nameWords := strings.Fields(nn)
	if len(queryWords) > 0 {
		hits := 0.0
		for _, w := range queryWords {
			if fuzzy.BestWordMatch(w, nameWords) >= 0.6 {
				hits++
			}
		}
		score += 60 * hits / float64(len(queryWords))
	}

	if score > nameScoreCap {
		score = nameScoreCap
	}
	return score
}

func (s *TextScorer) descriptionScore(query, description string) float64 {
	if query == "" || description == "" {
		return 0
	}
	nq, nd := NormalizeText(query), NormalizeText(description)

	score := fuzzy.Similarity(nq, nd) * 20

	descWords := strings.Fields(nd)
	for _, w := range strings.Fields(nq) {
		best := fuzzy.BestWordMatch(w, descWords)
		switch {
		case best == 1:
			score += 2
		case best >= 0.7:
			score++
		}
	}

	if score > descriptionScoreCap {
		score = descriptionScoreCap
	}
	return score
}

func (s *TextScorer) categoryScore(query, category string) float64 {
	if query == "" || category == "" {
		return 0
	}
	sim := fuzzy.Similarity(NormalizeText(query), NormalizeText(category))
	switch {
	case sim >= 0.8:
		return categoryScoreFull
	case sim >= 0.6:
		return categoryScoreNear
	default:
		return 0
	}
}

func (s *TextScorer) locationScore(query, location string) float64 {
	if query == "" || location == "" {
		return 0
	}
	nq, nl := NormalizeText(query), NormalizeText(location)
	if strings.Contains(nl, nq) || strings.Contains(nq, nl) {
		return locationScoreFull
	}

	locWords := strings.Fields(nl)
	score := 0.0
	for _, w := range strings.Fields(nq) {
		best := fuzzy.BestWordMatch(w, locWords)
		switch {
		case best == 1:
			score += 5
		case best >= 0.6:
			score += 2
		case strings.Contains(nl, w):
			score += 3
		}
	}
	if score > locationScoreCap {
		score = locationScoreCap
	}
	return score
}

func (s *TextScorer) sizeScore(query, itemText string) float64 {
	if query == "" || itemText == "" {
		return 0
	}
	canonical := CanonicalSize(query)
	for _, w := range strings.Fields(itemText) {
		if CanonicalSize(w) == canonical {
			return sizeScoreCap
		}
	}
	return 0
}

// attributeScore handles free-text attributes such as color and material:
// a substring hit earns the full cap, otherwise the best fuzzy word match
// at or above the threshold earns a proportional share.
func attributeScore(query, itemText string, cap, threshold float64) float64 {
	if query == "" || itemText == "" {
		return 0
	}
	nq := NormalizeText(query)
	if nq == "" {
		return 0
	}
	if strings.Contains(itemText, nq) {
		return cap
	}
	best := fuzzy.BestWordMatch(nq, strings.Fields(itemText))
	if best >= threshold {
		return cap * best
	}
	return 0
}
