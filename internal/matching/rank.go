package matching

import (
	"sort"

	"github.com/recovr-ai/matching-engine/internal/catalog"
)

// Result is a scored catalog item.
type Result struct {
	Item  catalog.Item `json:"item"`
	Score int          `json:"score"`
}

// Match quality labels attached to a ranked result set.
const (
	QualityExcellent = "excellent"
	QualityHigh      = "high"
	QualityMedium    = "medium"
	QualityLow       = "low"
	QualityNone      = "no_matches"
)

const (
	defaultMaxResults = 20
	maxSuggestions    = 4
)

// Ranker orders scored results, removes near-duplicates, and annotates the
// set with a quality label and refinement suggestions.
type Ranker struct {
	minScore   int
	maxResults int
}

// NewRanker returns a ranker that drops results below minScore and returns
// at most maxResults entries. A non-positive maxResults falls back to the
// default of 20.
func NewRanker(minScore, maxResults int) *Ranker {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Ranker{minScore: minScore, maxResults: maxResults}
}

// Rank filters, sorts, and deduplicates results. Sorting is stable, so
// equal scores keep their input order. Duplicate items, judged by
// normalized name, keep only the highest-scoring occurrence.
func (r *Ranker) Rank(results []Result) []Result {
	filtered := make([]Result, 0, len(results))
	for _, res := range results {
		if res.Score >= r.minScore {
			filtered = append(filtered, res)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})

	seen := make(map[string]bool, len(filtered))
	ranked := filtered[:0]
	for _, res := range filtered {
		key := NormalizeText(res.Item.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		ranked = append(ranked, res)
		if len(ranked) == r.maxResults {
			break
		}
	}
	return ranked
}

// Quality labels a ranked result set by its best score.
func Quality(results []Result) string {
	if len(results) == 0 {
		return QualityNone
	}
	best := results[0].Score
	switch {
	case best > 80:
		return QualityExcellent
	case best > 60:
		return QualityHigh
	case best > 40:
		return QualityMedium
	default:
		return QualityLow
	}
}

// Suggestions proposes up to four query refinements when a search returns
// weak or empty results. Suggestions depend on which fields the query
// populated: a location-only query gets location-centric advice rather
// than keyword broadening.
func Suggestions(q TextQuery, results []Result) []string {
	quality := Quality(results)
	if quality == QualityExcellent || quality == QualityHigh {
		return nil
	}

	var out []string
	add := func(s string) {
		if len(out) < maxSuggestions {
			out = append(out, s)
		}
	}

	hasKeywords := q.Name != "" || q.Description != ""

	if q.Location != "" {
		add("Check the spelling of the location")
		add("Try searching without the location filter")
	}
	if hasKeywords {
		add("Try fewer or more general keywords")
		add("Check the spelling of the item name")
	}
	if q.Category != "" {
		add("Try searching across all categories")
	}
	if q.Color != "" || q.Material != "" || q.Size != "" {
		add("Remove attribute filters like color, material, or size")
	}
	if len(out) == 0 {
		add("Add more detail such as a category or location")
	}
	return out
}
