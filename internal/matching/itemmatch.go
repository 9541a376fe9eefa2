package matching

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/recovr-ai/matching-engine/internal/catalog"
)

// ItemMatch pairs a lost item with a candidate found item.
type ItemMatch struct {
	LostItem  catalog.Item `json:"lost_item"`
	FoundItem catalog.Item `json:"found_item"`
	Score     float64      `json:"score"`
	Reason    string       `json:"reason"`
}

// Cross-match blend weights. Category is the strongest signal; location,
// date, and description split the rest.
const (
	matchCategoryWeight    = 0.30
	matchLocationWeight    = 0.25
	matchDateWeight        = 0.20
	matchDescriptionWeight = 0.25

	matchMinScore   = 0.4
	matchMaxResults = 5
)

// ItemMatcher scores lost items against found items to surface likely
// reunions.
type ItemMatcher struct{}

// NewItemMatcher returns an item matcher.
func NewItemMatcher() *ItemMatcher {
	return &ItemMatcher{}
}

// MatchesFor scores item against every candidate of the opposite status
// and returns the top matches, best first. Candidates below the minimum
// score are dropped.
func (m *ItemMatcher) MatchesFor(item catalog.Item, candidates []catalog.Item) []ItemMatch {
	matches := make([]ItemMatch, 0, len(candidates))
	for _, candidate := range candidates {
		score := m.MatchScore(item, candidate)
		if score < matchMinScore {
			continue
		}

		lost, found := item, candidate
		if item.Status == catalog.StatusFound {
			lost, found = candidate, item
		}
		matches = append(matches, ItemMatch{
			LostItem:  lost,
			FoundItem: found,
			Score:     score,
			Reason:    m.matchReason(item, candidate),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > matchMaxResults {
		matches = matches[:matchMaxResults]
	}
	return matches
}

// MatchScore blends category, location, date, and description similarity
// into a score in [0,1].
func (m *ItemMatcher) MatchScore(a, b catalog.Item) float64 {
	score := 0.0

	if a.Category != "" && a.Category == b.Category {
		score += matchCategoryWeight
	}
	if a.Location != "" && b.Location != "" {
		score += matchLocationWeight * locationSimilarity(a.Location, b.Location)
	}
	score += matchDateWeight * dateSimilarity(a.ReportedAt, b.ReportedAt)
	if a.Description != "" && b.Description != "" {
		score += matchDescriptionWeight * wordOverlap(a.Description, b.Description)
	}

	return score
}

// locationSimilarity scores two location strings: exact match 1.0,
// containment 0.8, otherwise word overlap scaled above a 0.4 floor.
func locationSimilarity(a, b string) float64 {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == lb {
		return 1.0
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return 0.8
	}

	wordsA := strings.Fields(la)
	wordsB := strings.Fields(lb)
	common := commonWords(wordsA, wordsB)
	if common == 0 {
		return 0.0
	}
	maxLen := len(wordsA)
	if len(wordsB) > maxLen {
		maxLen = len(wordsB)
	}
	return 0.4 + 0.4*float64(common)/float64(maxLen)
}

// dateSimilarity tiers the day gap between two reports: same day 1.0,
// within 3 days 0.8, a week 0.6, two weeks 0.4, a month 0.2, else 0.
func dateSimilarity(a, b time.Time) float64 {
	if a.IsZero() || b.IsZero() {
		return 0.0
	}
	days := math.Abs(a.Sub(b).Hours()) / 24
	switch {
	case days < 1:
		return 1.0
	case days <= 3:
		return 0.8
	case days <= 7:
		return 0.6
	case days <= 14:
		return 0.4
	case days <= 30:
		return 0.2
	default:
		return 0.0
	}
}

// wordOverlap returns the share of common words longer than two
// characters, relative to the longer text.
func wordOverlap(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))
	common := commonWords(wordsA, wordsB)
	if common == 0 {
		return 0.0
	}
	maxLen := len(wordsA)
	if len(wordsB) > maxLen {
		maxLen = len(wordsB)
	}
	return float64(common) / float64(maxLen)
}

func commonWords(a, b []string) int {
	set := make(map[string]bool, len(b))
	for _, w := range b {
		set[w] = true
	}
	common := 0
	for _, w := range a {
		if len(w) > 2 && set[w] {
			common++
		}
	}
	return common
}

func (m *ItemMatcher) matchReason(a, b catalog.Item) string {
	var reasons []string

	if a.Category != "" && a.Category == b.Category {
		reasons = append(reasons, "same category")
	}
	if a.Location != "" && b.Location != "" && locationSimilarity(a.Location, b.Location) > 0.7 {
		reasons = append(reasons, "similar location")
	}
	if !a.ReportedAt.IsZero() && !b.ReportedAt.IsZero() {
		if math.Abs(a.ReportedAt.Sub(b.ReportedAt).Hours())/24 <= 7 {
			reasons = append(reasons, "similar time frame")
		}
	}
	if a.Description != "" && b.Description != "" && wordOverlap(a.Description, b.Description) > 0.3 {
		reasons = append(reasons, "similar description")
	}

	if len(reasons) == 0 {
		return "potential match"
	}
	return strings.Join(reasons, ", ")
}
