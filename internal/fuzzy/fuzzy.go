// Package fuzzy provides spelling-tolerant string matching. It backs both
// the text relevance scorer and the autocomplete suggestion service.
package fuzzy

import (
	"sort"
	"strings"
)

// Match is a scored candidate from a fuzzy search.
type Match struct {
	Target string
	Score  float64
}

// Options control fuzzy search behavior.
type Options struct {
	// Threshold is the minimum score for a candidate to be included.
	Threshold float64
	// IncludePartial also scores substring containment, so short queries
	// can match longer candidates.
	IncludePartial bool
	// WeightByPosition prefers matches at the start of the candidate.
	WeightByPosition bool
}

// Similarity returns a string similarity in [0,1] based on normalized edit
// distance. Identical strings score 1; fully dissimilar strings score 0.
// Deterministic and total.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// The distance counts rune edits, so normalize by rune length.
	dist := levenshtein(a, b)
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	return 1 - float64(dist)/float64(maxLen)
}

// Search scores every candidate against the query and returns matches at or
// above the threshold, best first. Ties keep candidate order. An empty query
// or candidate list yields an empty result, never an error.
func Search(query string, candidates []string, opts Options) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(candidates) == 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)

		score := Similarity(query, lower)

		if opts.IncludePartial {
			if idx := strings.Index(lower, query); idx >= 0 {
				partial := 0.7 + 0.3*float64(len(query))/float64(len(lower))
				if opts.WeightByPosition && idx > 0 {
					partial *= 0.9
				}
				if partial > score {
					score = partial
				}
			}
		}

		if score >= opts.Threshold {
			matches = append(matches, Match{Target: candidate, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// BestWordMatch returns the highest similarity between word and any word in
// words. Used for per-word scoring in the text relevance scorer.
func BestWordMatch(word string, words []string) float64 {
	best := 0.0
	for _, w := range words {
		if s := Similarity(word, w); s > best {
			best = s
		}
	}
	return best
}

// levenshtein computes the edit distance between two strings using a
// two-row rolling matrix.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func minInt(values ...int) int {
	result := values[0]
	for _, v := range values[1:] {
		if v < result {
			result = v
		}
	}
	return result
}
