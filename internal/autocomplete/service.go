// Package autocomplete serves search-as-you-type suggestions from a
// periodically refreshed vocabulary of catalog terms.
package autocomplete

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recovr-ai/matching-engine/internal/catalog"
	"github.com/recovr-ai/matching-engine/internal/fuzzy"
	"github.com/recovr-ai/matching-engine/internal/matching"
	"github.com/recovr-ai/matching-engine/internal/observability"
)

// Suggestion types returned by Suggest.
const (
	TypeItem     = "item"
	TypeLocation = "location"
	TypeCategory = "category"
	TypeSpelling = "spelling"
)

// commonTerms seeds the item vocabulary so suggestions work before the
// catalog fills in, and for terms users type that no report uses verbatim.
var commonTerms = []string{
	// Electronics
	"phone", "iphone", "android", "smartphone", "laptop", "macbook", "tablet", "ipad",
	"charger", "cable", "headphones", "earbuds", "airpods", "camera", "smartwatch",
	"kindle", "computer", "mouse", "keyboard",

	// Bags and accessories
	"backpack", "bag", "purse", "handbag", "suitcase", "luggage", "briefcase",
	"wallet", "tote", "messenger bag", "duffel bag",

	// Clothing
	"jacket", "coat", "sweater", "hoodie", "shirt", "pants", "jeans", "dress",
	"shoes", "sneakers", "boots", "sandals", "hat", "cap", "scarf", "gloves",

	// Jewelry and accessories
	"watch", "ring", "necklace", "bracelet", "earrings", "sunglasses", "glasses",
	"chain", "pendant", "charm",

	// Documents and cards
	"id", "license", "passport", "card", "student id", "credit card", "keys",
	"keychain", "notebook", "book", "diary",

	// Colors
	"black", "white", "red", "blue", "green", "yellow", "brown", "gray", "grey",
	"orange", "purple", "pink", "silver", "gold",

	// Materials
	"leather", "plastic", "metal", "fabric", "canvas", "denim", "cotton",
}

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// Config tunes the suggestion service.
type Config struct {
	// RefreshInterval is how long the vocabulary stays fresh.
	RefreshInterval time.Duration
	// SampleSize is how many recent items feed the vocabulary.
	SampleSize int
	// MaxSuggestions caps the limit a caller can request.
	MaxSuggestions int
}

// DefaultConfig returns the default autocomplete tuning.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 5 * time.Minute,
		SampleSize:      200,
		MaxSuggestions:  20,
	}
}

// vocabulary holds the term sets suggestions draw from.
type vocabulary struct {
	items      []string
	locations  []string
	categories []string
	updatedAt  time.Time
}

// Service produces suggestions from catalog vocabulary plus common seed
// terms. The vocabulary refreshes lazily when it goes stale.
type Service struct {
	source catalog.Source
	logger *observability.Logger
	config Config
	now    func() time.Time

	mu    sync.RWMutex
	vocab vocabulary
}

// NewService creates an autocomplete service.
func NewService(source catalog.Source, logger *observability.Logger, config Config) *Service {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = 5 * time.Minute
	}
	if config.SampleSize <= 0 {
		config.SampleSize = 200
	}
	if config.MaxSuggestions <= 0 {
		config.MaxSuggestions = 20
	}
	return &Service{
		source: source,
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// Suggest returns up to limit suggestions for the query. Queries shorter
// than two characters return an empty result. typ narrows the suggestion
// source to "item", "location", or "category" (plural forms accepted);
// anything else searches all of them.
func (s *Service) Suggest(ctx context.Context, query, typ string, limit int) []Suggestion {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return []Suggestion{}
	}
	if limit <= 0 || limit > s.config.MaxSuggestions {
		limit = s.config.MaxSuggestions
	}

	s.refreshIfStale(ctx)

	s.mu.RLock()
	vocab := s.vocab
	s.mu.RUnlock()

	var results []Suggestion

	if typ == "" || typ == "all" || typ == "item" || typ == "items" {
		for _, m := range fuzzy.Search(query, vocab.items, fuzzy.Options{
			Threshold:        0.3,
			IncludePartial:   true,
			WeightByPosition: true,
		}) {
			results = append(results, Suggestion{Text: m.Target, Type: TypeItem, Score: m.Score})
		}
	}
	if typ == "" || typ == "all" || typ == "location" || typ == "locations" {
		for _, m := range fuzzy.Search(query, vocab.locations, fuzzy.Options{
			Threshold:        0.4,
			IncludePartial:   true,
			WeightByPosition: true,
		}) {
			// Slightly lower priority than item terms.
			results = append(results, Suggestion{Text: m.Target, Type: TypeLocation, Score: m.Score * 0.9})
		}
	}
	if typ == "" || typ == "all" || typ == "category" || typ == "categories" {
		for _, m := range fuzzy.Search(query, vocab.categories, fuzzy.Options{
			Threshold:        0.4,
			IncludePartial:   true,
			WeightByPosition: true,
		}) {
			results = append(results, Suggestion{Text: m.Target, Type: TypeCategory, Score: m.Score * 0.8})
		}
	}

	unique := dedupe(results)
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Score > unique[j].Score
	})
	if len(unique) > limit {
		unique = unique[:limit]
	}

	// Offer spelling corrections when the direct matches are thin.
	if len(unique) < 3 {
		unique = s.appendSpellingSuggestions(query, vocab, unique)
		if len(unique) > limit {
			unique = unique[:limit]
		}
	}

	return unique
}

func (s *Service) appendSpellingSuggestions(query string, vocab vocabulary, results []Suggestion) []Suggestion {
	all := make([]string, 0, len(vocab.items)+len(vocab.locations))
	all = append(all, vocab.items...)
	all = append(all, vocab.locations...)

	corrections := fuzzy.Search(query, all, fuzzy.Options{Threshold: 0.2})
	if len(corrections) > 3 {
		corrections = corrections[:3]
	}

	for _, c := range corrections {
		dup := false
		for _, r := range results {
			if strings.EqualFold(r.Text, c.Target) {
				dup = true
				break
			}
		}
		if !dup {
			results = append(results, Suggestion{Text: c.Target, Type: TypeSpelling, Score: c.Score * 0.5})
		}
	}
	return results
}

// refreshIfStale rebuilds the vocabulary from recent catalog items when
// the refresh interval has elapsed. Catalog failures keep the previous
// vocabulary; the seed terms guarantee it is never empty.
func (s *Service) refreshIfStale(ctx context.Context) {
	s.mu.RLock()
	stale := s.now().Sub(s.vocab.updatedAt) >= s.config.RefreshInterval
	s.mu.RUnlock()
	if !stale {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now().Sub(s.vocab.updatedAt) < s.config.RefreshInterval {
		return
	}

	items, err := s.source.RecentItems(ctx, s.config.SampleSize)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Autocomplete vocabulary refresh failed")
		if s.vocab.updatedAt.IsZero() {
			s.vocab = buildVocabulary(nil, s.now())
		}
		return
	}

	s.vocab = buildVocabulary(items, s.now())
	s.logger.Debug().
		Int("items", len(s.vocab.items)).
		Int("locations", len(s.vocab.locations)).
		Int("categories", len(s.vocab.categories)).
		Msg("Autocomplete vocabulary refreshed")
}

func buildVocabulary(items []catalog.Item, now time.Time) vocabulary {
	itemTerms := make(map[string]bool)
	locationTerms := make(map[string]bool)
	categoryTerms := make(map[string]bool)

	for _, item := range items {
		for _, w := range matching.NormalizeWords(item.Name) {
			if len(w) > 2 {
				itemTerms[w] = true
			}
		}
		for _, w := range matching.NormalizeWords(item.Description) {
			if len(w) > 2 {
				itemTerms[w] = true
			}
		}
		if loc := strings.TrimSpace(item.Location); loc != "" {
			locationTerms[loc] = true
		}
		if item.Category != "" {
			categoryTerms[strings.ToLower(string(item.Category))] = true
		}
	}

	for _, term := range commonTerms {
		itemTerms[term] = true
	}

	return vocabulary{
		items:      sortedKeys(itemTerms),
		locations:  sortedKeys(locationTerms),
		categories: sortedKeys(categoryTerms),
		updatedAt:  now,
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func dedupe(results []Suggestion) []Suggestion {
	seen := make(map[string]bool, len(results))
	out := make([]Suggestion, 0, len(results))
	for _, r := range results {
		key := strings.ToLower(r.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
