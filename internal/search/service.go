package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/recovr-ai/matching-engine/internal/catalog"
	"github.com/recovr-ai/matching-engine/internal/extractor"
	"github.com/recovr-ai/matching-engine/internal/features"
	"github.com/recovr-ai/matching-engine/internal/matching"
	"github.com/recovr-ai/matching-engine/internal/observability"
)

// ErrUnavailable indicates a backing dependency failed and the search
// could not be served.
var ErrUnavailable = errors.New("search unavailable")

// Config tunes the search service.
type Config struct {
	// PageSize is how many candidates to fetch from the catalog.
	PageSize int
	// TextMinScore drops text results below this score (0-100).
	TextMinScore int
	// ImageMinScore drops image results below this similarity (0-1).
	ImageMinScore float64
	// MaxResults caps the ranked result count.
	MaxResults int
	// ScoreWorkers bounds scoring concurrency.
	ScoreWorkers int
	// CacheResults enables the ranked-result cache.
	CacheResults bool
}

// DefaultConfig returns the default search tuning.
func DefaultConfig() Config {
	return Config{
		PageSize:      200,
		TextMinScore:  10,
		ImageMinScore: 0.65,
		MaxResults:    20,
		ScoreWorkers:  4,
		CacheResults:  true,
	}
}

// Response is a ranked search result set.
type Response struct {
	Results     []matching.Result `json:"results"`
	Quality     string            `json:"quality"`
	Suggestions []string          `json:"suggestions,omitempty"`
	Total       int               `json:"total"`
	Cached      bool              `json:"cached"`
	TookMs      int64             `json:"took_ms"`
}

// Service runs searches over the catalog.
type Service struct {
	source     catalog.Source
	extractor  extractor.Extractor
	normalizer *features.Normalizer
	textScorer *matching.TextScorer
	simScorer  *matching.SimilarityScorer
	matcher    *matching.ItemMatcher
	batch      *matching.BatchScorer
	cache      *matching.ResultCache
	logger     *observability.Logger
	config     Config
}

// NewService creates a search service. The extractor and cache may be nil;
// image searches then require a pre-extracted feature vector and no
// result caching happens.
func NewService(
	source catalog.Source,
	ext extractor.Extractor,
	normalizer *features.Normalizer,
	simScorer *matching.SimilarityScorer,
	cache *matching.ResultCache,
	logger *observability.Logger,
	config Config,
) *Service {
	if config.PageSize <= 0 {
		config.PageSize = 200
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 20
	}
	return &Service{
		source:     source,
		extractor:  ext,
		normalizer: normalizer,
		textScorer: matching.NewTextScorer(),
		simScorer:  simScorer,
		matcher:    matching.NewItemMatcher(),
		batch:      matching.NewBatchScorer(config.ScoreWorkers, 30*time.Second),
		cache:      cache,
		logger:     logger,
		config:     config,
	}
}

// SearchText runs a text search. Validation failures return a
// *ValidationErrors; catalog failures return ErrUnavailable.
func (s *Service) SearchText(ctx context.Context, q TextQuery) (*Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	cacheKey := s.textCacheKey(q)
	if resp, ok := s.cachedResponse(ctx, cacheKey); ok {
		return resp, nil
	}

	items, err := s.source.FindItems(ctx, q.filter(s.config.PageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	scorerQ := q.scorerQuery()
	results, err := s.batch.ScoreAll(ctx, items, func(_ context.Context, item catalog.Item) int {
		return s.textScorer.Score(scorerQ, item)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ranked := matching.NewRanker(s.config.TextMinScore, s.limitFor(q.Limit)).Rank(results)
	resp := &Response{
		Results:     ranked,
		Quality:     matching.Quality(ranked),
		Suggestions: matching.Suggestions(scorerQ, ranked),
		Total:       len(ranked),
		TookMs:      time.Since(start).Milliseconds(),
	}

	s.storeResponse(ctx, cacheKey, resp)

	s.logger.Debug().
		Int("candidates", len(items)).
		Int("results", len(ranked)).
		Str("quality", resp.Quality).
		Msg("Text search completed")
	return resp, nil
}

// SearchImage runs an image similarity search. The query vector comes
// from the request directly or from the extraction service. Items without
// stored features are compared against a deterministic pseudo-vector
// seeded by their ID, at half weight, so they surface without dominating
// genuinely matched items.
func (s *Service) SearchImage(ctx context.Context, q ImageQuery) (*Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	raw, err := s.queryFeatures(ctx, q)
	if err != nil {
		return nil, err
	}
	query := s.normalizer.Normalize(raw, "query")

	items, err := s.source.FindItems(ctx, q.filter(s.config.PageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	results, err := s.batch.ScoreAll(ctx, items, func(_ context.Context, item catalog.Item) int {
		itemVec := s.normalizer.Normalize(item.Features, item.ID.String())
		score := s.simScorer.Score(query.Values, itemVec.Values)
		if itemVec.IsFallback() {
			score /= 2
		}
		return score
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	minScore := int(math.Round(s.config.ImageMinScore * 100))
	ranked := matching.NewRanker(minScore, s.limitFor(q.Limit)).Rank(results)

	resp := &Response{
		Results: ranked,
		Quality: matching.Quality(ranked),
		Total:   len(ranked),
		TookMs:  time.Since(start).Milliseconds(),
	}

	s.logger.Debug().
		Int("candidates", len(items)).
		Int("results", len(ranked)).
		Str("quality", resp.Quality).
		Msg("Image search completed")
	return resp, nil
}

// MatchesForItem returns potential lost-and-found pairings for the item.
// A lost item is matched against found items and vice versa.
func (s *Service) MatchesForItem(ctx context.Context, itemID uuid.UUID) ([]matching.ItemMatch, error) {
	item, err := s.source.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	targetStatus := catalog.StatusFound
	if item.Status == catalog.StatusFound {
		targetStatus = catalog.StatusLost
	}

	candidates, err := s.source.FindItems(ctx, catalog.Filter{
		Status: targetStatus,
		Limit:  s.config.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	matches := s.matcher.MatchesFor(*item, candidates)

	s.logger.Debug().
		Str("item_id", itemID.String()).
		Int("candidates", len(candidates)).
		Int("matches", len(matches)).
		Msg("Item matching completed")
	return matches, nil
}

// queryFeatures resolves the query vector for an image search.
func (s *Service) queryFeatures(ctx context.Context, q ImageQuery) ([]float64, error) {
	if len(q.Features) > 0 {
		return q.Features, nil
	}
	if s.extractor == nil {
		return nil, &ValidationErrors{Violations: []string{"feature extraction is not configured; supply features directly"}}
	}

	var (
		raw []float64
		err error
	)
	if q.ImageURL != "" {
		raw, err = s.extractor.ExtractFromURL(ctx, q.ImageURL)
	} else {
		raw, err = s.extractor.ExtractFromData(ctx, q.ImageData)
	}
	if err != nil {
		if errors.Is(err, extractor.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return raw, nil
}

func (s *Service) limitFor(requested int) int {
	if requested > 0 && requested < s.config.MaxResults {
		return requested
	}
	return s.config.MaxResults
}

func (s *Service) textCacheKey(q TextQuery) string {
	if s.cache == nil || !s.config.CacheResults {
		return ""
	}
	var from, to string
	if q.DateFrom != nil {
		from = q.DateFrom.UTC().Format(time.RFC3339)
	}
	if q.DateTo != nil {
		to = q.DateTo.UTC().Format(time.RFC3339)
	}
	return s.cache.CacheKey("text",
		q.Name, q.Description, q.Category, q.Location,
		q.Color, q.Material, q.Size,
		from, to, strconv.Itoa(q.Limit),
	)
}

func (s *Service) cachedResponse(ctx context.Context, key string) (*Response, bool) {
	if key == "" {
		return nil, false
	}
	cached, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	return &Response{
		Results:     cached.Results,
		Quality:     cached.Quality,
		Suggestions: cached.Suggestions,
		Total:       len(cached.Results),
		Cached:      true,
	}, true
}

func (s *Service) storeResponse(ctx context.Context, key string, resp *Response) {
	if key == "" {
		return
	}
	_ = s.cache.Set(ctx, key, matching.CachedResults{
		Results:     resp.Results,
		Quality:     resp.Quality,
		Suggestions: resp.Suggestions,
	})
}
