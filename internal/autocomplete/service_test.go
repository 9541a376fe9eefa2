package autocomplete

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recovr-ai/matching-engine/internal/catalog"
	"github.com/recovr-ai/matching-engine/internal/observability"
)

// stubSource serves a fixed item list and counts fetches.
type stubSource struct {
	items   []catalog.Item
	err     error
	fetches int
}

func (s *stubSource) RecentItems(_ context.Context, _ int) ([]catalog.Item, error) {
	s.fetches++
	return s.items, s.err
}

func (s *stubSource) FindItems(_ context.Context, _ catalog.Filter) ([]catalog.Item, error) {
	return s.items, s.err
}

func (s *stubSource) GetItem(_ context.Context, _ uuid.UUID) (*catalog.Item, error) {
	return nil, catalog.ErrNotFound
}

func newTestService(src *stubSource) *Service {
	return NewService(src, observability.Nop(), DefaultConfig())
}

func TestService_SuggestsFromCatalogTerms(t *testing.T) {
	src := &stubSource{items: []catalog.Item{
		{Name: "Blue Umbrella", Description: "compact blue umbrella", Location: "Central Station", Category: catalog.CategoryAccessories},
	}}
	svc := newTestService(src)

	suggestions := svc.Suggest(context.Background(), "umbrel", "items", 10)

	require.NotEmpty(t, suggestions)
	assert.Equal(t, "umbrella", suggestions[0].Text)
	assert.Equal(t, TypeItem, suggestions[0].Type)
}

func TestService_SeededTermsWorkWithEmptyCatalog(t *testing.T) {
	svc := newTestService(&stubSource{})

	suggestions := svc.Suggest(context.Background(), "backp", "items", 10)

	require.NotEmpty(t, suggestions)
	assert.Equal(t, "backpack", suggestions[0].Text)
}

func TestService_SingularTypeSelectors(t *testing.T) {
	src := &stubSource{items: []catalog.Item{
		{Name: "Blue Umbrella", Location: "Central Station", Category: catalog.CategoryAccessories},
	}}
	svc := newTestService(src)

	// Singular and plural selectors pick the same source.
	items := svc.Suggest(context.Background(), "umbrel", "item", 10)
	require.NotEmpty(t, items)
	assert.Equal(t, svc.Suggest(context.Background(), "umbrel", "items", 10), items)

	locations := svc.Suggest(context.Background(), "central", "location", 10)
	require.NotEmpty(t, locations)
	assert.Equal(t, TypeLocation, locations[0].Type)

	categories := svc.Suggest(context.Background(), "accessor", "category", 10)
	require.NotEmpty(t, categories)
	assert.Equal(t, TypeCategory, categories[0].Type)
}

func TestService_LocationSuggestions(t *testing.T) {
	src := &stubSource{items: []catalog.Item{
		{Name: "Wallet", Location: "North Terminal"},
		{Name: "Keys", Location: "South Terminal"},
	}}
	svc := newTestService(src)

	suggestions := svc.Suggest(context.Background(), "terminal", "locations", 10)

	require.Len(t, suggestions, 2)
	for _, s := range suggestions {
		assert.Equal(t, TypeLocation, s.Type)
	}
}

func TestService_ShortQueryReturnsEmpty(t *testing.T) {
	src := &stubSource{}
	svc := newTestService(src)

	assert.Empty(t, svc.Suggest(context.Background(), "a", "items", 10))
	assert.Empty(t, svc.Suggest(context.Background(), " ", "items", 10))
	// Short queries never trigger a vocabulary fetch.
	assert.Zero(t, src.fetches)
}

func TestService_DeduplicatesAcrossSources(t *testing.T) {
	src := &stubSource{items: []catalog.Item{
		{Name: "Leather Wallet", Location: "wallet kiosk"},
	}}
	svc := newTestService(src)

	suggestions := svc.Suggest(context.Background(), "wallet", "all", 20)

	seen := make(map[string]bool)
	for _, s := range suggestions {
		key := s.Text
		assert.False(t, seen[key], "duplicate suggestion %q", key)
		seen[key] = true
	}
}

func TestService_SpellingFallback(t *testing.T) {
	svc := newTestService(&stubSource{})

	// A misspelling with no partial matches still gets corrections.
	suggestions := svc.Suggest(context.Background(), "umbrela", "items", 10)

	require.NotEmpty(t, suggestions)
	texts := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		texts = append(texts, s.Text)
	}
	assert.Contains(t, texts, "umbrella")
}

func TestService_RespectsLimit(t *testing.T) {
	svc := newTestService(&stubSource{})

	suggestions := svc.Suggest(context.Background(), "ca", "items", 3)
	assert.LessOrEqual(t, len(suggestions), 3)
}

func TestService_VocabularyRefreshIsLazy(t *testing.T) {
	src := &stubSource{}
	svc := newTestService(src)

	current := time.Now()
	svc.now = func() time.Time { return current }

	svc.Suggest(context.Background(), "wallet", "items", 10)
	svc.Suggest(context.Background(), "wallet", "items", 10)
	assert.Equal(t, 1, src.fetches)

	current = current.Add(6 * time.Minute)
	svc.Suggest(context.Background(), "wallet", "items", 10)
	assert.Equal(t, 2, src.fetches)
}

func TestService_CatalogFailureKeepsSeeds(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	svc := newTestService(src)

	suggestions := svc.Suggest(context.Background(), "backpack", "items", 10)
	assert.NotEmpty(t, suggestions)
}
