// Package integration provides integration tests for the full search flow
// over a real catalog database.
package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recovr-ai/matching-engine/internal/autocomplete"
	"github.com/recovr-ai/matching-engine/internal/cache"
	"github.com/recovr-ai/matching-engine/internal/catalog"
	"github.com/recovr-ai/matching-engine/internal/features"
	"github.com/recovr-ai/matching-engine/internal/matching"
	"github.com/recovr-ai/matching-engine/internal/observability"
	"github.com/recovr-ai/matching-engine/internal/search"
)

const itemsSchema = `
CREATE TABLE items (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	image_url TEXT,
	features TEXT,
	status TEXT NOT NULL,
	latitude REAL,
	longitude REAL,
	reported_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

type fixture struct {
	repo    *catalog.Repository
	search  *search.Service
	suggest *autocomplete.Service
	db      *sql.DB
}

func newFixture(t *testing.T, items []catalog.Item) *fixture {
	t.Helper()

	db, err := catalog.Open("sqlite", ":memory:", 1, 1, 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(itemsSchema)
	require.NoError(t, err)

	for _, item := range items {
		var featuresArg interface{}
		if item.Features != nil {
			raw, err := json.Marshal(item.Features)
			require.NoError(t, err)
			featuresArg = string(raw)
		}
		_, err = db.Exec(`
			INSERT INTO items (id, name, description, category, location, image_url, features, status, latitude, longitude, reported_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			item.ID.String(), item.Name, item.Description, string(item.Category),
			item.Location, item.ImageURL, featuresArg, string(item.Status),
			item.Latitude, item.Longitude, item.ReportedAt, item.CreatedAt,
		)
		require.NoError(t, err)
	}

	repo := catalog.NewRepository(db)
	logger := observability.Nop()

	resultCache := matching.NewResultCache(cache.NewMemoryClient(100), logger, matching.ResultCacheConfig{
		TTL:     time.Minute,
		Enabled: true,
	})

	svc := search.NewService(
		repo,
		nil,
		features.NewNormalizer(8),
		matching.NewSimilarityScorer(0),
		resultCache,
		logger,
		search.Config{CacheResults: true},
	)

	suggest := autocomplete.NewService(repo, logger, autocomplete.Config{})

	return &fixture{repo: repo, search: svc, suggest: suggest, db: db}
}

func seedItems() []catalog.Item {
	now := time.Now().UTC().Truncate(time.Second)
	return []catalog.Item{
		{
			ID:          uuid.New(),
			Name:        "Black Leather Wallet",
			Description: "Found a black leather wallet with several card slots near the north exit",
			Category:    catalog.CategoryAccessories,
			Location:    "Central Station",
			Features:    []float64{0.9, 0.1, 0.4, 0.7, 0.2, 0.8, 0.3, 0.6},
			Status:      catalog.StatusFound,
			ReportedAt:  now.Add(-6 * time.Hour),
			CreatedAt:   now,
		},
		{
			ID:          uuid.New(),
			Name:        "Blue Umbrella",
			Description: "Large blue umbrella left on a bench",
			Category:    catalog.CategoryOther,
			Location:    "City Park",
			Status:      catalog.StatusFound,
			ReportedAt:  now.Add(-30 * time.Hour),
			CreatedAt:   now,
		},
		{
			ID:          uuid.New(),
			Name:        "Black Wallet",
			Description: "Lost my black leather wallet, had my travel card inside",
			Category:    catalog.CategoryAccessories,
			Location:    "Central Station",
			Status:      catalog.StatusLost,
			ReportedAt:  now.Add(-12 * time.Hour),
			CreatedAt:   now,
		},
	}
}

func TestSearchFlow_TextSearch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	f := newFixture(t, seedItems())
	ctx := context.Background()

	resp, err := f.search.SearchText(ctx, search.TextQuery{
		Name:     "black leather wallet",
		Location: "central station",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Black Leather Wallet", resp.Results[0].Item.Name)
	assert.Equal(t, matching.QualityExcellent, resp.Quality)
	assert.Nil(t, resp.Suggestions)

	// Same query again comes from the result cache.
	cached, err := f.search.SearchText(ctx, search.TextQuery{
		Name:     "black leather wallet",
		Location: "central station",
	})
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	require.NotEmpty(t, cached.Results)
	assert.Equal(t, resp.Results[0].Item.ID, cached.Results[0].Item.ID)
}

func TestSearchFlow_ImageSearch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	items := seedItems()
	f := newFixture(t, items)
	ctx := context.Background()

	resp, err := f.search.SearchImage(ctx, search.ImageQuery{
		Features: items[0].Features,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, items[0].ID, resp.Results[0].Item.ID)
	assert.Equal(t, 100, resp.Results[0].Score)
}

func TestSearchFlow_CrossMatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	items := seedItems()
	f := newFixture(t, items)
	ctx := context.Background()

	lostWallet := items[2]
	matches, err := f.search.MatchesForItem(ctx, lostWallet.ID)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, items[0].ID, matches[0].FoundItem.ID)
	assert.Equal(t, lostWallet.ID, matches[0].LostItem.ID)
	assert.Greater(t, matches[0].Score, 0.7)
	assert.NotEmpty(t, matches[0].Reason)
}

func TestSearchFlow_CrossMatch_UnknownItem(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	f := newFixture(t, seedItems())

	_, err := f.search.MatchesForItem(context.Background(), uuid.New())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSearchFlow_Autocomplete(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	f := newFixture(t, seedItems())

	suggestions := f.suggest.Suggest(context.Background(), "walle", "", 0)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "wallet", suggestions[0].Text)
}
