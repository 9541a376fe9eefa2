package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recovr-ai/matching-engine/internal/catalog"
)

func TestItemMatcher_PerfectMatch(t *testing.T) {
	matcher := NewItemMatcher()
	now := time.Now()

	lost := catalog.Item{
		Name:        "Blue Wallet",
		Description: "blue leather wallet",
		Category:    catalog.CategoryAccessories,
		Location:    "Central Station",
		Status:      catalog.StatusLost,
		ReportedAt:  now,
	}
	found := lost
	found.Status = catalog.StatusFound

	// category 0.3 + location 0.25 + date 0.2 + description 0.25
	assert.InDelta(t, 1.0, matcher.MatchScore(lost, found), 1e-9)
}

func TestItemMatcher_DateTiers(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		gap      time.Duration
		expected float64
	}{
		{name: "same day", gap: 6 * time.Hour, expected: 1.0},
		{name: "within three days", gap: 2 * 24 * time.Hour, expected: 0.8},
		{name: "within a week", gap: 6 * 24 * time.Hour, expected: 0.6},
		{name: "within two weeks", gap: 13 * 24 * time.Hour, expected: 0.4},
		{name: "within a month", gap: 29 * 24 * time.Hour, expected: 0.2},
		{name: "older than a month", gap: 45 * 24 * time.Hour, expected: 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dateSimilarity(now, now.Add(-tt.gap)))
		})
	}
}

func TestLocationSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, locationSimilarity("Central Station", "central station"))
	assert.Equal(t, 0.8, locationSimilarity("Central Station", "Central Station platform 2"))
	assert.Equal(t, 0.0, locationSimilarity("Airport", "Harbor"))

	// One common word out of two, scaled above the 0.4 floor.
	sim := locationSimilarity("north terminal", "south terminal")
	assert.InDelta(t, 0.4+0.4*1.0/2.0, sim, 1e-9)
}

func TestItemMatcher_MatchesFor(t *testing.T) {
	matcher := NewItemMatcher()
	now := time.Now()

	lost := catalog.Item{
		ID:          uuid.New(),
		Name:        "Black Backpack",
		Description: "black canvas backpack with laptop sleeve",
		Category:    catalog.CategoryBags,
		Location:    "University Library",
		Status:      catalog.StatusLost,
		ReportedAt:  now,
	}

	strong := catalog.Item{
		ID:          uuid.New(),
		Name:        "Backpack",
		Description: "black canvas backpack with laptop sleeve",
		Category:    catalog.CategoryBags,
		Location:    "University Library",
		Status:      catalog.StatusFound,
		ReportedAt:  now.Add(-24 * time.Hour),
	}
	weak := catalog.Item{
		ID:         uuid.New(),
		Name:       "Gold Ring",
		Category:   catalog.CategoryJewelry,
		Location:   "Harbor",
		Status:     catalog.StatusFound,
		ReportedAt: now.Add(-60 * 24 * time.Hour),
	}

	matches := matcher.MatchesFor(lost, []catalog.Item{weak, strong})

	require.Len(t, matches, 1)
	assert.Equal(t, strong.ID, matches[0].FoundItem.ID)
	assert.Equal(t, lost.ID, matches[0].LostItem.ID)
	assert.GreaterOrEqual(t, matches[0].Score, matchMinScore)
	assert.Contains(t, matches[0].Reason, "same category")
	assert.Contains(t, matches[0].Reason, "similar location")
}

func TestItemMatcher_OrientsLostAndFound(t *testing.T) {
	matcher := NewItemMatcher()
	now := time.Now()

	found := catalog.Item{
		ID:          uuid.New(),
		Name:        "Red Umbrella",
		Description: "red umbrella with wooden handle",
		Category:    catalog.CategoryAccessories,
		Location:    "City Park",
		Status:      catalog.StatusFound,
		ReportedAt:  now,
	}
	lost := found
	lost.ID = uuid.New()
	lost.Status = catalog.StatusLost

	// Matching from the found side still reports lost and found correctly.
	matches := matcher.MatchesFor(found, []catalog.Item{lost})

	require.Len(t, matches, 1)
	assert.Equal(t, lost.ID, matches[0].LostItem.ID)
	assert.Equal(t, found.ID, matches[0].FoundItem.ID)
}

func TestItemMatcher_CapsResults(t *testing.T) {
	matcher := NewItemMatcher()
	now := time.Now()

	lost := catalog.Item{
		Name:        "Laptop",
		Description: "silver laptop computer",
		Category:    catalog.CategoryElectronics,
		Location:    "Airport",
		Status:      catalog.StatusLost,
		ReportedAt:  now,
	}

	var candidates []catalog.Item
	for i := 0; i < 8; i++ {
		c := lost
		c.ID = uuid.New()
		c.Status = catalog.StatusFound
		candidates = append(candidates, c)
	}

	assert.Len(t, matcher.MatchesFor(lost, candidates), matchMaxResults)
}
