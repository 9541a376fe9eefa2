package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recovr-ai/matching-engine/internal/catalog"
)

func result(name string, score int) Result {
	return Result{Item: catalog.Item{Name: name}, Score: score}
}

func TestRanker_FiltersAndSorts(t *testing.T) {
	ranker := NewRanker(10, 20)

	ranked := ranker.Rank([]Result{
		result("Umbrella", 42),
		result("Wallet", 88),
		result("Keys", 5),
		result("Phone", 61),
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, "Wallet", ranked[0].Item.Name)
	assert.Equal(t, "Phone", ranked[1].Item.Name)
	assert.Equal(t, "Umbrella", ranked[2].Item.Name)
}

func TestRanker_DeduplicatesByNormalizedName(t *testing.T) {
	ranker := NewRanker(0, 20)

	ranked := ranker.Rank([]Result{
		result("Black Backpack", 70),
		result("black backpack!", 90),
		result("Red Scarf", 50),
	})

	require.Len(t, ranked, 2)
	// The higher-scoring duplicate survives.
	assert.Equal(t, "black backpack!", ranked[0].Item.Name)
	assert.Equal(t, 90, ranked[0].Score)
}

func TestRanker_CapsResultCount(t *testing.T) {
	ranker := NewRanker(0, 3)

	var input []Result
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		input = append(input, result(name, 50))
	}

	assert.Len(t, ranker.Rank(input), 3)
}

func TestRanker_StableForEqualScores(t *testing.T) {
	ranker := NewRanker(0, 20)

	ranked := ranker.Rank([]Result{
		result("first", 50),
		result("second", 50),
		result("third", 50),
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].Item.Name)
	assert.Equal(t, "second", ranked[1].Item.Name)
	assert.Equal(t, "third", ranked[2].Item.Name)
}

func TestQuality(t *testing.T) {
	tests := []struct {
		name     string
		best     int
		expected string
	}{
		{name: "excellent above 80", best: 81, expected: QualityExcellent},
		{name: "high above 60", best: 80, expected: QualityHigh},
		{name: "medium above 40", best: 60, expected: QualityMedium},
		{name: "low otherwise", best: 40, expected: QualityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Quality([]Result{result("x", tt.best)}))
		})
	}

	assert.Equal(t, QualityNone, Quality(nil))
}

func TestQuality_Labels(t *testing.T) {
	assert.Equal(t, "excellent", QualityExcellent)
	assert.Equal(t, "high", QualityHigh)
	assert.Equal(t, "medium", QualityMedium)
	assert.Equal(t, "low", QualityLow)
	assert.Equal(t, "no_matches", QualityNone)
}

func TestSuggestions_LocationOnlyQuery(t *testing.T) {
	q := TextQuery{Location: "centrl station"}

	suggestions := Suggestions(q, nil)

	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions, "Check the spelling of the location")
	assert.Contains(t, suggestions, "Try searching without the location filter")
	// No keyword advice when the query had no keywords.
	assert.NotContains(t, suggestions, "Try fewer or more general keywords")
}

func TestSuggestions_SuppressedForStrongResults(t *testing.T) {
	q := TextQuery{Name: "backpack"}

	assert.Nil(t, Suggestions(q, []Result{result("Backpack", 95)}))
	assert.Nil(t, Suggestions(q, []Result{result("Backpack", 65)}))
	assert.NotEmpty(t, Suggestions(q, []Result{result("Backpack", 45)}))
}

func TestSuggestions_CappedAtFour(t *testing.T) {
	q := TextQuery{
		Name:     "backpack",
		Location: "station",
		Category: "bags",
		Color:    "black",
	}

	suggestions := Suggestions(q, nil)
	assert.Len(t, suggestions, 4)
}
