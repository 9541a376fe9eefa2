package matching

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SearchText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/search/text", r.URL.Path)

		var q TextQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "black wallet", q.Name)

		json.NewEncoder(w).Encode(SearchResponse{
			Results: []Result{
				{Item: Item{Name: "Black Wallet", Category: "ACCESSORIES"}, Score: 97},
			},
			Quality: "excellent",
			Total:   1,
			TookMs:  12,
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.SearchText(context.Background(), TextQuery{Name: "black wallet"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Black Wallet", resp.Results[0].Item.Name)
	assert.Equal(t, 97, resp.Results[0].Score)
	assert.Equal(t, "excellent", resp.Quality)
}

func TestClient_SearchText_ValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":      "invalid query",
			"violations": []string{"at least one search field is required"},
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.SearchText(context.Background(), TextQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
	assert.Contains(t, err.Error(), "at least one search field is required")
}

func TestClient_Autocomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search/autocomplete", r.URL.Path)
		assert.Equal(t, "walet", r.URL.Query().Get("q"))
		assert.Equal(t, "item", r.URL.Query().Get("type"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(SuggestResponse{
			Suggestions: []Suggestion{{Text: "wallet", Type: "spelling", Score: 0.4}},
			Query:       "walet",
			Total:       1,
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Autocomplete(context.Background(), "walet", "item", 5)
	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "wallet", resp.Suggestions[0].Text)
}

func TestClient_MatchesForItem_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "item not found"})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.MatchesForItem(context.Background(), "0b9fa9f6-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item not found")
}

func TestClient_Defaults(t *testing.T) {
	client, err := NewClient(ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8082", client.baseURL)
}
