// Package matching provides the public Go SDK for the matching engine API.
package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the public SDK client for the matching engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new matching engine client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8082"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// TextQuery represents a text search request.
type TextQuery struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Location    string `json:"location,omitempty"`
	Color       string `json:"color,omitempty"`
	Material    string `json:"material,omitempty"`
	Size        string `json:"size,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// ImageQuery represents an image similarity search request.
type ImageQuery struct {
	Features  []float64 `json:"features,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	ImageData string    `json:"image_data,omitempty"`
	Category  string    `json:"category,omitempty"`
	Location  string    `json:"location,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// Item represents a catalog item in search results.
type Item struct {
	ID          string `json:"ID"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Category    string `json:"Category"`
	Location    string `json:"Location"`
	ImageURL    string `json:"ImageURL"`
	Status      string `json:"Status"`
	ReportedAt  string `json:"ReportedAt"`
}

// Result is one scored search result. Scores are integers in [0,100].
type Result struct {
	Item  Item `json:"item"`
	Score int  `json:"score"`
}

// SearchResponse represents a search response.
type SearchResponse struct {
	Results     []Result `json:"results"`
	Quality     string   `json:"quality"`
	Suggestions []string `json:"suggestions,omitempty"`
	Total       int      `json:"total"`
	Cached      bool     `json:"cached"`
	TookMs      int64    `json:"took_ms"`
}

// Suggestion is one autocomplete suggestion.
type Suggestion struct {
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// SuggestResponse represents an autocomplete response.
type SuggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
	Query       string       `json:"query"`
	Total       int          `json:"total"`
}

// ItemMatch is one cross-match between a lost and a found item.
type ItemMatch struct {
	LostItem  Item    `json:"lost_item"`
	FoundItem Item    `json:"found_item"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
}

// MatchesResponse represents a cross-match response.
type MatchesResponse struct {
	ItemID  string      `json:"item_id"`
	Matches []ItemMatch `json:"matches"`
	Total   int         `json:"total"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// apiError is the error body the API returns on failures.
type apiError struct {
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// SearchText runs a text search.
func (c *Client) SearchText(ctx context.Context, q TextQuery) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.doPost(ctx, "/api/v1/search/text", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchImage runs an image similarity search.
func (c *Client) SearchImage(ctx context.Context, q ImageQuery) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.doPost(ctx, "/api/v1/search/image", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Autocomplete returns search suggestions for a partial query.
func (c *Client) Autocomplete(ctx context.Context, query, typ string, limit int) (*SuggestResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	if typ != "" {
		params.Set("type", typ)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp SuggestResponse
	if err := c.doGet(ctx, "/api/v1/search/autocomplete?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MatchesForItem returns cross-matches for a reported item.
func (c *Client) MatchesForItem(ctx context.Context, itemID string) (*MatchesResponse, error) {
	var resp MatchesResponse
	if err := c.doGet(ctx, "/api/v1/matches/"+url.PathEscape(itemID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the service health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doGet(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doPost(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) doGet(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			if len(apiErr.Violations) > 0 {
				return fmt.Errorf("%s (status %d): %v", apiErr.Error, resp.StatusCode, apiErr.Violations)
			}
			if apiErr.Detail != "" {
				return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Detail)
			}
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
