// Package extractor provides feature vector extraction for item images
// through an external extraction service.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable indicates the extraction service could not be reached or
// returned a server error. Callers fall back to deterministic features.
var ErrUnavailable = errors.New("extractor unavailable")

// Client calls the feature extraction service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	dimension  int
}

// Config holds extraction client configuration.
type Config struct {
	BaseURL   string
	Dimension int // Default: 1024
	Timeout   time.Duration
}

// NewClient creates a new extraction client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1024
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		dimension:  cfg.Dimension,
	}, nil
}

// extractRequest is the request body for feature extraction.
type extractRequest struct {
	ImageURL  string `json:"image_url,omitempty"`
	ImageData string `json:"image_data,omitempty"`
}

// extractResponse is the service response.
type extractResponse struct {
	Features []float64     `json:"features"`
	Model    string        `json:"model"`
	Error    *serviceError `json:"error,omitempty"`
}

type serviceError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ExtractFromURL extracts a feature vector for the image at the given URL.
// Network failures and server errors return ErrUnavailable so the caller
// can degrade instead of failing the search.
func (c *Client) ExtractFromURL(ctx context.Context, imageURL string) ([]float64, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("image URL is required")
	}
	return c.extract(ctx, extractRequest{ImageURL: imageURL})
}

// ExtractFromData extracts a feature vector from base64 image bytes.
func (c *Client) ExtractFromData(ctx context.Context, imageData string) ([]float64, error) {
	if imageData == "" {
		return nil, fmt.Errorf("image data is required")
	}
	return c.extract(ctx, extractRequest{ImageData: imageData})
}

func (c *Client) extract(ctx context.Context, body extractRequest) ([]float64, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/extract", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp extractResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return nil, fmt.Errorf("extraction error: %s (code: %s)", errResp.Error.Message, errResp.Error.Code)
		}
		return nil, fmt.Errorf("extraction error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var extResp extractResponse
	if err := json.Unmarshal(respBody, &extResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(extResp.Features) == 0 {
		return nil, fmt.Errorf("empty feature vector returned")
	}

	return extResp.Features, nil
}

// Dimension returns the expected feature vector dimension.
func (c *Client) Dimension() int {
	return c.dimension
}

// Extractor defines the interface for feature extraction.
type Extractor interface {
	ExtractFromURL(ctx context.Context, imageURL string) ([]float64, error)
	ExtractFromData(ctx context.Context, imageData string) ([]float64, error)
	Dimension() int
}

var _ Extractor = (*Client)(nil)
