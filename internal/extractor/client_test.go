package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ExtractFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req extractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://cdn.example.com/item.jpg", req.ImageURL)

		_ = json.NewEncoder(w).Encode(extractResponse{
			Features: []float64{0.1, 0.2, 0.3},
			Model:    "mobilenet-v3",
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	features, err := client.ExtractFromURL(context.Background(), "https://cdn.example.com/item.jpg")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, features)
}

func TestClient_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.ExtractFromURL(context.Background(), "https://cdn.example.com/item.jpg")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestClient_ConnectionRefusedIsUnavailable(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = client.ExtractFromURL(context.Background(), "https://cdn.example.com/item.jpg")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestClient_ClientErrorIsNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(extractResponse{
			Error: &serviceError{Message: "unsupported image format", Code: "bad_image"},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.ExtractFromURL(context.Background(), "https://cdn.example.com/item.jpg")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "unsupported image format")
}

func TestClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	client, err := NewClient(Config{BaseURL: "http://localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, 1024, client.Dimension())

	_, err = client.ExtractFromURL(context.Background(), "")
	assert.Error(t, err)
	_, err = client.ExtractFromData(context.Background(), "")
	assert.Error(t, err)
}
