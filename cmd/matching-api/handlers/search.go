package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/recovr-ai/matching-engine/internal/observability"
	"github.com/recovr-ai/matching-engine/internal/search"
)

// SearchHandler handles text and image search requests.
type SearchHandler struct {
	logger *observability.Logger
	search *search.Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(logger *observability.Logger, svc *search.Service) *SearchHandler {
	return &SearchHandler{
		logger: logger,
		search: svc,
	}
}

// Text handles POST /search/text.
func (h *SearchHandler) Text(w http.ResponseWriter, r *http.Request) {
	var q search.TextQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resp, err := h.search.SearchText(r.Context(), q)
	if err != nil {
		h.writeSearchError(w, err, "Text search failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Image handles POST /search/image.
func (h *SearchHandler) Image(w http.ResponseWriter, r *http.Request) {
	var q search.ImageQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resp, err := h.search.SearchImage(r.Context(), q)
	if err != nil {
		h.writeSearchError(w, err, "Image search failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SearchHandler) writeSearchError(w http.ResponseWriter, err error, logMsg string) {
	var ve *search.ValidationErrors
	if errors.As(err, &ve) {
		writeValidationError(w, ve.Violations)
		return
	}
	if errors.Is(err, search.ErrUnavailable) {
		h.logger.Error().Err(err).Msg(logMsg)
		writeError(w, http.StatusServiceUnavailable, "search unavailable", "try again shortly")
		return
	}
	h.logger.Error().Err(err).Msg(logMsg)
	writeError(w, http.StatusInternalServerError, "search failed", err.Error())
}
