package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/recovr-ai/matching-engine/internal/catalog"
	"github.com/recovr-ai/matching-engine/internal/matching"
	"github.com/recovr-ai/matching-engine/internal/observability"
	"github.com/recovr-ai/matching-engine/internal/search"
)

// MatchesHandler handles cross-match requests between lost and found items.
type MatchesHandler struct {
	logger *observability.Logger
	search *search.Service
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(logger *observability.Logger, svc *search.Service) *MatchesHandler {
	return &MatchesHandler{
		logger: logger,
		search: svc,
	}
}

// MatchesResponseDTO represents the cross-match response.
type MatchesResponseDTO struct {
	ItemID  string               `json:"item_id"`
	Matches []matching.ItemMatch `json:"matches"`
	Total   int                  `json:"total"`
}

// ForItem handles GET /matches/{itemId}.
func (h *MatchesHandler) ForItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id", "itemId must be a UUID")
		return
	}

	matches, err := h.search.MatchesForItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found", "")
			return
		}
		if errors.Is(err, search.ErrUnavailable) {
			h.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("Cross-match failed")
			writeError(w, http.StatusServiceUnavailable, "matching unavailable", "try again shortly")
			return
		}
		h.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("Cross-match failed")
		writeError(w, http.StatusInternalServerError, "matching failed", err.Error())
		return
	}

	if matches == nil {
		matches = []matching.ItemMatch{}
	}

	writeJSON(w, http.StatusOK, MatchesResponseDTO{
		ItemID:  itemID.String(),
		Matches: matches,
		Total:   len(matches),
	})
}
