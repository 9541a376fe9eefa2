package handlers

import (
	"net/http"
	"strconv"

	"github.com/recovr-ai/matching-engine/internal/autocomplete"
	"github.com/recovr-ai/matching-engine/internal/observability"
)

// AutocompleteHandler handles search suggestion requests.
type AutocompleteHandler struct {
	logger  *observability.Logger
	suggest *autocomplete.Service
}

// NewAutocompleteHandler creates a new autocomplete handler.
func NewAutocompleteHandler(logger *observability.Logger, svc *autocomplete.Service) *AutocompleteHandler {
	return &AutocompleteHandler{
		logger:  logger,
		suggest: svc,
	}
}

// SuggestResponseDTO represents the autocomplete response.
type SuggestResponseDTO struct {
	Suggestions []autocomplete.Suggestion `json:"suggestions"`
	Query       string                    `json:"query"`
	Total       int                       `json:"total"`
}

// Suggest handles GET /search/autocomplete.
func (h *AutocompleteHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")
	typ := params.Get("type")

	limit := 0
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	suggestions := h.suggest.Suggest(r.Context(), query, typ, limit)

	writeJSON(w, http.StatusOK, SuggestResponseDTO{
		Suggestions: suggestions,
		Query:       query,
		Total:       len(suggestions),
	})
}
