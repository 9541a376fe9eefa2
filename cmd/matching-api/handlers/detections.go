package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/recovr-ai/matching-engine/internal/detection"
	"github.com/recovr-ai/matching-engine/internal/observability"
)

// DetectionsHandler handles detection frame ingestion and track queries.
type DetectionsHandler struct {
	logger       *observability.Logger
	tracker      *detection.Tracker
	iouThreshold float64
}

// NewDetectionsHandler creates a new detections handler.
func NewDetectionsHandler(logger *observability.Logger, tracker *detection.Tracker, iouThreshold float64) *DetectionsHandler {
	return &DetectionsHandler{
		logger:       logger,
		tracker:      tracker,
		iouThreshold: iouThreshold,
	}
}

// FrameRequestDTO represents one frame of raw detections.
type FrameRequestDTO struct {
	Boxes      []detection.Box `json:"boxes"`
	ObservedAt *time.Time      `json:"observed_at,omitempty"`
}

// TrackedBoxDTO is a tracked detection with its abandonment score.
type TrackedBoxDTO struct {
	detection.Box
	AbandonmentScore float64 `json:"abandonment_score"`
}

// FrameResponseDTO represents the tracked result of one frame.
type FrameResponseDTO struct {
	Boxes      []TrackedBoxDTO `json:"boxes"`
	Suppressed int             `json:"suppressed"`
}

// TracksResponseDTO represents the active track listing.
type TracksResponseDTO struct {
	Tracks []TrackDTO `json:"tracks"`
	Total  int        `json:"total"`
}

// TrackDTO is an active track with its abandonment score.
type TrackDTO struct {
	detection.Track
	AbandonmentScore float64 `json:"abandonment_score"`
}

// Process handles POST /detections.
func (h *DetectionsHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req FrameRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	for i, box := range req.Boxes {
		if box.Width <= 0 || box.Height <= 0 {
			writeError(w, http.StatusBadRequest, "invalid box", fmt.Sprintf("boxes[%d] must have positive width and height", i))
			return
		}
	}

	now := time.Now()
	if req.ObservedAt != nil {
		now = *req.ObservedAt
	}

	kept := detection.NonMaxSuppression(req.Boxes, h.iouThreshold)
	tracked := h.tracker.Observe(now, kept)

	resp := FrameResponseDTO{
		Boxes:      make([]TrackedBoxDTO, 0, len(tracked)),
		Suppressed: len(req.Boxes) - len(kept),
	}
	for _, box := range tracked {
		score, _ := h.tracker.AbandonmentScore(box.TrackingID)
		resp.Boxes = append(resp.Boxes, TrackedBoxDTO{
			Box:              box,
			AbandonmentScore: score,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Tracks handles GET /detections/tracks.
func (h *DetectionsHandler) Tracks(w http.ResponseWriter, r *http.Request) {
	tracks := h.tracker.Tracks()

	resp := TracksResponseDTO{
		Tracks: make([]TrackDTO, 0, len(tracks)),
		Total:  len(tracks),
	}
	for _, track := range tracks {
		score, _ := h.tracker.AbandonmentScore(track.TrackingID)
		resp.Tracks = append(resp.Tracks, TrackDTO{
			Track:            track,
			AbandonmentScore: score,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
