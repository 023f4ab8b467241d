package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/livecharge/livecharge/internal/api/response"
	"github.com/livecharge/livecharge/internal/station"
)

// StationHandler handles station and vote endpoints.
type StationHandler struct {
	service *station.Service
	logger  zerolog.Logger
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(service *station.Service, logger zerolog.Logger) *StationHandler {
	return &StationHandler{
		service: service,
		logger:  logger,
	}
}

// ListStations handles GET /api/stations. A store failure still answers with
// an empty array so the map can render.
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list stations")
		response.JSON(w, r, http.StatusInternalServerError, []*station.Station{})
		return
	}
	if stations == nil {
		stations = []*station.Station{}
	}
	response.JSON(w, r, http.StatusOK, stations)
}

// GetStation handles GET /api/stations/{id}.
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, station.ErrStationNotFound) {
			h.logger.Error().Err(err).Str("station_id", chi.URLParam(r, "id")).Msg("failed to get station")
		}
		response.StationError(w, r, err, "Failed to load station")
		return
	}
	response.JSON(w, r, http.StatusOK, st)
}

// voteRequest is the body of a vote request.
type voteRequest struct {
	Username string           `json:"username"`
	VoteType station.VoteType `json:"voteType"`
}

// Vote handles POST /api/stations/{stationId}/reviews/{reviewId}/vote.
func (h *StationHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	result, err := h.service.Vote(r.Context(), station.VoteInput{
		StationID: chi.URLParam(r, "stationId"),
		ReviewID:  chi.URLParam(r, "reviewId"),
		Username:  req.Username,
		VoteType:  req.VoteType,
	})
	if err != nil {
		response.StationError(w, r, err, "Failed to record vote")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}
