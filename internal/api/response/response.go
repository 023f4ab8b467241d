// Package response writes JSON bodies and RFC 7807 problems for the API
// handlers.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/livecharge/livecharge/internal/api/middleware"
	"github.com/livecharge/livecharge/internal/api/models"
	"github.com/livecharge/livecharge/internal/station"
)

// JSON writes data with the given status. Station data changes with every
// review and vote, so API bodies are marked uncacheable.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set(middleware.RequestIDHeader, requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Problem writes the catalogued problem for status, stamped with the
// request ID and path.
func Problem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	write(w, r, models.ForStatus(status, middleware.GetRequestID(r.Context()), detail))
}

// BadRequest writes a 400 problem with per-field errors.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, fields []models.FieldError) {
	write(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail, fields))
}

func write(w http.ResponseWriter, r *http.Request, p *models.Problem) {
	p.WithInstance(r.URL.Path).Write(w)
}

// StationError maps an error returned by the station service to a problem.
// Unrecognised errors become a 500 with fallbackDetail so store internals
// never reach the client.
func StationError(w http.ResponseWriter, r *http.Request, err error, fallbackDetail string) {
	var verr *station.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(w, r, verr.Error(), verr.Errors)
	case errors.Is(err, station.ErrStationNotFound):
		Problem(w, r, http.StatusNotFound, "Station not found")
	case errors.Is(err, station.ErrReviewNotFound):
		Problem(w, r, http.StatusNotFound, "Review not found")
	case errors.Is(err, station.ErrStoreUnavailable):
		Problem(w, r, http.StatusServiceUnavailable, "Station store is temporarily unavailable")
	default:
		Problem(w, r, http.StatusInternalServerError, fallbackDetail)
	}
}
