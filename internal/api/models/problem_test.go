package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecharge/livecharge/internal/api/models"
)

func TestForStatus_Catalog(t *testing.T) {
	tests := []struct {
		status int
		typ    string
		title  string
	}{
		{http.StatusBadRequest, models.ProblemTypeValidation, "Validation error"},
		{http.StatusUnauthorized, models.ProblemTypeUnauthorized, "Unauthorized"},
		{http.StatusNotFound, models.ProblemTypeNotFound, "Not found"},
		{http.StatusMethodNotAllowed, models.ProblemTypeMethodNotAllowed, "Method not allowed"},
		{http.StatusUnsupportedMediaType, models.ProblemTypeUnsupportedMedia, "Unsupported media type"},
		{http.StatusTooManyRequests, models.ProblemTypeTooManyRequests, "Too many requests"},
		{http.StatusInternalServerError, models.ProblemTypeInternal, "Internal server error"},
		{http.StatusServiceUnavailable, models.ProblemTypeUnavailable, "Service unavailable"},
		{http.StatusTeapot, "about:blank", "I'm a teapot"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			p := models.ForStatus(tt.status, "req_1", "station st-9 not found")
			assert.Equal(t, tt.typ, p.Type)
			assert.Equal(t, tt.title, p.Title)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, "req_1", p.TraceID)
			assert.Equal(t, "station st-9 not found", p.Detail)
		})
	}
}

func TestConstructors_MatchCatalog(t *testing.T) {
	fieldErrs := []models.FieldError{{Field: "voteType", Message: "must be one of upvote, downvote"}}

	cases := map[int]*models.Problem{
		http.StatusBadRequest:          models.NewBadRequest("r", "d", fieldErrs),
		http.StatusUnauthorized:        models.NewUnauthorized("r", "d"),
		http.StatusNotFound:            models.NewNotFound("r", "d"),
		http.StatusTooManyRequests:     models.NewTooManyRequests("r", "d"),
		http.StatusInternalServerError: models.NewInternalError("r", "d"),
		http.StatusServiceUnavailable:  models.NewServiceUnavailable("r", "d"),
	}
	for status, p := range cases {
		assert.Equal(t, models.ForStatus(status, "r", "d").Type, p.Type, status)
		assert.Equal(t, status, p.Status)
	}
	assert.Equal(t, fieldErrs, cases[http.StatusBadRequest].Errors)
}

func TestProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_1").
		WithDetail("invalid vote").
		WithInstance("/api/stations/st-1/reviews/rv-1/vote").
		WithErrors([]models.FieldError{{Field: "username", Message: "is required", Code: "REQUIRED"}})

	assert.Equal(t, "invalid vote", p.Detail)
	assert.Equal(t, "/api/stations/st-1/reviews/rv-1/vote", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "REQUIRED", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_abc", "invalid vote", []models.FieldError{
		{Field: "voteType", Message: "must be one of upvote, downvote"},
	}).WithInstance("/api/stations/st-1/reviews/rv-1/vote")

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_abc", w.Header().Get("X-Request-Id"))

	assert.JSONEq(t, `{
		"type": "https://livecharge.app/problems/validation-error",
		"title": "Validation error",
		"status": 400,
		"detail": "invalid vote",
		"instance": "/api/stations/st-1/reviews/rv-1/vote",
		"traceId": "req_abc",
		"errors": [{"field": "voteType", "message": "must be one of upvote, downvote"}]
	}`, w.Body.String())
}

func TestProblem_WriteWithoutTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewNotFound("", "station not found").Write(w)

	_, present := w.Header()["X-Request-Id"]
	assert.False(t, present)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "", body["traceId"])
	assert.NotContains(t, body, "errors")
}
