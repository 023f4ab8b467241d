package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/livecharge/livecharge/internal/api/middleware"
	"github.com/livecharge/livecharge/internal/api/models"
	"github.com/livecharge/livecharge/internal/api/response"
	"github.com/livecharge/livecharge/internal/auth"
)

// AuthHandler serves the login gate in front of the board.
type AuthHandler struct {
	service *auth.Service
}

func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login handles POST /api/login and answers with a signed session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	session, err := h.service.Login(req)
	switch {
	case err == nil:
		response.JSON(w, r, http.StatusOK, session)
	case errors.Is(err, auth.ErrMissingCredentials):
		var fields []models.FieldError
		if strings.TrimSpace(req.Username) == "" {
			fields = append(fields, models.FieldError{Field: "username", Message: "is required"})
		}
		if req.Password == "" {
			fields = append(fields, models.FieldError{Field: "password", Message: "is required"})
		}
		response.BadRequest(w, r, "username and password are required", fields)
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Problem(w, r, http.StatusUnauthorized, "invalid username or password")
	default:
		response.Problem(w, r, http.StatusInternalServerError, "login failed")
	}
}

// Session handles GET /api/session behind the Session middleware and echoes
// the signed-in username.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, struct {
		Username string `json:"username"`
	}{middleware.GetUsername(r.Context())})
}
