package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/livecharge/livecharge/internal/api/models"
	"github.com/livecharge/livecharge/internal/auth"
)

type usernameKey struct{}

// SessionValidator validates a session token and returns its username.
type SessionValidator interface {
	ValidateSession(token string) (string, error)
}

// Session requires a valid "Authorization: Bearer" session token and stores
// the username in the request context. Rejections carry an RFC 6750
// WWW-Authenticate challenge.
func Session(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				challenge(w, r, "invalid_request", "missing or malformed authorization header")
				return
			}

			username, err := validator.ValidateSession(token)
			if err != nil {
				challenge(w, r, "invalid_token", sessionErrorDetail(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
		})
	}
}

func sessionErrorDetail(err error) string {
	switch {
	case errors.Is(err, auth.ErrSessionTokenExpired):
		return "session token has expired"
	case errors.Is(err, auth.ErrInvalidSessionToken):
		return "invalid session token"
	default:
		return "authentication failed"
	}
}

// bearerToken parses an Authorization header value. The scheme is
// case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// challenge writes the 401 problem directly; the response package imports
// this one.
func challenge(w http.ResponseWriter, r *http.Request, code, detail string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="livecharge", error=%q`, code))
	models.ForStatus(http.StatusUnauthorized, GetRequestID(r.Context()), detail).
		WithInstance(r.URL.Path).
		Write(w)
}

// WithUsername returns a copy of ctx carrying the signed-in username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// GetUsername returns the signed-in username, or "" for anonymous requests.
func GetUsername(ctx context.Context) string {
	name, _ := ctx.Value(usernameKey{}).(string)
	return name
}
