package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecharge/livecharge/internal/auth"
)

func TestService_Login(t *testing.T) {
	svc := auth.NewService(auth.ServiceConfig{JWTService: newTestJWTService("k")})

	session, err := svc.Login(auth.LoginRequest{Username: "admin", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
	assert.NotEmpty(t, session.Token)

	username, err := svc.ValidateSession(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestService_Login_Rejected(t *testing.T) {
	svc := auth.NewService(auth.ServiceConfig{
		Username:   "operator",
		Password:   "s3cret",
		JWTService: newTestJWTService("k"),
	})

	tests := []struct {
		name    string
		req     auth.LoginRequest
		wantErr error
	}{
		{"empty username", auth.LoginRequest{Password: "s3cret"}, auth.ErrMissingCredentials},
		{"blank username", auth.LoginRequest{Username: "  ", Password: "s3cret"}, auth.ErrMissingCredentials},
		{"empty password", auth.LoginRequest{Username: "operator"}, auth.ErrMissingCredentials},
		{"wrong password", auth.LoginRequest{Username: "operator", Password: "nope"}, auth.ErrInvalidCredentials},
		{"default credentials overridden", auth.LoginRequest{Username: "admin", Password: "password"}, auth.ErrInvalidCredentials},
		{"case sensitive", auth.LoginRequest{Username: "Operator", Password: "s3cret"}, auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
