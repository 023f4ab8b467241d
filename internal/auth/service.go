// Package auth provides the login gate in front of the station board.
//
// The gate is a single configured credential pair. It issues a signed
// session token so the browser can skip the login form on reload; review and
// vote operations do not consult it.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"
)

// Default credentials used when LOGIN_USERNAME and LOGIN_PASSWORD are unset.
const (
	DefaultUsername = "admin"
	DefaultPassword = "password"
)

// Predefined service errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("username and password are required")
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is returned after a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	Username   string
	Password   string
	JWTService *JWTService
}

// Service checks credentials and manages session tokens.
type Service struct {
	username   string
	password   string
	jwtService *JWTService
}

// NewService creates a new auth service. Empty credentials fall back to the
// defaults.
func NewService(cfg ServiceConfig) *Service {
	username := cfg.Username
	if username == "" {
		username = DefaultUsername
	}
	password := cfg.Password
	if password == "" {
		password = DefaultPassword
	}
	return &Service{
		username:   username,
		password:   password,
		jwtService: cfg.JWTService,
	}
}

// Login checks the credentials and returns a session.
func (s *Service) Login(req LoginRequest) (*Session, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtService.GenerateSessionToken(req.Username)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: expiresAt, Username: req.Username}, nil
}

// ValidateSession validates a session token and returns the username.
func (s *Service) ValidateSession(token string) (string, error) {
	claims, err := s.jwtService.ValidateSessionToken(token)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}
