package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ms-fidelity/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims is the payload of the session cookie.
type SessionClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ExtractTokenFromRequest extracts a bearer token from the Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

// IssueSessionToken signs a session for viewer valid for ttl.
func IssueSessionToken(secret []byte, viewer models.Viewer, ttl time.Duration, now time.Time) (string, *SessionClaims, error) {
	claims := &SessionClaims{
		Email:       viewer.Email,
		DisplayName: viewer.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   viewer.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return token, claims, nil
}

// ParseSessionToken verifies tokenString and returns its claims.
func ParseSessionToken(secret []byte, tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject claim not found in token", ErrInvalidSession)
	}
	return claims, nil
}

// Viewer converts the claims back into the identity they carry.
func (c *SessionClaims) Viewer() *models.Viewer {
	return &models.Viewer{
		ID:          c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
	}
}
