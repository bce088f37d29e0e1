package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	viewer := models.Viewer{ID: "u1", Email: "a@b.com", DisplayName: "A"}

	token, claims, err := IssueSessionToken(secret, viewer, time.Hour, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := ParseSessionToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, viewer, *parsed.Viewer())

	_, err = ParseSessionToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionTokenExpired(t *testing.T) {
	secret := []byte("s3cret")
	token, _, err := IssueSessionToken(secret, models.Viewer{ID: "u1"}, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseSessionToken(secret, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestExtractTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractTokenFromRequest(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "Token abc")
	_, err = ExtractTokenFromRequest(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "Bearer abc")
	tok, err := ExtractTokenFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

type fakeVerifier struct {
	sub string
	err error
}

func (f fakeVerifier) Verify(context.Context, string) (string, error) {
	return f.sub, f.err
}

func TestMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	ok := Middleware(fakeVerifier{sub: "staff-1"}, logger.NewNopLogger())(next)
	rejected := Middleware(fakeVerifier{err: errors.New("expired")}, logger.NewNopLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/staff/cards/1", nil)
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	ok.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff-1", seen)

	rec = httptest.NewRecorder()
	rejected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	seen = ""
	rec = httptest.NewRecorder()
	DevMiddleware(logger.NewNopLogger())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DevStaffID, seen)
}
