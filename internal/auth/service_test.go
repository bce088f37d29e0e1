package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupService(t *testing.T) (*SessionService, *BunUserStore) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())

	store := NewBunUserStore(db)
	require.NoError(t, store.EnsureSchema(context.Background()))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
		db.Close()
	})

	svc := NewSessionService(store, NewRedisRevocations(client), "test-secret",
		CookieConfig{Name: "fidelity_session", TTL: time.Hour}, logger.NewNopLogger())
	return svc, store
}

// requestWithCookies replays the cookies set on rec into a new request.
func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/programs", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSignUpSignsIn(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	viewer, err := svc.SignUp(ctx, rec, "Anna", " Anna@Example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", viewer.Email)
	assert.Equal(t, "Anna", viewer.DisplayName)

	current, err := svc.CurrentUser(requestWithCookies(rec))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, viewer.ID, current.ID)

	var profile models.UserProfile
	require.NoError(t, store.DB.NewSelect().Model(&profile).Where("user_id = ?", viewer.ID).Scan(ctx))
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, httptest.NewRecorder(), "", "a@b.com", "secret123")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.SignUp(ctx, httptest.NewRecorder(), "A", "not-an-email", "secret123")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.SignUp(ctx, httptest.NewRecorder(), "A", "a@b.com", "123")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.SignUp(ctx, httptest.NewRecorder(), "A", "a@b.com", "secret123")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, httptest.NewRecorder(), "B", "A@B.com", "secret456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignIn(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, httptest.NewRecorder(), "Anna", "anna@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, httptest.NewRecorder(), "anna@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, httptest.NewRecorder(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, httptest.NewRecorder(), "", "")
	assert.ErrorIs(t, err, ErrMissingFields)

	rec := httptest.NewRecorder()
	viewer, err := svc.SignIn(ctx, rec, "ANNA@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Anna", viewer.DisplayName)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSignOutRevokesSession(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	_, err := svc.SignUp(ctx, rec, "Anna", "anna@example.com", "secret123")
	require.NoError(t, err)

	req := requestWithCookies(rec)
	out := httptest.NewRecorder()
	require.NoError(t, svc.SignOut(out, req))

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	// the old cookie replayed after sign-out no longer identifies anyone
	viewer, err := svc.CurrentUser(requestWithCookies(rec))
	require.NoError(t, err)
	assert.Nil(t, viewer)
}

func TestCurrentUserIgnoresGarbage(t *testing.T) {
	svc, _ := setupService(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	viewer, err := svc.CurrentUser(req)
	require.NoError(t, err)
	assert.Nil(t, viewer)

	req.AddCookie(&http.Cookie{Name: "fidelity_session", Value: "not.a.jwt"})
	viewer, err = svc.CurrentUser(req)
	require.NoError(t, err)
	assert.Nil(t, viewer)
}
