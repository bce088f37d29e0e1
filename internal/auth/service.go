// Package auth owns viewer identity: password accounts, the session cookie,
// and the bearer-token guard of the staff API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"
	"ms-fidelity/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password too short")
)

// MinPasswordLength matches the hosted auth default the portal used.
const MinPasswordLength = 6

// Service is the session gate every page and API handler consults.
type Service interface {
	CurrentUser(r *http.Request) (*models.Viewer, error)
	SignIn(ctx context.Context, w http.ResponseWriter, email, password string) (*models.Viewer, error)
	SignUp(ctx context.Context, w http.ResponseWriter, name, email, password string) (*models.Viewer, error)
	SignOut(w http.ResponseWriter, r *http.Request) error
}

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type SessionService struct {
	Users       UserStore
	Revocations RevocationStore
	Secret      []byte
	Cookie      CookieConfig
	Logger      *logger.Logger

	now func() time.Time
}

func NewSessionService(users UserStore, revocations RevocationStore, secret string, cookie CookieConfig, log *logger.Logger) *SessionService {
	if cookie.TTL <= 0 {
		cookie.TTL = 30 * 24 * time.Hour
	}
	return &SessionService{
		Users:       users,
		Revocations: revocations,
		Secret:      []byte(secret),
		Cookie:      cookie,
		Logger:      log,
		now:         time.Now,
	}
}

// CurrentUser returns the signed-in viewer, or nil when the request carries
// no valid session. A broken or revoked cookie is not an error.
func (s *SessionService) CurrentUser(r *http.Request) (*models.Viewer, error) {
	c, err := r.Cookie(s.Cookie.Name)
	if err != nil || c.Value == "" {
		return nil, nil
	}

	claims, err := ParseSessionToken(s.Secret, c.Value)
	if err != nil {
		s.Logger.Debug("AUTH", "ignoring session cookie: "+err.Error())
		return nil, nil
	}

	if s.Revocations != nil {
		revoked, err := s.Revocations.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if revoked {
			return nil, nil
		}
	}
	return claims.Viewer(), nil
}

func (s *SessionService) SignIn(ctx context.Context, w http.ResponseWriter, email, password string) (*models.Viewer, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.Logger.LogSecurity("signin_failed", "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.Logger.LogSecurity("signin_failed", "bad password for "+user.ID)
		return nil, ErrInvalidCredentials
	}

	viewer := models.Viewer{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName}
	if err := s.startSession(w, viewer); err != nil {
		return nil, err
	}
	s.Logger.Info("AUTH", "viewer signed in: "+user.ID)
	return &viewer, nil
}

// SignUp creates the account and signs it in. The profile row is best
// effort; its failure never fails the sign-up.
func (s *SessionService) SignUp(ctx context.Context, w http.ResponseWriter, name, email, password string) (*models.Viewer, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           utils.NewID(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	profile := &models.UserProfile{UserID: user.ID, CreatedAt: now, UpdatedAt: now}
	if err := s.Users.CreateProfile(ctx, profile); err != nil {
		s.Logger.Warn("AUTH", fmt.Sprintf("profile insert failed for %s: %v", user.ID, err))
	}

	viewer := models.Viewer{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName}
	if err := s.startSession(w, viewer); err != nil {
		return nil, err
	}
	s.Logger.Info("AUTH", "viewer signed up: "+user.ID)
	return &viewer, nil
}

// SignOut clears the cookie and revokes the token it carried.
func (s *SessionService) SignOut(w http.ResponseWriter, r *http.Request) error {
	defer s.clearCookie(w)

	c, err := r.Cookie(s.Cookie.Name)
	if err != nil || c.Value == "" {
		return nil
	}
	claims, err := ParseSessionToken(s.Secret, c.Value)
	if err != nil {
		return nil
	}
	if s.Revocations != nil && claims.ExpiresAt != nil {
		if err := s.Revocations.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
	}
	s.Logger.Info("AUTH", "viewer signed out: "+claims.Subject)
	return nil
}

func (s *SessionService) startSession(w http.ResponseWriter, viewer models.Viewer) error {
	token, claims, err := IssueSessionToken(s.Secret, viewer, s.Cookie.TTL, s.now())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.Cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HttpOnly: true,
		Secure:   s.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *SessionService) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
