package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-fidelity/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey string

const userIDKey contextKey = "user_id"

// DevStaffID is the subject injected when staff auth is disabled.
const DevStaffID = "dev-staff"

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers issuer and verifies tokens against its keys.
func NewOIDCVerifier(ctx context.Context, issuer string) (TokenVerifier, error) {
	if issuer == "" {
		return nil, errors.New("OIDC_ISSUER not set")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	// SkipClientIDCheck: staff tokens come from several clients of the realm
	return &oidcVerifier{
		verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
	}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", err
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("failed to parse claims: %w", err)
	}
	return claims.Sub, nil
}

// Middleware guards the staff API with bearer tokens.
func Middleware(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			sub, err := verifier.Verify(r.Context(), rawToken)
			if err != nil || sub == "" {
				log.LogSecurity("staff_token_rejected", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DevMiddleware stands in for Middleware when SKIP_STAFF_AUTH is set.
func DevMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	log.Warn("AUTH", "staff authentication disabled")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), userIDKey, DevStaffID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the staff subject set by Middleware.
func UserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey).(string); ok {
		return uid
	}
	return ""
}
