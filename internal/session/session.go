// Package session carries the per-request application state: who the
// visitor is, whether they are signed in, and the enrollment they asked for
// before signing in.
package session

import (
	"context"
	"net/http"
	"time"

	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"
	"ms-fidelity/internal/utils"
)

type PendingStore interface {
	SavePendingIntent(ctx context.Context, visitorID string, intent models.PendingIntent) error
	LoadPendingIntent(ctx context.Context, visitorID string) (*models.PendingIntent, error)
	ClearPendingIntent(ctx context.Context, visitorID string) error
}

type ViewerSource interface {
	CurrentUser(r *http.Request) (*models.Viewer, error)
}

// State is built once per request. Reset is the only way to drop the viewer
// and the pending intent together.
type State struct {
	VisitorID string
	Viewer    *models.Viewer
	Pending   *models.PendingIntent

	store PendingStore
}

// NewState builds a state detached from any request. Used by tests and by
// callers that already resolved the viewer.
func NewState(visitorID string, viewer *models.Viewer, store PendingStore) *State {
	return &State{VisitorID: visitorID, Viewer: viewer, store: store}
}

func (s *State) Authenticated() bool {
	return s != nil && s.Viewer != nil
}

// ViewerID is empty for anonymous visitors.
func (s *State) ViewerID() string {
	if !s.Authenticated() {
		return ""
	}
	return s.Viewer.ID
}

// Remember stores intent until the visitor signs in.
func (s *State) Remember(ctx context.Context, intent models.PendingIntent) error {
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now().UTC()
	}
	if s.store != nil {
		if err := s.store.SavePendingIntent(ctx, s.VisitorID, intent); err != nil {
			return err
		}
	}
	s.Pending = &intent
	return nil
}

// TakePending returns the pending intent and forgets it, so it is replayed
// at most once.
func (s *State) TakePending(ctx context.Context) (*models.PendingIntent, error) {
	intent := s.Pending
	if intent == nil && s.store != nil {
		loaded, err := s.store.LoadPendingIntent(ctx, s.VisitorID)
		if err != nil {
			return nil, err
		}
		intent = loaded
	}
	if intent == nil {
		return nil, nil
	}
	if err := s.clearPending(ctx); err != nil {
		return nil, err
	}
	return intent, nil
}

// SignedIn attaches the viewer after a successful sign-in or sign-up.
func (s *State) SignedIn(viewer *models.Viewer) {
	s.Viewer = viewer
}

// Reset drops the viewer and any pending intent. Called on sign-out.
func (s *State) Reset(ctx context.Context) error {
	s.Viewer = nil
	return s.clearPending(ctx)
}

func (s *State) clearPending(ctx context.Context) error {
	s.Pending = nil
	if s.store == nil {
		return nil
	}
	return s.store.ClearPendingIntent(ctx, s.VisitorID)
}

type contextKey struct{}

func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the state set by Manager.Middleware, or an empty
// anonymous state.
func FromContext(ctx context.Context) *State {
	if s, ok := ctx.Value(contextKey{}).(*State); ok {
		return s
	}
	return &State{}
}

type Manager struct {
	Viewers       ViewerSource
	Pending       PendingStore
	VisitorCookie string
	Secure        bool
	Logger        *logger.Logger
}

// visitorCookieMaxAge keeps the visitor id for a year.
const visitorCookieMaxAge = 365 * 24 * 60 * 60

// Load resolves the state of r, issuing a visitor id cookie on first visit.
// Session and pending-intent lookups are best effort.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *State {
	state := &State{VisitorID: m.visitorID(w, r), store: m.Pending}

	viewer, err := m.Viewers.CurrentUser(r)
	if err != nil {
		m.Logger.Warn("SESSION", "session lookup failed: "+err.Error())
	}
	state.Viewer = viewer

	if m.Pending != nil {
		intent, err := m.Pending.LoadPendingIntent(r.Context(), state.VisitorID)
		if err != nil {
			m.Logger.Warn("SESSION", "pending intent lookup failed: "+err.Error())
		}
		state.Pending = intent
	}
	return state
}

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := m.Load(w, r)
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), state)))
	})
}

func (m *Manager) visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(m.VisitorCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := utils.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     m.VisitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   visitorCookieMaxAge,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
