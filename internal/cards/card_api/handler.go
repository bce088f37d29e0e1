package card_api

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"ms-fidelity/internal/auth"
	"ms-fidelity/internal/cards/cardview"
	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/cards/discovery"
	"ms-fidelity/internal/cards/enrollment"
	"ms-fidelity/internal/i18n"
	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/middleware"
	"ms-fidelity/internal/models"
	"ms-fidelity/internal/session"
	"ms-fidelity/internal/sse"
)

type CatalogLoader interface {
	Load(ctx context.Context, viewerID string) ([]catalog.Entry, error)
}

type Enroller interface {
	Enroll(ctx context.Context, state *session.State, req enrollment.Request) (*enrollment.Result, error)
	Resume(ctx context.Context, state *session.State) *enrollment.Result
}

type Discoverer interface {
	Discover(ctx context.Context, state *session.State, code string, meta discovery.ScanMeta, entries []catalog.Entry, current *url.URL) (*discovery.Overlay, error)
}

// StaffDBLayer backs the counter lookups of the staff API.
type StaffDBLayer interface {
	GetEnrollmentByCardNumber(ctx context.Context, cardNumber int64) (*models.Enrollment, error)
	GetProgramByID(ctx context.Context, id string) (*models.Program, error)
	ScanStats(ctx context.Context, programID string) (*models.ScanStats, error)
}

type CodeGenerator interface {
	GenerateProgramCode(programID string) ([]byte, error)
	Size() int
}

type CardEvents interface {
	Subscribe(ctx context.Context, viewerID string) chan sse.CardEvent
}

type AttemptMetrics interface {
	EnrollmentAttempt(outcome string)
}

type StoreLinks struct {
	AppStoreURL  string
	PlayStoreURL string
}

// Deps groups what the portal handlers need.
type Deps struct {
	Catalog   CatalogLoader
	Workflow  Enroller
	Discovery Discoverer
	Auth      auth.Service
	Staff     StaffDBLayer
	Codes     CodeGenerator
	Events    CardEvents
	Metrics   AttemptMetrics
	I18n      *i18n.Resolver
	Cards     *cardview.Renderer
	Stores    StoreLinks
	Proxies   *middleware.ProxyTrust
	Secure    bool
	Logger    *logger.Logger
}

type Handler struct {
	Deps
	pages *template.Template
}

func NewHandler(deps Deps) (*Handler, error) {
	pages, err := parsePages(deps.Cards)
	if err != nil {
		return nil, fmt.Errorf("page templates: %w", err)
	}
	return &Handler{Deps: deps, pages: pages}, nil
}

func (h *Handler) countAttempt(outcome string) {
	if h.Metrics != nil {
		h.Metrics.EnrollmentAttempt(outcome)
	}
}

func (h *Handler) translator(r *http.Request) i18n.Translator {
	preferred := ""
	if c, err := r.Cookie(LanguageCookie); err == nil {
		preferred = c.Value
	}
	return h.I18n.For(h.I18n.Negotiate(preferred, r.Header.Get("Accept-Language")))
}
