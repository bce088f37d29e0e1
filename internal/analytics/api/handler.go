package analytics_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ms-fidelity/internal/analytics"
	"ms-fidelity/internal/auth"
	"ms-fidelity/internal/cards/db"
	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"
	"ms-fidelity/internal/utils"

	"github.com/go-chi/chi/v5"
)

type AnalyticsService interface {
	GetProgramAnalytics(ctx context.Context, programID string, days int) (*analytics.ProgramAnalytics, error)
	GetRestaurantSummary(ctx context.Context, restaurantID string) (*analytics.RestaurantSummary, error)
}

type ProgramLookup interface {
	GetProgramByID(ctx context.Context, id string) (*models.Program, error)
}

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service  AnalyticsService
	Programs ProgramLookup
	Logger   *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service AnalyticsService, programs ProgramLookup, logger *logger.Logger) *Handler {
	return &Handler{
		Service:  service,
		Programs: programs,
		Logger:   logger,
	}
}

// RegisterRoutes registers the analytics routes on a chi router. Callers
// mount it behind the staff guard.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/analytics", func(r chi.Router) {
		r.Get("/programs/{cardID}", h.GetProgramAnalytics)
		r.Get("/restaurants/{restaurantID}", h.GetRestaurantSummary)
	})
}

// GetProgramAnalytics handles GET /api/analytics/programs/{cardID}?days=N
func (h *Handler) GetProgramAnalytics(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	days := analytics.DefaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid days", err.Error()))
			return
		}
		days = n
	}

	if _, err := h.Programs.GetProgramByID(r.Context(), cardID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			_ = utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("program not found", cardID))
			return
		}
		h.Logger.Error("ANALYTICS", fmt.Sprintf("program lookup %s failed: %v", cardID, err))
		_ = utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("lookup failed", "internal error"))
		return
	}

	result, err := h.Service.GetProgramAnalytics(r.Context(), cardID, days)
	if errors.Is(err, analytics.ErrInvalidRange) {
		_ = utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid days", err.Error()))
		return
	}
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("analytics for %s failed: %v", cardID, err))
		_ = utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("analytics failed", "internal error"))
		return
	}

	h.Logger.LogSecurity("staff_analytics", fmt.Sprintf("staff %s read analytics of %s", auth.UserID(r.Context()), cardID))
	_ = utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("program analytics", result))
}

// GetRestaurantSummary handles GET /api/analytics/restaurants/{restaurantID}
func (h *Handler) GetRestaurantSummary(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")

	summary, err := h.Service.GetRestaurantSummary(r.Context(), restaurantID)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("summary for restaurant %s failed: %v", restaurantID, err))
		_ = utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("analytics failed", "internal error"))
		return
	}
	if len(summary.Programs) == 0 {
		_ = utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("restaurant has no programs", restaurantID))
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("restaurant summary", summary))
}
