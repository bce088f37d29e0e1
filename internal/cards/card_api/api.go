package card_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"ms-fidelity/internal/auth"
	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/cards/db"
	"ms-fidelity/internal/cards/enrollment"
	"ms-fidelity/internal/i18n"
	"ms-fidelity/internal/models"
	"ms-fidelity/internal/session"
	"ms-fidelity/internal/utils"

	"github.com/go-chi/chi/v5"
)

type ProgramResponse struct {
	Program    models.Program     `json:"program"`
	Owned      bool               `json:"owned"`
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
}

type EnrollRequest struct {
	RestaurantID string `json:"restaurant_id"`
	FromQR       bool   `json:"from_qr"`
}

type EnrollResponse struct {
	Outcome       enrollment.Outcome `json:"outcome"`
	ShowNotice    bool               `json:"show_notice"`
	Enrollment    *models.Enrollment `json:"enrollment,omitempty"`
	ReloadAfterMS int64              `json:"reload_after_ms,omitempty"`
}

type StaffCardResponse struct {
	Enrollment models.Enrollment `json:"enrollment"`
	StampsLeft int               `json:"stamps_left"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, resp utils.APIResponse) {
	if err := utils.WriteJSON(w, status, resp); err != nil {
		h.Logger.Error("HTTP", "failed to write response: "+err.Error())
	}
}

// APIListPrograms returns the catalog for the current viewer, filtered like
// the page.
func (h *Handler) APIListPrograms(w http.ResponseWriter, r *http.Request) {
	state := session.FromContext(r.Context())
	entries, err := h.Catalog.Load(r.Context(), state.ViewerID())
	if err != nil {
		h.Logger.Error("CATALOG", err.Error())
		h.writeJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse(h.translator(r).T(i18n.ProgramsError), catalog.ErrCatalogUnavailable.Error()))
		return
	}

	q := r.URL.Query()
	filter := catalog.Filter{
		Query:    q.Get("search"),
		Location: q.Get("location"),
		MineOnly: q.Get("filter") == myCardsFilter,
	}
	out := make([]ProgramResponse, 0, len(entries))
	for _, e := range filter.Apply(entries) {
		out = append(out, ProgramResponse{Program: e.Program, Owned: e.Owned(), Enrollment: e.Enrollment})
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Programs retrieved", out))
}

// APIEnroll is the JSON twin of Enroll.
func (h *Handler) APIEnroll(w http.ResponseWriter, r *http.Request) {
	tr := h.translator(r)

	var body EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	programID := chi.URLParam(r, "cardID")
	res, err := h.Workflow.Enroll(r.Context(), session.FromContext(r.Context()), enrollment.Request{
		ProgramID:    programID,
		RestaurantID: body.RestaurantID,
		FromQR:       body.FromQR,
	})
	if err != nil {
		status := http.StatusInternalServerError
		outcome := "error"
		switch {
		case errors.Is(err, enrollment.ErrLocked):
			status, outcome = http.StatusConflict, "locked"
		case errors.Is(err, enrollment.ErrProgramNotFound):
			status = http.StatusNotFound
		case errors.Is(err, enrollment.ErrProgramUnavailable):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, enrollment.ErrMissingProgram):
			status = http.StatusBadRequest
		}
		h.countAttempt(outcome)
		if status == http.StatusInternalServerError {
			h.Logger.Error("ENROLL", fmt.Sprintf("enrollment of %s failed: %v", programID, err))
		}
		h.writeJSON(w, status, utils.ErrorResponse(tr.T(i18n.EnrollError), err.Error()))
		return
	}

	h.countAttempt(string(res.Outcome))
	data := EnrollResponse{
		Outcome:       res.Outcome,
		ShowNotice:    res.ShowNotice,
		Enrollment:    res.Enrollment,
		ReloadAfterMS: res.ReloadAfter.Milliseconds(),
	}
	switch res.Outcome {
	case enrollment.OutcomeAuthRequired:
		resp := utils.ErrorResponse(tr.T(i18n.AuthSignInTitle), "authentication required")
		resp.Data = data
		h.writeJSON(w, http.StatusUnauthorized, resp)
	case enrollment.OutcomeAlreadyEnrolled:
		h.writeJSON(w, http.StatusOK, utils.SuccessResponse(tr.T(i18n.EnrollAlready), data))
	default:
		h.writeJSON(w, http.StatusCreated, utils.SuccessResponse(tr.T(i18n.EnrollSuccess), data))
	}
}

// StaffLookupCard resolves a card number typed in at the counter.
func (h *Handler) StaffLookupCard(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(chi.URLParam(r, "cardNumber"), 10, 64)
	if err != nil || number <= 0 {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid card number", "card number must be a positive integer"))
		return
	}

	card, err := h.Staff.GetEnrollmentByCardNumber(r.Context(), number)
	if errors.Is(err, db.ErrNotFound) {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Card not found", err.Error()))
		return
	}
	if err != nil {
		h.Logger.Error("DATABASE", fmt.Sprintf("card lookup %d failed: %v", number, err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Card lookup failed", err.Error()))
		return
	}

	left := card.StampsRequired - card.CurrentStamps
	if left < 0 || card.IsCompleted {
		left = 0
	}
	h.Logger.LogSecurity("staff_card_lookup", fmt.Sprintf("staff %s looked up card #%d", auth.UserID(r.Context()), number))
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Card retrieved", StaffCardResponse{Enrollment: *card, StampsLeft: left}))
}

// StaffScanStats reports discovery scans and conversions of one program.
func (h *Handler) StaffScanStats(w http.ResponseWriter, r *http.Request) {
	programID := chi.URLParam(r, "cardID")
	if _, err := h.Staff.GetProgramByID(r.Context(), programID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Program not found", err.Error()))
			return
		}
		h.Logger.Error("DATABASE", fmt.Sprintf("program lookup %s failed: %v", programID, err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Program lookup failed", err.Error()))
		return
	}

	stats, err := h.Staff.ScanStats(r.Context(), programID)
	if err != nil {
		h.Logger.Error("DATABASE", fmt.Sprintf("scan stats for %s failed: %v", programID, err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Scan stats unavailable", err.Error()))
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Scan stats retrieved", stats))
}
