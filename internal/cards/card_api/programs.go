package card_api

import (
	"errors"
	"fmt"
	"net/http"

	"ms-fidelity/internal/cards/cardview"
	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/cards/discovery"
	"ms-fidelity/internal/cards/enrollment"
	"ms-fidelity/internal/i18n"
	"ms-fidelity/internal/session"

	"github.com/go-chi/chi/v5"
)

// mineOnly preselects "My Cards" for signed-in viewers unless the filter
// says otherwise.
func mineOnly(filter string, state *session.State) bool {
	switch filter {
	case myCardsFilter:
		return true
	case allCardsFilter:
		return false
	default:
		return state.Authenticated()
	}
}

// ListPrograms renders the programs page, with the discovery overlay when
// the URL carries a qr code.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := session.FromContext(ctx)
	tr := h.translator(r)
	q := r.URL.Query()

	view := h.basePage(w, r, state.Viewer, tr)
	view.Search = q.Get("search")
	view.Location = q.Get("location")
	view.MineOnly = mineOnly(q.Get("filter"), state)
	if mode := q.Get("auth"); mode == "signin" || mode == "signup" {
		view.AuthMode = mode
	}

	entries, err := h.Catalog.Load(ctx, state.ViewerID())
	if err != nil {
		h.Logger.Error("CATALOG", err.Error())
		view.Grid = cardview.NewGridView(nil, tr)
		view.Grid.Error = true
	} else {
		filter := catalog.Filter{Query: view.Search, Location: view.Location, MineOnly: view.MineOnly}
		shown := filter.Apply(entries)
		view.Grid = cardview.NewGridView(cardview.BuildAll(shown, tr), tr)
		view.Grid.NoCards = view.MineOnly && len(shown) == 0
		view.Locations = catalog.Locations(entries)
	}

	// The scan is recorded and the pending intent kept even when the grid
	// failed to load; the overlay needs a loaded card to show.
	if code := q.Get(discovery.QRParam); code != "" {
		meta := discovery.ScanMeta{IPAddress: h.Proxies.ClientIP(r), UserAgent: r.UserAgent()}
		overlay, err := h.Discovery.Discover(ctx, state, code, meta, entries, r.URL)
		if err != nil {
			h.Logger.Error("SCAN", err.Error())
		}
		if overlay != nil {
			view.Overlay = &cardview.OverlayView{
				Card:       cardview.Build(overlay.Entry, tr),
				CloseURL:   overlay.CloseURL,
				CloseLabel: tr.T(i18n.OverlayClose),
			}
		}
	}

	h.renderPage(w, http.StatusOK, view)
}

// Enroll handles the "get this card" form.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := session.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.Workflow.Enroll(ctx, state, enrollment.Request{
		ProgramID:    chi.URLParam(r, "cardID"),
		RestaurantID: r.PostFormValue("restaurant_id"),
		FromQR:       r.PostFormValue("from_qr") == "true",
	})
	switch {
	case errors.Is(err, enrollment.ErrLocked):
		// the other attempt reports the outcome
		h.countAttempt("locked")
		seeOther(w, r, programsPath)
		return
	case err != nil:
		h.countAttempt("error")
		h.Logger.Error("ENROLL", fmt.Sprintf("enrollment of %s failed: %v", chi.URLParam(r, "cardID"), err))
		h.setFlash(w, flashEnrollError)
		seeOther(w, r, programsPath)
		return
	}

	h.countAttempt(string(res.Outcome))
	switch res.Outcome {
	case enrollment.OutcomeAuthRequired:
		seeOther(w, r, programsPath+"?auth=signin")
	case enrollment.OutcomeAlreadyEnrolled:
		if res.ShowNotice {
			h.setFlash(w, flashAlready)
		}
		seeOther(w, r, programsPath)
	default:
		if res.ShowSuccess {
			h.setFlash(w, successFlash(flashAdded, res.ReloadAfter))
		}
		seeOther(w, r, programsPath)
	}
}

// ownedEntry finds the viewer's card for the cardID route parameter.
func (h *Handler) ownedEntry(r *http.Request) (catalog.Entry, int) {
	state := session.FromContext(r.Context())
	if !state.Authenticated() {
		return catalog.Entry{}, http.StatusUnauthorized
	}
	entries, err := h.Catalog.Load(r.Context(), state.ViewerID())
	if err != nil {
		h.Logger.Error("CATALOG", err.Error())
		return catalog.Entry{}, http.StatusServiceUnavailable
	}
	entry, ok := catalog.Find(entries, chi.URLParam(r, "cardID"))
	if !ok || !entry.Owned() {
		return catalog.Entry{}, http.StatusNotFound
	}
	return entry, http.StatusOK
}

// ShowCode renders the page with the card's code modal open.
func (h *Handler) ShowCode(w http.ResponseWriter, r *http.Request) {
	entry, status := h.ownedEntry(r)
	if status == http.StatusUnauthorized {
		seeOther(w, r, programsPath+"?auth=signin")
		return
	}
	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	state := session.FromContext(r.Context())
	tr := h.translator(r)
	view := h.basePage(w, r, state.Viewer, tr)
	view.MineOnly = true
	view.Grid = cardview.NewGridView(cardview.BuildAll([]catalog.Entry{entry}, tr), tr)
	modal := cardview.NewCodeModalView(entry, h.Codes.Size(), programsPath, tr)
	view.CodeModal = &modal
	h.renderPage(w, http.StatusOK, view)
}

// CodeImage serves the PNG staff scan to stamp the card.
func (h *Handler) CodeImage(w http.ResponseWriter, r *http.Request) {
	entry, status := h.ownedEntry(r)
	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	png, err := h.Codes.GenerateProgramCode(entry.Program.ID)
	if err != nil {
		h.Logger.Error("QR", fmt.Sprintf("failed to render code for %s: %v", entry.Program.ID, err))
		http.Error(w, "Failed to generate code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(png)
}
