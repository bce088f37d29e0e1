package card_api

import (
	"errors"
	"net/http"
	"time"

	"ms-fidelity/internal/auth"
	"ms-fidelity/internal/cards/enrollment"
	"ms-fidelity/internal/session"
)

// accountCreatedReload is how long the "account created" dialog stays before
// the page reloads with the new card.
const accountCreatedReload = 2 * time.Second

// SignIn starts a session and replays the enrollment the visitor asked for
// before signing in.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	viewer, err := h.Auth.SignIn(r.Context(), w, r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		h.Logger.LogSecurity("signin_failed", err.Error())
		if errors.Is(err, auth.ErrMissingFields) {
			h.setFlash(w, flashFillFields)
		} else {
			h.setFlash(w, flashSignInError)
		}
		seeOther(w, r, programsPath+"?auth=signin")
		return
	}

	state := session.FromContext(r.Context())
	state.SignedIn(viewer)
	h.resume(r, state)
	seeOther(w, r, programsPath)
}

// SignUp creates the account, signs it in, then resumes like SignIn.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	viewer, err := h.Auth.SignUp(r.Context(), w, r.PostFormValue("name"), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		h.Logger.LogSecurity("signup_failed", err.Error())
		if errors.Is(err, auth.ErrMissingFields) {
			h.setFlash(w, flashFillFields)
		} else {
			h.setFlash(w, flashSignUpError)
		}
		seeOther(w, r, programsPath+"?auth=signup")
		return
	}

	state := session.FromContext(r.Context())
	state.SignedIn(viewer)
	if res := h.resume(r, state); res != nil && res.Outcome == enrollment.OutcomeInserted {
		h.setFlash(w, successFlash(flashAccountCreated, accountCreatedReload))
	}
	seeOther(w, r, programsPath)
}

func (h *Handler) resume(r *http.Request, state *session.State) *enrollment.Result {
	res := h.Workflow.Resume(r.Context(), state)
	if res != nil {
		h.countAttempt(string(res.Outcome))
	}
	return res
}

// SignOut ends the session and drops the per-visitor application state.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.SignOut(w, r); err != nil {
		h.Logger.Warn("AUTH", "sign-out revocation failed: "+err.Error())
	}
	if err := session.FromContext(r.Context()).Reset(r.Context()); err != nil {
		h.Logger.Warn("SESSION", "failed to clear pending enrollment: "+err.Error())
	}
	seeOther(w, r, programsPath)
}

// SetLanguage stores the language choice and returns to the page.
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	lang := r.PostFormValue("lang")
	if !h.I18n.Supported(lang) {
		http.Error(w, "Unsupported language", http.StatusBadRequest)
		return
	}
	h.setPreference(w, LanguageCookie, lang)
	seeOther(w, r, r.PostFormValue("redirect"))
}

func (h *Handler) DismissAppCTA(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.setPreference(w, AppCTACookie, "true")
	seeOther(w, r, r.PostFormValue("redirect"))
}
