package card_api

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ms-fidelity/internal/cards/cardview"
	"ms-fidelity/internal/i18n"
	"ms-fidelity/internal/models"
)

//go:embed templates/*.html
var pageFS embed.FS

const (
	LanguageCookie   = "preferredLanguage"
	AppCTACookie     = "appCtaDismissed"
	flashCookie      = "fidelity_flash"
	preferenceMaxAge = 10 * 365 * 24 * 60 * 60
	programsPath     = "/programs"
	myCardsFilter    = "my-cards"
	allCardsFilter   = "all"
)

// Flash kinds carried across the post/redirect/get of a form.
const (
	flashAlready        = "already"
	flashAdded          = "added"
	flashEnrollError    = "enroll_error"
	flashSignInError    = "signin_error"
	flashSignUpError    = "signup_error"
	flashFillFields     = "fill_fields"
	flashAccountCreated = "account_created"
)

type LanguageOption struct {
	Code   string
	Label  string
	Active bool
}

type Alert struct {
	Kind string
	Text string
}

// SuccessDialog reloads the page after ReloadSeconds.
type SuccessDialog struct {
	Title         string
	Text          string
	LinkText      string
	LinkURL       string
	ReloadSeconds int
	ReloadURL     string
}

type AppCTA struct {
	AppStoreURL  string
	PlayStoreURL string
}

// PageView is the whole programs page.
type PageView struct {
	tr i18n.Translator

	Lang      string
	Languages []LanguageOption
	Viewer    *models.Viewer
	ReturnTo  string

	Search    string
	Location  string
	Locations []string
	MineOnly  bool

	Grid      cardview.GridView
	Overlay   *cardview.OverlayView
	CodeModal *cardview.CodeModalView

	AuthMode string
	Alert    *Alert
	Success  *SuccessDialog
	AppCTA   *AppCTA
}

// T translates key for the page language.
func (p PageView) T(key string) string {
	return p.tr.T(i18n.Key(key))
}

func (p PageView) SignedIn() bool {
	return p.Viewer != nil
}

func parsePages(cards *cardview.Renderer) (*template.Template, error) {
	base, err := cards.Templates().Clone()
	if err != nil {
		return nil, err
	}
	return base.ParseFS(pageFS, "templates/*.html")
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, view PageView) {
	var buf strings.Builder
	if err := h.pages.ExecuteTemplate(&buf, "page", view); err != nil {
		h.Logger.Error("HTTP", "failed to render page: "+err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func (h *Handler) basePage(w http.ResponseWriter, r *http.Request, viewer *models.Viewer, tr i18n.Translator) PageView {
	view := PageView{
		tr:       tr,
		Lang:     string(tr.Lang()),
		Viewer:   viewer,
		ReturnTo: r.URL.RequestURI(),
	}
	for _, l := range []i18n.Lang{i18n.Italian, i18n.English} {
		view.Languages = append(view.Languages, LanguageOption{
			Code:   string(l),
			Label:  strings.ToUpper(string(l)),
			Active: l == tr.Lang(),
		})
	}
	view.AppCTA = h.appCTA(r)
	h.applyFlash(w, r, &view)
	return view
}

var (
	iosAgent     = regexp.MustCompile(`iPad|iPhone|iPod`)
	androidAgent = regexp.MustCompile(`Android`)
)

// appCTA returns nil once dismissed. Phones only get their own store.
func (h *Handler) appCTA(r *http.Request) *AppCTA {
	if c, err := r.Cookie(AppCTACookie); err == nil && c.Value == "true" {
		return nil
	}
	cta := &AppCTA{AppStoreURL: h.Stores.AppStoreURL, PlayStoreURL: h.Stores.PlayStoreURL}
	ua := r.UserAgent()
	switch {
	case iosAgent.MatchString(ua):
		cta.PlayStoreURL = ""
	case androidAgent.MatchString(ua):
		cta.AppStoreURL = ""
	}
	return cta
}

func (h *Handler) setFlash(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// applyFlash consumes the flash cookie into the page alerts.
func (h *Handler) applyFlash(w http.ResponseWriter, r *http.Request, view *PageView) {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: h.Secure, SameSite: http.SameSiteLaxMode})

	kind, arg, _ := strings.Cut(c.Value, ":")
	tr := view.tr
	switch kind {
	case flashAlready:
		view.Alert = &Alert{Kind: "info", Text: tr.T(i18n.EnrollAlready)}
	case flashEnrollError:
		view.Alert = &Alert{Kind: "error", Text: tr.T(i18n.EnrollError)}
	case flashSignInError:
		view.Alert = &Alert{Kind: "error", Text: tr.T(i18n.AuthSignInError)}
	case flashSignUpError:
		view.Alert = &Alert{Kind: "error", Text: tr.T(i18n.AuthSignUpError)}
	case flashFillFields:
		view.Alert = &Alert{Kind: "error", Text: tr.T(i18n.AuthFillAllFields)}
	case flashAdded, flashAccountCreated:
		seconds, err := strconv.Atoi(arg)
		if err != nil || seconds < 0 {
			seconds = 2
		}
		text := tr.T(i18n.EnrollSuccess)
		if kind == flashAccountCreated {
			text = tr.T(i18n.AuthAccountCreated)
		}
		view.Success = &SuccessDialog{
			Title:         tr.T(i18n.AuthSuccessTitle),
			Text:          text,
			LinkText:      tr.T(i18n.EnrollViewMy),
			LinkURL:       programsPath + "?filter=" + myCardsFilter,
			ReloadSeconds: seconds,
			ReloadURL:     programsPath,
		}
	}
}

func successFlash(kind string, reload time.Duration) string {
	return fmt.Sprintf("%s:%d", kind, int(reload.Round(time.Second)/time.Second))
}

func (h *Handler) setPreference(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   preferenceMaxAge,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// localRedirect keeps redirects on this site.
func localRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return programsPath
	}
	return target
}

func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, localRedirect(target), http.StatusSeeOther)
}
