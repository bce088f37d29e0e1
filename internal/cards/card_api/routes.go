package card_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Guards are the middlewares wrapped around route groups. Nil entries pass
// requests through.
type Guards struct {
	Session     func(http.Handler) http.Handler
	Staff       func(http.Handler) http.Handler
	AuthLimit   func(http.Handler) http.Handler
	EnrollLimit func(http.Handler) http.Handler
}

func passThrough(next http.Handler) http.Handler { return next }

func orPass(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passThrough
	}
	return mw
}

// RegisterRoutes mounts the portal pages, the JSON API and the staff API.
func (h *Handler) RegisterRoutes(r chi.Router, g Guards) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, programsPath, http.StatusFound)
	})

	r.Group(func(r chi.Router) {
		r.Use(orPass(g.Session))

		r.Route("/programs", func(r chi.Router) {
			r.Get("/", h.ListPrograms)
			r.Get("/events", h.CardEvents)
			r.With(orPass(g.EnrollLimit)).Post("/{cardID}/enroll", h.Enroll)
			r.Get("/{cardID}/code", h.ShowCode)
			r.Get("/{cardID}/code.png", h.CodeImage)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(orPass(g.AuthLimit))
			r.Post("/signin", h.SignIn)
			r.Post("/signup", h.SignUp)
			r.Post("/signout", h.SignOut)
		})

		r.Post("/preferences/language", h.SetLanguage)
		r.Post("/preferences/app-cta/dismiss", h.DismissAppCTA)

		r.Get("/api/programs", h.APIListPrograms)
		r.With(orPass(g.EnrollLimit)).Post("/api/programs/{cardID}/enroll", h.APIEnroll)
	})

	r.Route("/api/staff", func(r chi.Router) {
		r.Use(orPass(g.Staff))
		r.Get("/cards/{cardNumber}", h.StaffLookupCard)
		r.Get("/programs/{cardID}/scan-stats", h.StaffScanStats)
	})
}
