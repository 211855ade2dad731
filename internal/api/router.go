package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the applicant-review routes. Everything under the
// authenticated group requires the session cookie; /authorize and /health
// stay open.
func NewRouter(a *API) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// The frontend sends the auth cookie cross-origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{a.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Get("/authorize", a.Authorize)

	r.Group(func(r chi.Router) {
		r.Use(a.RequireAuth)

		r.Get("/test-auth", a.TestAuth)
		r.Get("/applicants", a.ListApplicants)
		r.Get("/applicants/{id}", a.GetApplicant)
		r.Post("/applicants/{id}/ratings", a.PostRating)
		r.Delete("/applicants/{id}/ratings/{ratingID}", a.DeleteRating)
		r.Put("/applicants/{id}/stage", a.PutStage)
		r.Put("/applicants/{id}/name", a.PutName)
		r.Get("/applicants/{id}/resume/{filename}", a.GetResume)
	})

	return r
}
