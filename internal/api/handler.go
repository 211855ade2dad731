package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"applicant-tracker/internal/storage"
)

// Store is the slice of the applicant store the API needs. *storage.DB
// implements it; tests substitute an in-memory fake.
type Store interface {
	ListApplicants(ctx context.Context) ([]*storage.Applicant, error)
	GetApplicant(ctx context.Context, id int64) (*storage.Applicant, error)
	UpdateAttributes(ctx context.Context, id int64, attrs storage.Attributes) error
	UpdateName(ctx context.Context, id int64, name string) error
}

// API bundles the handlers for the applicant-review endpoints.
type API struct {
	store       Store
	authToken   string
	frontendURL string
}

func NewAPI(store Store, authToken, frontendURL string) *API {
	return &API{store: store, authToken: authToken, frontendURL: frontendURL}
}

// ApplicantView is an applicant as the API reports it: the resume is exposed
// as a URL, never inlined into list or detail payloads.
type ApplicantView struct {
	ID            int64            `json:"id"`
	Email         string           `json:"email"`
	Name          string           `json:"name"`
	Stage         storage.Stage    `json:"stage"`
	ResumeURL     string           `json:"resumeUrl"`
	GithubURL     string           `json:"githubUrl,omitempty"`
	EmailText     string           `json:"emailText"`
	Ratings       []storage.Rating `json:"ratings"`
	DateSubmitted *time.Time       `json:"dateSubmitted,omitempty"`
}

func newApplicantView(a *storage.Applicant) ApplicantView {
	v := ApplicantView{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Stage:     a.Attributes.Stage,
		GithubURL: a.Attributes.GithubURL,
		EmailText: a.Attributes.EmailText,
		Ratings:   a.Attributes.Ratings,
	}
	if v.Ratings == nil {
		v.Ratings = []storage.Rating{}
	}
	if len(a.Attributes.Resume) > 0 {
		v.ResumeURL = fmt.Sprintf("/applicants/%d/resume/Resume_%s.pdf",
			a.ID, strings.ReplaceAll(a.Name, " ", "-"))
	}
	if !a.Attributes.DateSubmitted.IsZero() {
		t := a.Attributes.DateSubmitted
		v.DateSubmitted = &t
	}
	return v
}

// RatingInput is the POST body for a new rating.
type RatingInput struct {
	Rater      string         `json:"rater"`
	Notes      string         `json:"notes"`
	Attributes map[string]int `json:"attributes"`
}

// ListApplicants returns all applicants
// @Summary List applicants
// @Produce json
// @Success 200 {array} api.ApplicantView
// @Router /applicants [get]
func (a *API) ListApplicants(w http.ResponseWriter, r *http.Request) {
	applicants, err := a.store.ListApplicants(r.Context())
	if err != nil {
		http.Error(w, "list applicants error", http.StatusInternalServerError)
		return
	}
	views := make([]ApplicantView, 0, len(applicants))
	for _, app := range applicants {
		views = append(views, newApplicantView(app))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetApplicant returns a single applicant
// @Summary Get applicant
// @Produce json
// @Success 200 {object} api.ApplicantView
// @Failure 404 {string} string
// @Router /applicants/{id} [get]
func (a *API) GetApplicant(w http.ResponseWriter, r *http.Request) {
	app, ok := a.fetchApplicant(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newApplicantView(app))
}

// PostRating appends a rating with a generated id
// @Summary Rate applicant
// @Accept json
// @Produce json
// @Success 200 {object} storage.Rating
// @Router /applicants/{id}/ratings [post]
func (a *API) PostRating(w http.ResponseWriter, r *http.Request) {
	var input RatingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	for criterion, score := range input.Attributes {
		if score < 0 || score > 5 {
			http.Error(w, fmt.Sprintf("score for %q must be in [0,5]", criterion), http.StatusBadRequest)
			return
		}
	}

	app, ok := a.fetchApplicant(w, r)
	if !ok {
		return
	}

	rating := storage.Rating{
		ID:         uuid.NewString(),
		Rater:      input.Rater,
		Notes:      input.Notes,
		Attributes: input.Attributes,
	}
	attrs := app.Attributes
	attrs.Ratings = append(attrs.Ratings, rating)
	if err := a.updateAttributes(w, r, app.ID, attrs); err != nil {
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

// DeleteRating removes a rating by id
// @Summary Delete rating
// @Success 204
// @Router /applicants/{id}/ratings/{ratingID} [delete]
func (a *API) DeleteRating(w http.ResponseWriter, r *http.Request) {
	app, ok := a.fetchApplicant(w, r)
	if !ok {
		return
	}

	ratingID := chi.URLParam(r, "ratingID")
	attrs := app.Attributes
	kept := make([]storage.Rating, 0, len(attrs.Ratings))
	for _, rating := range attrs.Ratings {
		if rating.ID != ratingID {
			kept = append(kept, rating)
		}
	}
	attrs.Ratings = kept
	if err := a.updateAttributes(w, r, app.ID, attrs); err != nil {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutStage replaces the applicant's pipeline stage
// @Summary Set stage
// @Accept json
// @Produce json
// @Success 200 {string} string
// @Router /applicants/{id}/stage [put]
func (a *API) PutStage(w http.ResponseWriter, r *http.Request) {
	raw, err := readBodyString(r)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	stage := storage.Stage(raw)
	if !stage.Valid() {
		http.Error(w, fmt.Sprintf("unknown stage %q", raw), http.StatusBadRequest)
		return
	}

	app, ok := a.fetchApplicant(w, r)
	if !ok {
		return
	}
	attrs := app.Attributes
	attrs.Stage = stage
	if err := a.updateAttributes(w, r, app.ID, attrs); err != nil {
		return
	}
	writeJSON(w, http.StatusOK, stage)
}

// PutName replaces the applicant's display name
// @Summary Set name
// @Accept json
// @Produce json
// @Success 200 {string} string
// @Failure 404 {string} string
// @Router /applicants/{id}/name [put]
func (a *API) PutName(w http.ResponseWriter, r *http.Request) {
	id, ok := applicantID(w, r)
	if !ok {
		return
	}
	name, err := readBodyString(r)
	if err != nil || name == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := a.store.UpdateName(r.Context(), id, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "applicant not found", http.StatusNotFound)
			return
		}
		http.Error(w, "update name error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, name)
}

// GetResume serves the stored resume as an inline PDF. The filename path
// segment is cosmetic and ignored for lookup.
// @Summary Get resume
// @Produce application/pdf
// @Failure 404 {string} string
// @Router /applicants/{id}/resume/{filename} [get]
func (a *API) GetResume(w http.ResponseWriter, r *http.Request) {
	app, ok := a.fetchApplicant(w, r)
	if !ok {
		return
	}
	if len(app.Attributes.Resume) == 0 {
		http.Error(w, "no resume stored", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline")
	w.Write(app.Attributes.Resume)
}

func applicantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid applicant id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (a *API) fetchApplicant(w http.ResponseWriter, r *http.Request) (*storage.Applicant, bool) {
	id, ok := applicantID(w, r)
	if !ok {
		return nil, false
	}
	app, err := a.store.GetApplicant(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "applicant not found", http.StatusNotFound)
		} else {
			http.Error(w, "get applicant error", http.StatusInternalServerError)
		}
		return nil, false
	}
	return app, true
}

func (a *API) updateAttributes(w http.ResponseWriter, r *http.Request, id int64, attrs storage.Attributes) error {
	err := a.store.UpdateAttributes(r.Context(), id, attrs)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "applicant not found", http.StatusNotFound)
		} else {
			http.Error(w, "update applicant error", http.StatusInternalServerError)
		}
	}
	return err
}

// readBodyString accepts either a JSON string or raw text as the request
// body, so `"scheduled"` and `scheduled` both work.
func readBodyString(r *http.Request) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return "", err
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, nil
	}
	return strings.TrimSpace(string(raw)), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
