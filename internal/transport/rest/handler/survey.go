package handler

import (
	"context"
	"datalingua/internal/model"
	"datalingua/internal/service"
	"datalingua/internal/transport/rest/middleware"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

const (
	defaultPublicLimit = 50
	maxPublicLimit     = 100
)

// SurveyStore is the survey API used by SurveyHandler
type SurveyStore interface {
	Create(ctx context.Context, actor service.Actor, survey *model.Survey) (*model.Survey, error)
	Get(ctx context.Context, actor service.Actor, id string) (*model.Survey, error)
	GetByShareable(ctx context.Context, shareableID string) (*model.Survey, error)
	ListMine(ctx context.Context, actor service.Actor) ([]*model.Survey, error)
	ListPublic(ctx context.Context, search string, limit int64) ([]model.SurveySummary, error)
	Update(ctx context.Context, actor service.Actor, id string, survey *model.Survey) (*model.Survey, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	Responses(ctx context.Context, actor service.Actor, id string) ([]*model.Response, error)
}

// SurveyHandler handles survey endpoints
type SurveyHandler struct {
	surveySvc SurveyStore
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc SurveyStore) *SurveyHandler {
	return &SurveyHandler{surveySvc: surveySvc}
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var survey model.Survey
	if err := decode(r, &survey); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.surveySvc.Create(r.Context(), middleware.GetActor(r.Context()), &survey)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveySvc.ListMine(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, surveys)
}

// Get handles GET /v1/surveys/{id}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveySvc.Get(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Update handles PUT /v1/surveys/{id}
func (h *SurveyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var survey model.Survey
	if err := decode(r, &survey); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.surveySvc.Update(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"], &survey)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /v1/surveys/{id}
func (h *SurveyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.surveySvc.Delete(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "survey deleted"})
}

// Responses handles GET /v1/surveys/{id}/responses
func (h *SurveyHandler) Responses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.surveySvc.Responses(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responses)
}

// ListPublic handles GET /v1/surveys/public?search=&limit=
func (h *SurveyHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultPublicLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxPublicLimit {
		limit = maxPublicLimit
	}

	surveys, err := h.surveySvc.ListPublic(r.Context(), r.URL.Query().Get("search"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, surveys)
}

// GetByShareable handles GET /v1/surveys/shareable/{shareableId}
func (h *SurveyHandler) GetByShareable(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveySvc.GetByShareable(r.Context(), mux.Vars(r)["shareableId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}
