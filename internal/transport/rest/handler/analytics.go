package handler

import (
	"context"
	"datalingua/internal/model"
	"datalingua/internal/service"
	"datalingua/internal/transport/rest/middleware"
	"net/http"

	"github.com/gorilla/mux"
)

// Analyzer is the analytics API used by AnalyticsHandler
type Analyzer interface {
	Dashboard(ctx context.Context, actor service.Actor, surveyID string) (*model.SurveyAnalytics, error)
	Filter(ctx context.Context, actor service.Actor, surveyID, expression string) (*model.FilterResult, error)
}

// AnalyticsHandler handles dashboard endpoints
type AnalyticsHandler struct {
	analyticsSvc Analyzer
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsSvc Analyzer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// Dashboard handles GET /v1/surveys/{id}/analytics
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.analyticsSvc.Dashboard(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

// Filter handles POST /v1/surveys/{id}/responses/filter
func (h *AnalyticsHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var req model.FilterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.analyticsSvc.Filter(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"], req.Expression)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
