package handler

import (
	"context"
	"datalingua/internal/model"
	"datalingua/internal/service"
	"datalingua/internal/transport/rest/middleware"
	"net/http"

	"github.com/gorilla/mux"
)

// SessionTracker is the telemetry API used by SessionHandler
type SessionTracker interface {
	Track(ctx context.Context, rec *model.StepRecord) error
	Stats(ctx context.Context, actor service.Actor, surveyID string) (*model.SessionStats, error)
}

// SessionHandler handles fill-in telemetry endpoints
type SessionHandler struct {
	sessionSvc SessionTracker
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc SessionTracker) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Track handles POST /v1/survey-session
func (h *SessionHandler) Track(w http.ResponseWriter, r *http.Request) {
	var rec model.StepRecord
	if err := decode(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if rec.BrowserInfo == "" {
		rec.BrowserInfo = r.UserAgent()
	}

	if err := h.sessionSvc.Track(r.Context(), &rec); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "step recorded"})
}

// Stats handles GET /v1/surveys/{id}/sessions/stats
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sessionSvc.Stats(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
