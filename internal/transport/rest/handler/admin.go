package handler

import (
	"context"
	"datalingua/internal/model"
	"datalingua/internal/service"
	"datalingua/internal/transport/rest/middleware"
	"net/http"

	"github.com/gorilla/mux"
)

// Moderator is the user moderation API used by AdminHandler
type Moderator interface {
	List(ctx context.Context, status model.UserStatus) ([]*model.User, error)
	Approve(ctx context.Context, admin service.Actor, id string) (*model.User, error)
	Ban(ctx context.Context, admin service.Actor, id string, req model.BanRequest) (*model.User, error)
	Unban(ctx context.Context, admin service.Actor, id string) (*model.User, error)
}

// AdminHandler handles researcher moderation endpoints
type AdminHandler struct {
	userSvc Moderator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(userSvc Moderator) *AdminHandler {
	return &AdminHandler{userSvc: userSvc}
}

// ListUsers handles GET /v1/admin/users?status=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.List(r.Context(), model.UserStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// Approve handles POST /v1/admin/users/{id}/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	user, err := h.userSvc.Approve(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Ban handles POST /v1/admin/users/{id}/ban
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	var req model.BanRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userSvc.Ban(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Unban handles POST /v1/admin/users/{id}/unban
func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	user, err := h.userSvc.Unban(r.Context(), middleware.GetActor(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
