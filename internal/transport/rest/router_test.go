package rest

import (
	"context"
	"datalingua/internal/config"
	"datalingua/internal/model"
	"datalingua/internal/service"
	"datalingua/internal/transport/rest/handler"
	"datalingua/internal/transport/ws"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

type stubAccounts struct {
	handler.Authenticator
}

func (stubAccounts) ValidateToken(ctx context.Context, token string) (*model.Claims, error) {
	switch token {
	case "admin-token":
		return &model.Claims{AccountID: "admin", Role: model.RoleAdmin}, nil
	case "researcher-token":
		return &model.Claims{AccountID: "user-1", Role: model.RoleResearcher}, nil
	}
	return nil, service.ErrInvalidToken
}

type stubSurveys struct {
	handler.SurveyStore
}

func (stubSurveys) ListMine(ctx context.Context, actor service.Actor) ([]*model.Survey, error) {
	return []*model.Survey{}, nil
}

func (stubSurveys) ListPublic(ctx context.Context, search string, limit int64) ([]model.SurveySummary, error) {
	return []model.SurveySummary{}, nil
}

type stubUsers struct {
	handler.Moderator
}

func (stubUsers) List(ctx context.Context, status model.UserStatus) ([]*model.User, error) {
	return []*model.User{}, nil
}

func newTestRouter(t *testing.T, uploads string) http.Handler {
	hub := ws.NewHub()
	t.Cleanup(hub.Close)
	return NewRouter(&Container{
		HTTP:          config.Default().HTTP,
		AuthService:   stubAccounts{},
		SurveyService: stubSurveys{},
		UserService:   stubUsers{},
		WSHub:         hub,
		UploadsDir:    uploads,
	})
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"public listing needs no token", http.MethodGet, "/v1/surveys/public", "", http.StatusOK},
		{"own surveys need a token", http.MethodGet, "/v1/surveys", "", http.StatusUnauthorized},
		{"own surveys", http.MethodGet, "/v1/surveys", "researcher-token", http.StatusOK},
		{"admin only", http.MethodGet, "/v1/admin/users", "researcher-token", http.StatusForbidden},
		{"admin users", http.MethodGet, "/v1/admin/users", "admin-token", http.StatusOK},
		{"preflight skips auth", http.MethodOptions, "/v1/surveys", "", http.StatusOK},
		{"uploads disabled", http.MethodGet, "/uploads/audio/a.webm", "", http.StatusNotFound},
		{"unknown", http.MethodGet, "/v1/rooms", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.status)
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	router := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/auth/login", nil))

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestServesLocalUploads(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "audio"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "audio", "a.webm"), []byte("webm"), 0o644); err != nil {
		t.Fatal(err)
	}
	router := newTestRouter(t, dir)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/audio/a.webm", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "webm" {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestDashboardSocketNeedsToken(t *testing.T) {
	router := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ws/surveys/s1/dashboard", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}
