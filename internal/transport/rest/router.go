package rest

import (
	"datalingua/internal/config"
	"datalingua/internal/metrics"
	"datalingua/internal/transport/rest/handler"
	"datalingua/internal/transport/rest/middleware"
	"datalingua/internal/transport/ws"
	"net/http"

	"github.com/gorilla/mux"
)

// Accounts authenticates requests and serves the auth endpoints
type Accounts interface {
	handler.Authenticator
	middleware.TokenValidator
}

// Container holds all dependencies for the router
type Container struct {
	HTTP             config.HTTPConfig
	AuthService      Accounts
	SurveyService    handler.SurveyStore
	FillService      handler.FillFlow
	SessionService   handler.SessionTracker
	AnalyticsService handler.Analyzer
	UserService      handler.Moderator
	WSHub            *ws.Hub
	// UploadsDir is served under /uploads/ when attachments are stored locally
	UploadsDir     string
	MaxSubmitBytes int64
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	fillHandler := handler.NewFillHandler(c.FillService, c.MaxSubmitBytes)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	analyticsHandler := handler.NewAnalyticsHandler(c.AnalyticsService)
	adminHandler := handler.NewAdminHandler(c.UserService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SurveyService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS first so preflights never reach auth
	r.Use(middleware.CORS(c.HTTP))
	r.Use(middleware.RequestLogger)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	if c.UploadsDir != "" {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(c.UploadsDir)))).Methods("GET")
	}

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/verify-email", authHandler.VerifyEmail).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/user-login", authHandler.UserLogin).Methods("POST", "OPTIONS")

	v1.HandleFunc("/surveys/public", surveyHandler.ListPublic).Methods("GET", "OPTIONS")
	v1.HandleFunc("/surveys/shareable/{shareableId}", surveyHandler.GetByShareable).Methods("GET", "OPTIONS")
	v1.HandleFunc("/check-respondent", fillHandler.CheckRespondent).Methods("POST", "OPTIONS")
	v1.HandleFunc("/survey-session", sessionHandler.Track).Methods("POST", "OPTIONS")

	// Respondent fill-in flow
	v1.HandleFunc("/fill/{shareableId}/sessions", fillHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/fill/{shareableId}/sessions/{respondentId}", fillHandler.State).Methods("GET", "OPTIONS")
	v1.HandleFunc("/fill/{shareableId}/sessions/{respondentId}", fillHandler.Answer).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/fill/{shareableId}/sessions/{respondentId}/next", fillHandler.Next).Methods("POST", "OPTIONS")
	v1.HandleFunc("/fill/{shareableId}/sessions/{respondentId}/previous", fillHandler.Previous).Methods("POST", "OPTIONS")
	v1.HandleFunc("/fill/{shareableId}/sessions/{respondentId}/abandon", fillHandler.Abandon).Methods("POST", "OPTIONS")
	v1.HandleFunc("/fill/{shareableId}/sessions/{respondentId}/submit", fillHandler.Submit).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/surveys/{id}/dashboard", wsHandler.DashboardWS).Methods("GET")

	// Author routes (admin or approved researcher)
	authorRoutes := v1.NewRoute().Subrouter()
	authorRoutes.Use(authMW.RequireAuth)

	authorRoutes.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	authorRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/surveys/{id}", surveyHandler.Get).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/surveys/{id}", surveyHandler.Update).Methods("PUT", "OPTIONS")
	authorRoutes.HandleFunc("/surveys/{id}", surveyHandler.Delete).Methods("DELETE", "OPTIONS")
	authorRoutes.HandleFunc("/surveys/{id}/responses", surveyHandler.Responses).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/surveys/{id}/responses/filter", analyticsHandler.Filter).Methods("POST", "OPTIONS")
	authorRoutes.HandleFunc("/surveys/{id}/analytics", analyticsHandler.Dashboard).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/surveys/{id}/sessions/stats", sessionHandler.Stats).Methods("GET", "OPTIONS")

	// Admin routes
	adminRoutes := v1.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/users", adminHandler.ListUsers).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/users/{id}/approve", adminHandler.Approve).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/users/{id}/ban", adminHandler.Ban).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/users/{id}/unban", adminHandler.Unban).Methods("POST", "OPTIONS")

	return r
}
