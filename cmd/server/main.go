package main

import (
	"context"
	"datalingua/internal/app"
	"datalingua/internal/config"
	"datalingua/internal/logger"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		logger.Warnf("unknown log level %q, keeping info", cfg.Log.Level)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("startup failed: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Infof("Server starting on :%s", cfg.HTTP.Port)
		logger.Info("Endpoints:")
		logger.Info("  POST /v1/auth/login, /v1/auth/register, /v1/auth/user-login")
		logger.Info("  POST/GET /v1/surveys")
		logger.Info("  POST /v1/fill/{shareableId}/sessions")
		logger.Info("  GET  /v1/surveys/{id}/analytics")
		logger.Info("  WS   /v1/ws/surveys/{id}/dashboard")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("ListenAndServe: %v", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Shutdown())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	a.Close(shutdownCtx)

	logger.Info("Server exited")
}
