// Package app connects the stores and wires services into the HTTP router.
package app

import (
	"context"
	"datalingua/internal/cache"
	"datalingua/internal/config"
	"datalingua/internal/events"
	"datalingua/internal/logger"
	"datalingua/internal/repository"
	"datalingua/internal/service"
	"datalingua/internal/storage"
	"datalingua/internal/transport/rest"
	"datalingua/internal/transport/ws"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// uploads per submission the body limit leaves room for
const uploadsPerSubmission = 4

type App struct {
	Config    config.Config
	Mongo     *mongo.Client
	Redis     *redis.Client
	Hub       *ws.Hub
	Sessions  *service.SessionService
	Publisher events.Publisher
	Router    http.Handler
}

// New connects MongoDB, Redis, the upload store and the event broker, then builds the router
func New(ctx context.Context, cfg config.Config) (*App, error) {
	mongoClient, err := ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	db := mongoClient.Database(cfg.Mongo.Database)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	logger.Info("Connected to Redis")

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		rdb.Close()
		mongoClient.Disconnect(ctx)
		return nil, err
	}

	publisher, err := events.NewEventPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		rdb.Close()
		mongoClient.Disconnect(ctx)
		return nil, err
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()

	// Initialize repositories
	surveyRepo := repository.NewSurveyRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	userRepo := repository.NewUserRepo(db)

	// Initialize caches
	fillCache := cache.NewFillCache(rdb)
	analyticsCache := cache.NewAnalyticsCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg.Auth, userRepo, service.LogMailer{})
	surveySvc := service.NewSurveyService(surveyRepo, responseRepo, sessionRepo)
	sessionSvc := service.NewSessionService(sessionRepo, surveyRepo)
	analyticsSvc := service.NewAnalyticsService(surveyRepo, responseRepo, analyticsCache)
	userSvc := service.NewUserService(userRepo)
	limits := storage.LimitsFrom(cfg.Storage)
	fillSvc := service.NewFillService(surveyRepo, responseRepo, fillCache, analyticsCache, store, limits, sessionSvc, publisher)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	fillSvc.SetBroadcaster(wsHub)

	container := &rest.Container{
		HTTP:             cfg.HTTP,
		AuthService:      authSvc,
		SurveyService:    surveySvc,
		FillService:      fillSvc,
		SessionService:   sessionSvc,
		AnalyticsService: analyticsSvc,
		UserService:      userSvc,
		WSHub:            wsHub,
		MaxSubmitBytes:   SubmitBodyLimit(limits),
	}
	if local, ok := store.(*storage.LocalStore); ok {
		container.UploadsDir = local.Root()
	}

	return &App{
		Config:    cfg,
		Mongo:     mongoClient,
		Redis:     rdb,
		Hub:       wsHub,
		Sessions:  sessionSvc,
		Publisher: publisher,
		Router:    rest.NewRouter(container),
	}, nil
}

// ConnectMongo connects and pings MongoDB
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("Connected to MongoDB")
	return client, nil
}

// SubmitBodyLimit bounds a multipart submission. Zero means unlimited.
func SubmitBodyLimit(l storage.Limits) int64 {
	if l.MaxAudioBytes <= 0 || l.MaxFileBytes <= 0 {
		return 0
	}
	return uploadsPerSubmission*(l.MaxAudioBytes+l.MaxFileBytes) + 1<<20
}

// Close drains queued telemetry, then releases every connection
func (a *App) Close(ctx context.Context) {
	a.Hub.Close()
	a.Sessions.Close()
	if err := a.Publisher.Close(); err != nil {
		logger.WithError(err).Warn("failed to close event publisher")
	}
	if err := a.Redis.Close(); err != nil {
		logger.WithError(err).Warn("failed to close Redis client")
	}
	if err := a.Mongo.Disconnect(ctx); err != nil {
		logger.WithError(err).Warn("failed to disconnect MongoDB")
	}
}
