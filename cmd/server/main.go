package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/analytics"
	"github.com/pitchside/cricket-insights/internal/api/handlers"
	"github.com/pitchside/cricket-insights/internal/config"
	"github.com/pitchside/cricket-insights/internal/dataset"
	"github.com/pitchside/cricket-insights/internal/insights"
	"github.com/pitchside/cricket-insights/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger("info", cfg.IsDevelopment())
	logger.WithService(cfg.ServiceName).WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
		"dataset":     cfg.DatasetPath,
	}).Info("Starting cricket insights service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load the dataset up front; a service without data has nothing to
	// serve.
	store, err := dataset.NewStore(cfg.DatasetPath, cfg.MaxInvalidFraction, structuredLogger)
	if err != nil {
		logger.WithService(cfg.ServiceName).Fatalf("Failed to load dataset: %v", err)
	}

	// The Redis response store is optional. Without it the in-process
	// cache still covers the full dataset lifetime.
	var redisClient *redis.Client
	var responseStore insights.ResponseStore
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithService(cfg.ServiceName).Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.WithService(cfg.ServiceName).Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		responseStore = insights.NewRedisResponseStore(redisClient, cfg.AICacheTTL, structuredLogger)
	}

	analyzer := analytics.NewSWOTAnalyzer(cfg.SWOTMinEntities, cfg.SWOTDispersionThreshold, structuredLogger)
	promptBuilder := insights.NewPromptBuilder(structuredLogger)
	geminiClient := insights.NewGeminiClient(cfg, structuredLogger)
	rateLimiter := insights.NewRateLimiter(cfg.AIRateLimit, cfg.AIRateWindow)
	responseCache := insights.NewResponseCache(responseStore, cfg.AIRequestTimeout*2, structuredLogger)
	insightService := insights.NewService(store, promptBuilder, geminiClient, rateLimiter, responseCache, structuredLogger)

	// Cached insights are keyed on the dataset fingerprint, so a reload
	// invalidates them wholesale.
	store.OnReload(func(*dataset.Dataset) {
		responseCache.Flush(context.Background())
	})

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	analyticsHandler := handlers.NewAnalyticsHandler(store, analyzer, cfg, structuredLogger)
	insightHandler := handlers.NewInsightHandler(store, analyzer, insightService, cfg, structuredLogger)
	datasetHandler := handlers.NewDatasetHandler(store, structuredLogger)
	healthHandler := handlers.NewHealthHandler(store, insightService, responseStore, cfg.ServiceName, structuredLogger)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/records/filter", analyticsHandler.FilterRecords)
		apiV1.POST("/metrics/aggregate", analyticsHandler.AggregateMetrics)
		apiV1.POST("/swot/derive", analyticsHandler.DeriveSWOT)
		apiV1.GET("/swot/notes", analyticsHandler.ListSWOTNotes)
		apiV1.GET("/teams", analyticsHandler.ListTeams)
		apiV1.POST("/teams/overview", analyticsHandler.TeamOverview)

		apiV1.POST("/insights", insightHandler.GenerateInsight)

		apiV1.GET("/dataset", datasetHandler.GetSnapshot)
		apiV1.POST("/dataset/reload", datasetHandler.Reload)
	}

	router.GET("/health", healthHandler.GetHealth)
	router.HEAD("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)
	router.HEAD("/ready", healthHandler.GetReady)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.WithService(cfg.ServiceName).WithField("port", cfg.Port).Info("Cricket insights service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithService(cfg.ServiceName).Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.WithService(cfg.ServiceName).Info("Shutting down cricket insights service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithService(cfg.ServiceName).Fatalf("Cricket insights service forced to shutdown: %v", err)
	}

	logger.WithService(cfg.ServiceName).Info("Cricket insights service exited")
}
