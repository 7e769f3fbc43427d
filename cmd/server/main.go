package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kkkiio/coffee-clock/internal/analysis"
	"github.com/kkkiio/coffee-clock/internal/cache"
	"github.com/kkkiio/coffee-clock/internal/config"
	"github.com/kkkiio/coffee-clock/internal/database"
	"github.com/kkkiio/coffee-clock/internal/handlers"
	"github.com/kkkiio/coffee-clock/internal/middleware"
	"github.com/kkkiio/coffee-clock/internal/supabase"
	"github.com/kkkiio/coffee-clock/internal/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required; set it to your Supabase PostgreSQL connection string")
	}

	// Run migrations before anything touches the tables.
	migrator, err := database.NewMigrator(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to initialize migrator", zap.Error(err))
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		logger.Fatal("migration failed", zap.Error(err))
	}
	migrator.Close()
	logger.Info("migrations completed")

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database client", zap.Error(err))
	}
	defer dbClient.Close()

	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to initialize redis cache", zap.Error(err))
	}

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		logger.Fatal("failed to initialize supabase client", zap.Error(err))
	}
	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", zap.Error(err))
	}

	visionClient := vision.NewClient(cfg.GLMAPIBaseURL, cfg.GLMAPIKey, cfg.GLMModel)
	parser := analysis.NewParser(cfg.ModelWrapperTokens)
	worker := analysis.NewWorker(dbClient, redisCache, visionClient, parser, realtimeClient, cfg.AnalysisTimeout, logger)

	trigger := analysis.NewTriggerClient(cfg.WorkerURL, cfg.WorkerServiceKey)
	submitter := analysis.NewClient(dbClient, redisCache, trigger, storageClient, cfg.MaxImageBytes, logger)

	intakeHandler := handlers.NewIntakeHandler(dbClient)
	metabolismHandler := handlers.NewMetabolismHandler(dbClient)
	scanHandler := handlers.NewScanHandler(submitter, dbClient, redisCache, storageClient, cfg.PollInterval, cfg.PollMaxAttempts, logger)
	analyzeHandler := handlers.NewAnalyzeHandler(worker, logger)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Intake log
	api.POST("/intakes", intakeHandler.CreateIntake)
	api.GET("/intakes", intakeHandler.ListIntakes)
	api.GET("/intakes/summary", intakeHandler.GetDailySummary)
	api.DELETE("/intakes/:intake_id", intakeHandler.DeleteIntake)

	// Metabolism projections
	api.GET("/metabolism/residual", metabolismHandler.GetResidual)
	api.GET("/metabolism/forecast", metabolismHandler.GetForecast)

	// Photo scans
	api.POST("/scans", scanHandler.SubmitScan)
	api.GET("/scans/:job_id", scanHandler.GetScanStatus)
	api.GET("/scans/:job_id/wait", scanHandler.WaitScan)
	api.POST("/scans/:job_id/confirm", scanHandler.ConfirmScan)

	// Worker trigger (service key, not user JWTs)
	internalAPI := router.Group("/internal/v1")
	internalAPI.Use(middleware.ServiceKeyMiddleware(cfg))
	internalAPI.POST("/analyze", analyzeHandler.Analyze)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
