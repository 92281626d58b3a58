package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/auth"
	"github.com/zamcrop/irrigation-engine/pkg/config"
	"github.com/zamcrop/irrigation-engine/pkg/database"
	"github.com/zamcrop/irrigation-engine/pkg/handlers"
	"github.com/zamcrop/irrigation-engine/pkg/middleware"
	"github.com/zamcrop/irrigation-engine/pkg/ml"
	"github.com/zamcrop/irrigation-engine/pkg/models"
	"github.com/zamcrop/irrigation-engine/pkg/repositories"
	"github.com/zamcrop/irrigation-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)))

	ctx := context.Background()

	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// A missing or malformed model artifact is fatal. Serving predictions
	// from a fabricated default is worse than not serving at all.
	forest, err := ml.Load(cfg.Model.ArtifactPath)
	if err != nil {
		logger.Fatal("Failed to load prediction model",
			zap.String("path", cfg.Model.ArtifactPath), zap.Error(err))
	}
	logger.Info("Prediction model loaded",
		zap.String("version", forest.Version()),
		zap.String("path", cfg.Model.ArtifactPath))

	fieldRepo := repositories.NewFieldSnapshotRepository(db)
	scheduleRepo := repositories.NewScheduleRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)

	weatherFallback := models.WeatherReading{
		TemperatureC: cfg.Weather.DefaultTemperatureC,
		HumidityPct:  cfg.Weather.DefaultHumidityPct,
		RainfallMM:   cfg.Weather.DefaultRainfallMM,
		WindSpeedKMH: cfg.Weather.DefaultWindSpeedKMH,
	}
	weatherProvider := services.FixedWeatherProvider{Reading: weatherFallback}

	predictionService := services.NewPredictionService(
		fieldRepo, weatherProvider, weatherFallback, forest,
		cfg.Engine.PredictConcurrency, logger)
	scheduleService := services.NewScheduleService(
		scheduleRepo, predictionService, cfg.Engine.PlanningLeadDays, logger)
	historyService := services.NewHistoryService(historyRepo, fieldRepo, cfg.Engine.DefaultWindowDays, logger)
	analyticsService := services.NewAnalyticsService(historyRepo, fieldRepo, cfg.Engine.DefaultWindowDays, logger)

	authMiddleware := auth.NewMiddleware(cfg.Auth.JWTSecret, cfg.Auth.EnableVerification, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, forest.Version(), logger).RegisterRoutes(mux)
	handlers.NewPredictionsHandler(predictionService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSchedulesHandler(scheduleService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewHistoryHandler(historyService, cfg.Engine.DefaultWindowDays, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAnalyticsHandler(analyticsService, cfg.Engine.DefaultWindowDays, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewFieldsHandler(fieldRepo, logger).RegisterRoutes(mux, authMiddleware)

	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting irrigation-engine",
		zap.String("addr", server.Addr), zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
