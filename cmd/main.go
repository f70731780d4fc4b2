package main

import (
  "context"
  "fmt"
  "os"
  "github.com/workpulse/workpulse-backend/internal/app"
  "github.com/workpulse/workpulse-backend/internal/db"
  "github.com/workpulse/workpulse-backend/internal/handlers"
  "github.com/workpulse/workpulse-backend/internal/logger"
  "github.com/workpulse/workpulse-backend/internal/modules/behavior"
  "github.com/workpulse/workpulse-backend/internal/modules/behavior/steps"
  "github.com/workpulse/workpulse-backend/internal/observability"
  "github.com/workpulse/workpulse-backend/internal/repos"
  "github.com/workpulse/workpulse-backend/internal/server"
  "github.com/workpulse/workpulse-backend/internal/services"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Config
  log.Info("Loading configuration from main...")
  cfg := app.LoadConfig(log)

  // Tracing
  ctx := context.Background()
  shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
    ServiceName: "workpulse-backend",
    Environment: os.Getenv("ENVIRONMENT"),
    Version:     os.Getenv("VERSION"),
  })
  if shutdownOtel != nil {
    defer func() { _ = shutdownOtel(ctx) }()
  }

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  activityRepo := repos.NewActivityRepo(thePG, log)
  featureRepo := repos.NewEnrichedFeatureRepo(thePG, log)
  modelRepo := repos.NewBehavioralModelRepo(thePG, log)
  patternRepo := repos.NewBehavioralPatternRepo(thePG, log)
  anomalyRepo := repos.NewDetectedAnomalyRepo(thePG, log)

  // Engine
  log.Info("Setting up behavior engine from main...")
  rules := steps.LoadRuleSet(cfg.CategoryRulesPath, log)
  engine := behavior.New(behavior.UsecasesDeps{
    DB:            thePG,
    Log:           log,
    Rules:         rules,
    Activities:    activityRepo,
    Features:      featureRepo,
    Models:        modelRepo,
    Patterns:      patternRepo,
    Anomalies:     anomalyRepo,
    OptimizerMinK: cfg.OptimizerMinK,
    OptimizerMaxK: cfg.OptimizerMaxK,

    AnomalyThreshold:     cfg.AnomalyThreshold,
    AnomalyWindowMinutes: cfg.AnomalyWindowMinutes,
  })

  // Services
  log.Info("Setting up Services from main...")
  behaviorService := services.NewBehaviorService(log, engine, modelRepo, patternRepo, anomalyRepo)

  // Handlers
  behaviorHandler := handlers.NewBehaviorHandler(behaviorService)

  // Router
  router := server.NewRouter(server.RouterConfig{
    BehaviorHandler: behaviorHandler,
    EnableTracing:   observability.Enabled(),
  })

  log.Info("Starting HTTP server", "port", cfg.HTTPPort)
  if err := router.Run(":" + cfg.HTTPPort); err != nil {
    log.Fatal("HTTP server exited", "error", err)
  }
}
