package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
  "github.com/workpulse/workpulse-backend/internal/handlers"
)

type RouterConfig struct {
  BehaviorHandler *handlers.BehaviorHandler
  EnableTracing   bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  if cfg.EnableTracing {
    router.Use(otelgin.Middleware("workpulse-backend"))
  }

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  api := router.Group("/api")
  {
    api.POST("/users/:id/enrich", cfg.BehaviorHandler.Enrich)
    api.POST("/users/:id/train", cfg.BehaviorHandler.Train)
    api.GET("/users/:id/patterns", cfg.BehaviorHandler.ListPatterns)
    api.POST("/users/:id/anomalies/detect", cfg.BehaviorHandler.DetectAnomalies)
    api.GET("/users/:id/anomalies", cfg.BehaviorHandler.ListAnomalies)
    api.PATCH("/anomalies/:id/status", cfg.BehaviorHandler.UpdateAnomalyStatus)
  }

  return router
}
