package handlers

import (
  "errors"
  "net/http"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/workpulse/workpulse-backend/internal/modules/behavior"
  "github.com/workpulse/workpulse-backend/internal/modules/behavior/steps"
  "github.com/workpulse/workpulse-backend/internal/services"
)

type BehaviorHandler struct {
  svc services.BehaviorService
}

func NewBehaviorHandler(svc services.BehaviorService) *BehaviorHandler {
  return &BehaviorHandler{svc: svc}
}

// POST /api/users/:id/enrich
func (h *BehaviorHandler) Enrich(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
    return
  }

  created, updated, err := h.svc.EnrichUser(c.Request.Context(), userID)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    return
  }

  c.JSON(http.StatusOK, gin.H{"created": created, "updated": updated})
}

type trainRequest struct {
  Algorithm               string  `json:"algorithm"`
  NumClusters             int     `json:"n_clusters"`
  AutoOptimize            bool    `json:"auto_optimize"`
  IncludeEnrichedFeatures bool    `json:"include_enriched_features"`
  Eps                     float64 `json:"eps"`
  MinSamples              int     `json:"min_samples"`
}

// POST /api/users/:id/train
func (h *BehaviorHandler) Train(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
    return
  }

  var req trainRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }

  out, err := h.svc.TrainUser(c.Request.Context(), userID, behavior.TrainInput{
    Algorithm:               req.Algorithm,
    NumClusters:             req.NumClusters,
    AutoOptimize:            req.AutoOptimize,
    IncludeEnrichedFeatures: req.IncludeEnrichedFeatures,
    Eps:                     req.Eps,
    MinSamples:              req.MinSamples,
  })
  if err != nil {
    var preErr *steps.PreprocessingError
    var algErr *steps.AlgorithmError
    switch {
    case errors.Is(err, steps.ErrDataInsufficient), errors.As(err, &preErr), errors.As(err, &algErr):
      c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
    default:
      c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    }
    return
  }

  c.JSON(http.StatusOK, gin.H{"model": out.Model, "patterns": out.Patterns})
}

// GET /api/users/:id/patterns
func (h *BehaviorHandler) ListPatterns(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
    return
  }

  model, patterns, err := h.svc.ListPatterns(c.Request.Context(), userID)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    return
  }

  c.JSON(http.StatusOK, gin.H{"model": model, "patterns": patterns})
}

type detectRequest struct {
  Now           *time.Time `json:"now"`
  Threshold     float64    `json:"threshold"`
  WindowMinutes int        `json:"window_minutes"`
}

// POST /api/users/:id/anomalies/detect
func (h *BehaviorHandler) DetectAnomalies(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
    return
  }

  var req detectRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  now := time.Now().UTC()
  if req.Now != nil {
    now = req.Now.UTC()
  }

  anomalies, err := h.svc.DetectAnomalies(c.Request.Context(), userID, now, req.Threshold, req.WindowMinutes)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    return
  }

  c.JSON(http.StatusOK, gin.H{"anomalies": anomalies})
}

// GET /api/users/:id/anomalies
func (h *BehaviorHandler) ListAnomalies(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
    return
  }

  var since *time.Time
  if raw := c.Query("since"); raw != "" {
    t, err := time.Parse(time.RFC3339, raw)
    if err != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
      return
    }
    since = &t
  }

  anomalies, err := h.svc.ListAnomalies(c.Request.Context(), userID, since)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    return
  }

  c.JSON(http.StatusOK, gin.H{"anomalies": anomalies})
}

type anomalyStatusRequest struct {
  Status string `json:"status"`
}

// PATCH /api/anomalies/:id/status
func (h *BehaviorHandler) UpdateAnomalyStatus(c *gin.Context) {
  anomalyID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid anomaly id"})
    return
  }

  var req anomalyStatusRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }

  if err := h.svc.UpdateAnomalyStatus(c.Request.Context(), anomalyID, req.Status); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }

  c.Status(http.StatusNoContent)
}
