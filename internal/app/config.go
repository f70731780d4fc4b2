package app

import (
	"github.com/workpulse/workpulse-backend/internal/logger"
	"github.com/workpulse/workpulse-backend/internal/utils"
)

type Config struct {
	HTTPPort             string
	CategoryRulesPath    string
	AnomalyThreshold     float64
	AnomalyWindowMinutes int
	OptimizerMinK        int
	OptimizerMaxK        int
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPPort:             utils.GetEnv("HTTP_PORT", "8080", log),
		CategoryRulesPath:    utils.GetEnv("CATEGORY_RULES_PATH", "", log),
		AnomalyThreshold:     utils.GetEnvAsFloat("ANOMALY_THRESHOLD", 2.0, log),
		AnomalyWindowMinutes: utils.GetEnvAsInt("ANOMALY_WINDOW_MINUTES", 60, log),
		OptimizerMinK:        utils.GetEnvAsInt("OPTIMIZER_MIN_K", 2, log),
		OptimizerMaxK:        utils.GetEnvAsInt("OPTIMIZER_MAX_K", 10, log),
	}
}
