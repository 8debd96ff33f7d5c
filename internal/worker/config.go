// Package worker runs GrowNEX background jobs: low score alerts for analysis
// events and periodic rescoring of stored analyses.
package worker

import (
	"os"
	"strconv"
	"time"
)

// DefaultRescoreSchedule runs the rescoring job daily at 03:00.
const DefaultRescoreSchedule = "0 3 * * *"

// RescoreConfig holds configuration for the rescoring job.
type RescoreConfig struct {
	// Concurrency is the number of analyses rescored in parallel.
	// Default: 4
	Concurrency int

	// Timeout bounds the work on a single analysis.
	// Default: 10 seconds
	Timeout time.Duration
}

// DefaultRescoreConfig returns the default rescoring configuration.
func DefaultRescoreConfig() RescoreConfig {
	return RescoreConfig{
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Config is the worker process configuration.
type Config struct {
	Port             string
	ProjectID        string
	SubscriptionName string
	Schedule         string
	Rescore          RescoreConfig
}

// ConfigFromEnv reads the worker configuration from environment variables.
func ConfigFromEnv() Config {
	cfg := Config{
		Port:             getEnv("PORT", "8081"),
		ProjectID:        os.Getenv("PUBSUB_PROJECT_ID"),
		SubscriptionName: getEnv("PUBSUB_SUBSCRIPTION", "grownex-worker"),
		Schedule:         getEnv("RESCORE_SCHEDULE", DefaultRescoreSchedule),
		Rescore:          DefaultRescoreConfig(),
	}

	if v, err := strconv.Atoi(os.Getenv("RESCORE_CONCURRENCY")); err == nil && v > 0 {
		cfg.Rescore.Concurrency = v
	}
	if v, err := time.ParseDuration(os.Getenv("RESCORE_TIMEOUT")); err == nil && v > 0 {
		cfg.Rescore.Timeout = v
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
