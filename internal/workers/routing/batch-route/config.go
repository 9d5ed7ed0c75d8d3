// internal/workers/routing/batch-route/config.go
package batchroute

import "time"

type Config struct {
	Timeout       time.Duration
	MaxJobsActive int
	Concurrency   int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       120 * time.Second,
		MaxJobsActive: 2,
		Concurrency:   4,
	}
}
