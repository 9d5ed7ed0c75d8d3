// internal/workers/rules/evaluate-rules/config.go
package evaluaterules

import "time"

type Config struct {
	Timeout       time.Duration
	MaxJobsActive int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       20 * time.Second,
		MaxJobsActive: 10,
	}
}
