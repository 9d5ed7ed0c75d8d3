// internal/workers/notifications/dispatch-notification/config.go
package dispatchnotification

import "time"

type Config struct {
	Timeout       time.Duration
	MaxJobsActive int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		MaxJobsActive: 20,
	}
}
