// internal/workers/health-analysis/score-theme-health/config.go
package scorethemehealth

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
