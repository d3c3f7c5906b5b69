// internal/workers/health-analysis/evaluate-confidence/config.go
package evaluateconfidence

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
