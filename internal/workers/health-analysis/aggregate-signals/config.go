// internal/workers/health-analysis/aggregate-signals/config.go
package aggregatesignals

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
