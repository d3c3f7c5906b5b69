// internal/workers/health-analysis/predict-impact/config.go
package predictimpact

import "time"

type Config struct {
	Timeout time.Duration
	Decay   float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		Decay:   DefaultDecay,
	}
}
