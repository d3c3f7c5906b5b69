// internal/workers/health-analysis/synthesize-root-causes/config.go
package synthesizerootcauses

import "time"

type Config struct {
	Timeout time.Duration
	Weights Weights
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		Weights: DefaultWeights(),
	}
}
