// internal/workers/data-access/load-survey-batch/config.go
package loadsurveybatch

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
