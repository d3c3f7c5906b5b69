// internal/workers/health-analysis/rank-interventions/config.go
package rankinterventions

import "time"

type Config struct {
	Timeout  time.Duration
	Options  Options
	Playbook *Playbook
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		Options:  DefaultOptions(),
		Playbook: DefaultPlaybook(),
	}
}
