// internal/workers/reporting/publish-health-report/config.go
package publishhealthreport

import (
	"time"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
)

const defaultIndex = "org-health-reports"

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	index := cfg.Database.Elasticsearch.ReportIndex
	if index == "" {
		index = defaultIndex
	}
	return &Config{
		Index:   index,
		Timeout: 15 * time.Second,
	}
}
