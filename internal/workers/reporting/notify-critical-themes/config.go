// internal/workers/reporting/notify-critical-themes/config.go
package notifycriticalthemes

import (
	"time"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
)

type Config struct {
	Enabled  bool
	TopicARN string
	Email    EmailConfig
	Timeout  time.Duration
}

type EmailConfig struct {
	Enabled bool
	From    string
	To      []string
}

func LoadConfig(cfg *config.Config) *Config {
	n := cfg.Notifications
	to := make([]string, 0, len(n.SES.To))
	for _, addr := range n.SES.To {
		if addr != "" {
			to = append(to, addr)
		}
	}
	return &Config{
		Enabled:  n.SNS.Enabled,
		TopicARN: n.SNS.TopicARN,
		Email: EmailConfig{
			Enabled: n.SES.Enabled && n.SES.From != "" && len(to) > 0,
			From:    n.SES.From,
			To:      to,
		},
		Timeout: 10 * time.Second,
	}
}
