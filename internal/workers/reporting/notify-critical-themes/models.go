// internal/workers/reporting/notify-critical-themes/models.go
package notifycriticalthemes

import "github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

type Input struct {
	Analysis models.AnalysisResult `json:"analysis"`
}

type Output struct {
	Notified       bool     `json:"notified"`
	MessageID      string   `json:"messageId,omitempty"`
	EmailID        string   `json:"emailMessageId,omitempty"`
	CriticalThemes []string `json:"criticalThemes"`
}

// Alert is the SNS message body.
type Alert struct {
	SurveyID              string              `json:"surveyId"`
	Confidence            string              `json:"confidenceTier"`
	CriticalThemes        []AlertTheme        `json:"criticalThemes"`
	CriticalInterventions []AlertIntervention `json:"criticalInterventions"`
}

type AlertTheme struct {
	ThemeID     string `json:"themeId"`
	HealthIndex int    `json:"healthIndex"`
	Responses   int    `json:"responseCount"`
	Degraded    bool   `json:"degraded"`
}

type AlertIntervention struct {
	ThemeID  string `json:"themeId"`
	Title    string `json:"title"`
	QuickWin bool   `json:"quickWin"`
}
