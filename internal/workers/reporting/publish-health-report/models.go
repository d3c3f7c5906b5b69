// internal/workers/reporting/publish-health-report/models.go
package publishhealthreport

import "github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

type Input struct {
	Analysis models.AnalysisResult `json:"analysis"`
}

type Output struct {
	Index      string `json:"reportIndex"`
	DocumentID string `json:"reportDocumentId"`
	Result     string `json:"reportResult"`
}

// ReportDocument is the indexed shape: summary fields for dashboard
// filtering plus the full analysis graph.
type ReportDocument struct {
	SurveyID       string                `json:"surveyId"`
	ConfidenceTier models.ConfidenceTier `json:"confidenceTier"`
	ThemeCount     int                   `json:"themeCount"`
	DegradedThemes []string              `json:"degradedThemes"`
	CriticalThemes []string              `json:"criticalThemes"`
	QuickWins      int                   `json:"quickWins"`
	Analysis       models.AnalysisResult `json:"analysis"`
}
