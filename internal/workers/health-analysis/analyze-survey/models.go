// internal/workers/health-analysis/analyze-survey/models.go
package analyzesurvey

import (
	"encoding/json"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

// Input names a survey to load, or carries the batch inline.
type Input struct {
	SurveyID string          `json:"surveyId"`
	Batch    json.RawMessage `json:"batch,omitempty"`
}

type Output struct {
	Analysis       models.AnalysisResult `json:"analysis"`
	CriticalThemes []string              `json:"criticalThemes"`
	HasCritical    bool                  `json:"hasCriticalThemes"`
	Degraded       bool                  `json:"degraded"`
	Cached         bool                  `json:"cached"`
}
