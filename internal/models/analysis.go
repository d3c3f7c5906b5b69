// internal/models/analysis.go
package models

// ThemeReport groups everything derived for a single theme.
type ThemeReport struct {
	Stats          ThemeStats        `json:"stats"`
	Insights       []Insight         `json:"insights"`
	Confidence     ConfidenceSummary `json:"confidence"`
	ConfidenceTier ConfidenceTier    `json:"confidenceTier"`
	Degraded       bool              `json:"degraded"`
}

// AnalysisResult is the full object graph handed to reporting consumers.
type AnalysisResult struct {
	SurveyID        string             `json:"surveyId"`
	Confidence      ConfidenceSummary  `json:"confidence"`
	Themes          []ThemeReport      `json:"themes"`
	RootCauses      []RootCause        `json:"rootCauses"`
	Interventions   []Intervention     `json:"interventions"`
	Predictions     []ImpactPrediction `json:"predictions"`
	RejectedRecords int                `json:"rejectedRecords"`
}

// CriticalThemes returns the theme ids whose health status is critical.
func (r *AnalysisResult) CriticalThemes() []string {
	var out []string
	for _, t := range r.Themes {
		if t.Stats.HealthStatus == HealthCritical {
			out = append(out, t.Stats.ThemeID)
		}
	}
	return out
}
