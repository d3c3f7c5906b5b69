// internal/workers/health-analysis/aggregate-signals/models.go
package aggregatesignals

import "github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

type Input struct {
	ThemeID        string                   `json:"themeId"`
	Records        []models.FeedbackRecord  `json:"records"`
	Candidates     []models.CandidateSignal `json:"candidates"`
	ConfidenceTier models.ConfidenceTier    `json:"confidenceTier"`
	// Fallback forces counter-based insights, e.g. when extraction failed upstream.
	Fallback bool `json:"fallback"`
}

type Output struct {
	Insights []models.Insight `json:"insights"`
}
