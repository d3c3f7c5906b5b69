// internal/workers/health-analysis/evaluate-confidence/models.go
package evaluateconfidence

import "github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

type Input struct {
	Profiles []models.ConfidenceProfile `json:"profiles"`
}

type Output struct {
	Summary  models.ConfidenceSummary   `json:"confidenceSummary"`
	Sessions []models.SessionConfidence `json:"sessions"`
}
