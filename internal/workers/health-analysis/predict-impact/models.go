// internal/workers/health-analysis/predict-impact/models.go
package predictimpact

import "github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

type Input struct {
	Themes        []models.ThemeStats                 `json:"themes"`
	Interventions []models.Intervention               `json:"interventions"`
	RootCauses    []models.RootCause                  `json:"rootCauses"`
	Confidence    map[string]models.ConfidenceSummary `json:"confidence"`
}

type Output struct {
	Predictions []models.ImpactPrediction `json:"predictions"`
}
