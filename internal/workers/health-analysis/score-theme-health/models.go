// internal/workers/health-analysis/score-theme-health/models.go
package scorethemehealth

import "github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

type Input struct {
	ThemeID string    `json:"themeId"`
	Scores  []float64 `json:"scores"`
}

type Output struct {
	ThemeStats models.ThemeStats `json:"themeStats"`
}
