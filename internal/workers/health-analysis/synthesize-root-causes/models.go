// internal/workers/health-analysis/synthesize-root-causes/models.go
package synthesizerootcauses

import "github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

// ThemeFindings is what the synthesizer needs from one theme.
type ThemeFindings struct {
	Stats    models.ThemeStats `json:"stats"`
	Insights []models.Insight  `json:"insights"`
}

type Input struct {
	Themes []ThemeFindings `json:"themes"`
}

type Output struct {
	RootCauses []models.RootCause `json:"rootCauses"`
}
