// internal/models/root_cause.go
package models

type RootCause struct {
	ID                string   `json:"id"`
	ThemeID           string   `json:"themeId"`
	Cause             string   `json:"cause"`
	Frequency         int      `json:"frequency"`
	ImpactScore       float64  `json:"impactScore"`
	AffectedEmployees int      `json:"affectedEmployees"`
	Evidence          []string `json:"evidence"`
	SuggestedActions  []string `json:"suggestedActions,omitempty"`
	RelatedThemeIDs   []string `json:"relatedThemeIds,omitempty"`
}
