// internal/models/theme.go
package models

// HealthStatus buckets a Theme Health Index.
type HealthStatus string

const (
	HealthThriving HealthStatus = "thriving"
	HealthStable   HealthStatus = "stable"
	HealthEmerging HealthStatus = "emerging"
	HealthFriction HealthStatus = "friction"
	HealthCritical HealthStatus = "critical"
)

// PolarizationLevel classifies how split opinion is within a theme.
type PolarizationLevel string

const (
	PolarizationLow    PolarizationLevel = "low"
	PolarizationMedium PolarizationLevel = "medium"
	PolarizationHigh   PolarizationLevel = "high"
)

type Polarization struct {
	Level PolarizationLevel `json:"level"`
	Score float64           `json:"score"`
}

// ThemeStats holds the deterministic statistics of one theme.
type ThemeStats struct {
	ThemeID       string       `json:"themeId"`
	Intensity     float64      `json:"intensity"`
	Direction     float64      `json:"direction"`
	HealthIndex   int          `json:"healthIndex"`
	HealthStatus  HealthStatus `json:"healthStatus"`
	Polarization  Polarization `json:"polarization"`
	ResponseCount int          `json:"responseCount"`
}

// CurrentSentiment is the theme's mean sentiment on a 0-100 scale.
func (s ThemeStats) CurrentSentiment() float64 {
	return (s.Direction + 1) * 50
}
