// internal/models/prediction.go
package models

import "math"

// ImpactPrediction estimates post-intervention sentiment for a theme.
// Use NewImpactPrediction so Improvement stays derived.
type ImpactPrediction struct {
	ThemeID            string   `json:"themeId"`
	CurrentSentiment   float64  `json:"currentSentiment"`
	PredictedSentiment float64  `json:"predictedSentiment"`
	Improvement        float64  `json:"improvement"`
	Confidence         int      `json:"confidence"`
	InterventionIDs    []string `json:"interventionIds"`
}

func NewImpactPrediction(themeID string, current, predicted float64, confidence int, interventionIDs []string) ImpactPrediction {
	current = Round1(current)
	predicted = Round1(predicted)
	return ImpactPrediction{
		ThemeID:            themeID,
		CurrentSentiment:   current,
		PredictedSentiment: predicted,
		Improvement:        Round1(predicted - current),
		Confidence:         confidence,
		InterventionIDs:    interventionIDs,
	}
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
