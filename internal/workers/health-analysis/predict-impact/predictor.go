// internal/workers/health-analysis/predict-impact/predictor.go
package predictimpact

import (
	"math"
	"sort"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
	evaluateconfidence "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/evaluate-confidence"
)

// DefaultDecay is the fraction by which each further intervention's
// contribution shrinks.
const DefaultDecay = 0.5

const (
	maxCorroboration = 4
	maxDispersion    = 50.0
)

// Predict estimates the post-intervention sentiment of every theme that has
// at least one intervention. Results are ordered by theme id.
func Predict(themes []models.ThemeStats, interventions []models.Intervention, causes []models.RootCause, confidence map[string]models.ConfidenceSummary, decay float64) []models.ImpactPrediction {
	if decay <= 0 || decay > 1 {
		decay = DefaultDecay
	}

	impactByCause := make(map[string]float64, len(causes))
	for _, rc := range causes {
		impactByCause[rc.ID] = rc.ImpactScore
	}

	byTheme := make(map[string][]models.Intervention)
	for _, iv := range interventions {
		byTheme[iv.ThemeID] = append(byTheme[iv.ThemeID], iv)
	}

	sorted := make([]models.ThemeStats, len(themes))
	copy(sorted, themes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ThemeID < sorted[j].ThemeID })

	predictions := make([]models.ImpactPrediction, 0)
	for _, stats := range sorted {
		ivs := byTheme[stats.ThemeID]
		if len(ivs) == 0 {
			continue
		}

		current := stats.CurrentSentiment()
		predicted := clamp(current+Uplift(ivs, decay), 0, 100)

		ids := make([]string, 0, len(ivs))
		var scores []float64
		seen := make(map[string]bool)
		for _, iv := range ivs {
			ids = append(ids, iv.ID)
			for _, rcID := range iv.RootCauseIDs {
				if score, ok := impactByCause[rcID]; ok && !seen[rcID] {
					seen[rcID] = true
					scores = append(scores, score)
				}
			}
		}

		conf := Confidence(len(ivs), confidence[stats.ThemeID], stddev(scores))
		predictions = append(predictions, models.NewImpactPrediction(stats.ThemeID, current, predicted, conf, ids))
	}
	return predictions
}

// Uplift sums estimated impacts largest first, each further one attenuated
// by decay^i.
func Uplift(interventions []models.Intervention, decay float64) float64 {
	impacts := make([]float64, 0, len(interventions))
	for _, iv := range interventions {
		impacts = append(impacts, math.Max(iv.EstimatedImpact, 0))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(impacts)))

	total, weight := 0.0, 1.0
	for _, v := range impacts {
		total += v * weight
		weight *= decay
	}
	return total
}

// Confidence rates a prediction from corroborating interventions, the
// sample confidence of the theme and the dispersion of the impact scores of
// the root causes behind it. It never increases as sample confidence drops.
func Confidence(corroborating int, sample models.ConfidenceSummary, dispersion float64) int {
	tier := sample.Tier
	if tier == "" {
		tier = evaluateconfidence.TierFor(sample.AverageConfidenceScore)
	}
	sampleFactor := 0.5*clamp(sample.AverageConfidenceScore/100, 0, 1) + 0.5*evaluateconfidence.TierWeight(tier)

	corroboration := float64(minInt(corroborating, maxCorroboration)) / maxCorroboration
	tightness := 1 - math.Min(dispersion/maxDispersion, 1)

	score := 100 * sampleFactor * (0.5 + 0.3*corroboration + 0.2*tightness)
	return int(math.Round(clamp(score, 0, 100)))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
