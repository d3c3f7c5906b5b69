// internal/workers/health-analysis/score-theme-health/scorer.go
package scorethemehealth

import (
	"math"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

const (
	// maxStdDev is the largest population stddev a [0,1] variable can have.
	maxStdDev = 0.5

	lowScoreBound  = 0.35
	highScoreBound = 0.65

	minPolarizationSample = 3
)

// Score computes the statistics of one theme. It never fails: an empty
// score list yields the neutral result (0, 0, 50, emerging).
func Score(themeID string, scores []float64) models.ThemeStats {
	clean := make([]float64, 0, len(scores))
	for _, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		clean = append(clean, clamp(s, 0, 1))
	}

	intensity := round4(Intensity(clean))
	direction := round4(Direction(clean))
	hi := HealthIndex(intensity, direction)

	return models.ThemeStats{
		ThemeID:       themeID,
		Intensity:     intensity,
		Direction:     direction,
		HealthIndex:   hi,
		HealthStatus:  StatusFor(hi),
		Polarization:  Polarize(clean),
		ResponseCount: len(clean),
	}
}

// Intensity is the population stddev normalised to [0,1]. Identical scores
// give exactly 0.
func Intensity(scores []float64) float64 {
	if len(scores) == 0 || allEqual(scores) {
		return 0
	}
	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, s := range scores {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(scores))

	return math.Min(math.Sqrt(variance)/maxStdDev, 1)
}

// Direction rescales each score to [-1,1] and averages.
func Direction(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += (s - 0.5) * 2
	}
	return clamp(sum/float64(len(scores)), -1, 1)
}

// HealthIndex = round(clamp(intensity*direction*50 + 50, 0, 100)).
func HealthIndex(intensity, direction float64) int {
	return int(math.Round(clamp(intensity*direction*50+50, 0, 100)))
}

// StatusFor buckets a health index.
func StatusFor(healthIndex int) models.HealthStatus {
	switch {
	case healthIndex >= 85:
		return models.HealthThriving
	case healthIndex >= 70:
		return models.HealthStable
	case healthIndex >= 50:
		return models.HealthEmerging
	case healthIndex >= 30:
		return models.HealthFriction
	default:
		return models.HealthCritical
	}
}

// Polarize detects split opinion: many low and many high scores with few in
// the middle.
func Polarize(scores []float64) models.Polarization {
	n := len(scores)
	if n < minPolarizationSample {
		return models.Polarization{Level: models.PolarizationLow, Score: 0}
	}

	low, high := 0, 0
	for _, s := range scores {
		switch {
		case s < lowScoreBound:
			low++
		case s > highScoreBound:
			high++
		}
	}

	extremeRatio := float64(low+high) / float64(n)
	bimodal := float64(minInt(low, high)) / float64(n)
	score := round4(bimodal * 2 * extremeRatio)

	level := models.PolarizationLow
	switch {
	case score > 0.4:
		level = models.PolarizationHigh
	case score > 0.2:
		level = models.PolarizationMedium
	}
	return models.Polarization{Level: level, Score: score}
}

func allEqual(scores []float64) bool {
	for _, s := range scores[1:] {
		if s != scores[0] {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
