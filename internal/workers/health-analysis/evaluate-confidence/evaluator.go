// internal/workers/health-analysis/evaluate-confidence/evaluator.go
package evaluateconfidence

import (
	"math"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

// Session weights, summing to 100.
const (
	weightEngagement = 30
	weightDepth      = 30
	weightCompletion = 25
	weightMood       = 15

	minExchanges = 8
	minThemes    = 3

	highTierScore   = 75
	mediumTierScore = 50
)

// SessionScore rates one session on a 0-100 scale.
func SessionScore(p models.ConfidenceProfile) int {
	score := 0
	if p.ExchangeCount >= minExchanges {
		score += weightEngagement
	}
	if p.ThemesExplored >= minThemes {
		score += weightDepth
	}
	if p.Completed {
		score += weightCompletion
	}
	if p.MoodTracked {
		score += weightMood
	}
	return score
}

func TierFor(score float64) models.ConfidenceTier {
	switch {
	case score >= highTierScore:
		return models.ConfidenceHigh
	case score >= mediumTierScore:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// Evaluate scores every profile and summarizes the batch.
func Evaluate(profiles []models.ConfidenceProfile) ([]models.SessionConfidence, models.ConfidenceSummary) {
	sessions := make([]models.SessionConfidence, 0, len(profiles))
	for _, p := range profiles {
		score := SessionScore(p)
		sessions = append(sessions, models.SessionConfidence{
			SessionID: p.SessionID,
			Score:     score,
			Tier:      TierFor(float64(score)),
		})
	}
	return sessions, Summarize(sessions)
}

// Summarize aggregates scored sessions. No sessions yields a low tier with
// zero counts.
func Summarize(sessions []models.SessionConfidence) models.ConfidenceSummary {
	summary := models.ConfidenceSummary{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		summary.Tier = models.ConfidenceLow
		return summary
	}

	total := 0
	for _, s := range sessions {
		total += s.Score
		switch s.Tier {
		case models.ConfidenceHigh:
			summary.HighConfidenceCount++
		case models.ConfidenceMedium:
			summary.MediumConfidenceCount++
		default:
			summary.LowConfidenceCount++
		}
	}

	avg := float64(total) / float64(len(sessions))
	summary.AverageConfidenceScore = math.Round(avg*10) / 10
	summary.Tier = TierFor(avg)
	return summary
}

// ThemeSummary summarizes the sessions that contributed records to a theme.
// When none of the theme's sessions has a profile, fallback is returned.
func ThemeSummary(records []models.FeedbackRecord, sessions map[string]models.SessionConfidence, fallback models.ConfidenceSummary) models.ConfidenceSummary {
	seen := make(map[string]bool)
	var matched []models.SessionConfidence
	for _, r := range records {
		if seen[r.SessionID] {
			continue
		}
		seen[r.SessionID] = true
		if s, ok := sessions[r.SessionID]; ok {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return fallback
	}
	return Summarize(matched)
}

// Cap is the highest insight confidence (1-5) a tier allows.
func Cap(tier models.ConfidenceTier) int {
	switch tier {
	case models.ConfidenceHigh:
		return 5
	case models.ConfidenceMedium:
		return 4
	default:
		return 2
	}
}

// Degrade lowers a tier one step; low stays low.
func Degrade(tier models.ConfidenceTier) models.ConfidenceTier {
	switch tier {
	case models.ConfidenceHigh:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// TierWeight is the discount applied to predictions drawn from a tier.
func TierWeight(tier models.ConfidenceTier) float64 {
	switch tier {
	case models.ConfidenceHigh:
		return 1
	case models.ConfidenceMedium:
		return 0.75
	default:
		return 0.5
	}
}
