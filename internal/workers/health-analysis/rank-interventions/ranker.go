// internal/workers/health-analysis/rank-interventions/ranker.go
package rankinterventions

import (
	"math"
	"sort"
	"strings"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

// impactScale converts root cause impact (0-100) times effectiveness into an
// expected sentiment uplift in points.
const impactScale = 0.3

// Candidate is an unscored intervention proposed for one root cause.
type Candidate struct {
	RootCauseID    string             `json:"rootCauseId"`
	Title          string             `json:"title"`
	Effort         models.EffortLevel `json:"effortLevel"`
	Effectiveness  float64            `json:"effectiveness"`
	Timeline       string             `json:"timeline"`
	ActionSteps    []string           `json:"actionSteps"`
	SuccessMetrics []string           `json:"successMetrics"`
}

type Options struct {
	// CriticalAffectedFloor is the minimum affected employees for a critical priority.
	CriticalAffectedFloor int
	// QuickWinThreshold is an absolute estimatedImpact cutoff; 0 uses the
	// batch's top tertile.
	QuickWinThreshold float64
}

func DefaultOptions() Options {
	return Options{CriticalAffectedFloor: 5}
}

// Rank scores, merges and orders candidates. Candidates whose root cause is
// not in causes are returned as rejected and never become interventions.
func Rank(causes []models.RootCause, candidates []Candidate, opts Options) ([]models.Intervention, []Candidate) {
	byID := make(map[string]models.RootCause, len(causes))
	for _, rc := range causes {
		byID[rc.ID] = rc
	}

	var rejected []Candidate
	interventions := make([]models.Intervention, 0)
	index := make(map[string]int)
	strongest := make(map[string]models.Priority)

	for _, c := range candidates {
		rc, ok := byID[c.RootCauseID]
		if !ok {
			rejected = append(rejected, c)
			continue
		}
		title := strings.TrimSpace(c.Title)
		if title == "" {
			continue
		}

		effort := c.Effort
		if !effort.Valid() {
			effort = models.EffortMedium
		}
		impact := models.Round1(rc.ImpactScore * clamp(c.Effectiveness, 0, 1) * impactScale)
		priority := PriorityFor(rc, opts.CriticalAffectedFloor)

		key := rc.ThemeID + "|" + strings.ToLower(strings.Join(strings.Fields(title), " "))
		if i, ok := index[key]; ok {
			iv := &interventions[i]
			iv.RootCauseIDs = appendUnique(iv.RootCauseIDs, rc.ID)
			iv.EstimatedImpact = math.Max(iv.EstimatedImpact, impact)
			if priority.Rank() > strongest[key].Rank() {
				strongest[key] = priority
				iv.Priority = priority
			}
			continue
		}

		index[key] = len(interventions)
		strongest[key] = priority
		interventions = append(interventions, models.Intervention{
			ID:              models.DeriveID("intervention", key),
			ThemeID:         rc.ThemeID,
			Title:           title,
			RootCauseIDs:    []string{rc.ID},
			EstimatedImpact: impact,
			EffortLevel:     effort,
			Priority:        priority,
			Timeline:        c.Timeline,
			ActionSteps:     nonNil(c.ActionSteps),
			SuccessMetrics:  nonNil(c.SuccessMetrics),
		})
	}

	threshold := opts.QuickWinThreshold
	if threshold <= 0 {
		threshold = QuickWinThreshold(interventions)
	}
	for i := range interventions {
		iv := &interventions[i]
		iv.QuickWin = iv.EffortLevel.IsLow() && iv.EstimatedImpact > 0 && iv.EstimatedImpact >= threshold
	}

	Sort(interventions)
	return interventions, rejected
}

// PriorityFor classifies a root cause. Critical additionally requires at
// least floor affected employees.
func PriorityFor(rc models.RootCause, floor int) models.Priority {
	switch {
	case rc.ImpactScore >= 70 && rc.AffectedEmployees >= floor:
		return models.PriorityCritical
	case rc.ImpactScore >= 50:
		return models.PriorityHigh
	case rc.ImpactScore >= 30:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// QuickWinThreshold is the estimatedImpact at the top-tertile boundary of
// the batch.
func QuickWinThreshold(interventions []models.Intervention) float64 {
	if len(interventions) == 0 {
		return 0
	}
	impacts := make([]float64, 0, len(interventions))
	for _, iv := range interventions {
		impacts = append(impacts, iv.EstimatedImpact)
	}
	sort.Float64s(impacts)
	return impacts[len(impacts)*2/3]
}

// Sort orders interventions by priority, estimated impact, quick wins first,
// then title and theme.
func Sort(interventions []models.Intervention) {
	sort.SliceStable(interventions, func(i, j int) bool {
		a, b := interventions[i], interventions[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if a.EstimatedImpact != b.EstimatedImpact {
			return a.EstimatedImpact > b.EstimatedImpact
		}
		if a.QuickWin != b.QuickWin {
			return a.QuickWin
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ThemeID < b.ThemeID
	})
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
