// internal/workers/health-analysis/synthesize-root-causes/synthesizer.go
package synthesizerootcauses

import (
	"math"
	"sort"
	"strings"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

// Weights balance reach (share of the theme affected) against severity
// (health index deficiency) in the impact score.
type Weights struct {
	Reach    float64
	Severity float64
}

func DefaultWeights() Weights {
	return Weights{Reach: 0.6, Severity: 0.4}
}

type causeGroup struct {
	label    string
	key      string
	voices   int
	maxVoice int
	evidence []string
	seen     map[string]bool
	actions  []string
}

// Synthesize groups the friction insights of every theme by cause label and
// ranks the resulting root causes by impact.
func Synthesize(themes []ThemeFindings, w Weights) []models.RootCause {
	if w.Reach == 0 && w.Severity == 0 {
		w = DefaultWeights()
	}

	causes := make([]models.RootCause, 0)
	themesByCause := make(map[string][]string)
	keys := make([]string, 0)

	for _, theme := range themes {
		responses := theme.Stats.ResponseCount
		if responses == 0 {
			continue
		}

		for _, g := range groupFrictions(theme.Insights) {
			affected := minInt(maxInt(len(g.evidence), g.maxVoice), responses)
			reach := float64(affected) / float64(responses) * 100
			deficiency := float64(100 - theme.Stats.HealthIndex)
			impact := models.Round1(clamp(w.Reach*reach+w.Severity*deficiency, 0, 100))

			causes = append(causes, models.RootCause{
				ID:                models.DeriveID("root-cause", theme.Stats.ThemeID, g.key),
				ThemeID:           theme.Stats.ThemeID,
				Cause:             g.label,
				Frequency:         minInt(g.voices, responses),
				ImpactScore:       impact,
				AffectedEmployees: affected,
				Evidence:          g.evidence,
				SuggestedActions:  g.actions,
			})
			keys = append(keys, g.key)
			themesByCause[g.key] = appendUnique(themesByCause[g.key], theme.Stats.ThemeID)
		}
	}

	for i := range causes {
		for _, other := range themesByCause[keys[i]] {
			if other != causes[i].ThemeID {
				causes[i].RelatedThemeIDs = append(causes[i].RelatedThemeIDs, other)
			}
		}
		sort.Strings(causes[i].RelatedThemeIDs)
	}

	Sort(causes)
	return causes
}

// Sort ranks root causes by impact, then affected employees, then theme and
// cause for a total order.
func Sort(causes []models.RootCause) {
	sort.SliceStable(causes, func(i, j int) bool {
		a, b := causes[i], causes[j]
		if a.ImpactScore != b.ImpactScore {
			return a.ImpactScore > b.ImpactScore
		}
		if a.AffectedEmployees != b.AffectedEmployees {
			return a.AffectedEmployees > b.AffectedEmployees
		}
		if a.ThemeID != b.ThemeID {
			return a.ThemeID < b.ThemeID
		}
		return a.Cause < b.Cause
	})
}

func groupFrictions(insights []models.Insight) []*causeGroup {
	var order []*causeGroup
	byKey := make(map[string]*causeGroup)

	for _, in := range insights {
		if in.Sentiment != models.SignalFriction {
			continue
		}
		label := strings.TrimSpace(in.Cause)
		if label == "" {
			label = strings.TrimSpace(in.Text)
		}
		key := strings.ToLower(strings.Join(strings.Fields(label), " "))

		g, ok := byKey[key]
		if !ok {
			g = &causeGroup{label: label, key: key, seen: make(map[string]bool)}
			byKey[key] = g
			order = append(order, g)
		}
		g.voices += in.VoiceCount
		g.maxVoice = maxInt(g.maxVoice, in.VoiceCount)
		for _, id := range in.EvidenceIDs {
			if !g.seen[id] {
				g.seen[id] = true
				g.evidence = append(g.evidence, id)
			}
		}
		if rec := strings.TrimSpace(in.Recommendation); rec != "" {
			g.actions = appendUnique(g.actions, rec)
		}
	}
	return order
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
