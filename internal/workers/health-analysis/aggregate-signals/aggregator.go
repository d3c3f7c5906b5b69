// internal/workers/health-analysis/aggregate-signals/aggregator.go
package aggregatesignals

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
	evaluateconfidence "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/evaluate-confidence"
)

const (
	fallbackConfidence  = 2
	fallbackEvidenceMax = 3

	// FallbackCause labels the friction produced without extraction.
	FallbackCause = "unclassified concern"
)

type mergedSignal struct {
	key            string
	text           string
	sentiment      models.SignalKind
	cause          string
	recommendation string
	confidence     int
	evidence       []string
	seen           map[string]bool
}

// Aggregate folds candidate signals into insights for one theme. Candidates
// sharing a polarity and merge key (or, without a key, the same folded text)
// become one insight. Evidence outside the theme is dropped, as is any
// insight left without evidence.
func Aggregate(themeID string, records []models.FeedbackRecord, candidates []models.CandidateSignal, tier models.ConfidenceTier) []models.Insight {
	responses := len(records)
	insights := make([]models.Insight, 0)
	if responses == 0 {
		return insights
	}

	inTheme := make(map[string]bool, responses)
	for _, r := range records {
		inTheme[r.ID] = true
	}

	var order []*mergedSignal
	byKey := make(map[string]*mergedSignal)
	for _, c := range candidates {
		kind := normalizeKind(c.Polarity)
		key := string(kind) + "|" + mergeKey(c)

		m, ok := byKey[key]
		if !ok {
			m = &mergedSignal{
				key:       key,
				text:      strings.TrimSpace(c.Text),
				sentiment: kind,
				seen:      make(map[string]bool),
			}
			byKey[key] = m
			order = append(order, m)
		}
		if m.cause == "" {
			m.cause = strings.TrimSpace(c.Cause)
		}
		if m.recommendation == "" {
			m.recommendation = strings.TrimSpace(c.Recommendation)
		}
		if c.Confidence > m.confidence {
			m.confidence = c.Confidence
		}
		for _, id := range c.EvidenceIDs {
			if !inTheme[id] || m.seen[id] {
				continue
			}
			m.seen[id] = true
			m.evidence = append(m.evidence, id)
		}
	}

	limit := evaluateconfidence.Cap(tier)
	for _, m := range order {
		if len(m.evidence) == 0 {
			continue
		}
		voices := len(m.evidence)
		insights = append(insights, models.Insight{
			ID:             models.DeriveID("insight", themeID, m.key),
			ThemeID:        themeID,
			Text:           m.text,
			Sentiment:      m.sentiment,
			AgreementPct:   agreement(voices, responses),
			VoiceCount:     voices,
			Confidence:     minInt(clampInt(m.confidence, 1, 5), limit),
			EvidenceIDs:    m.evidence,
			Cause:          m.cause,
			Recommendation: m.recommendation,
		})
	}

	Sort(insights)
	return insights
}

// Fallback derives one coarse insight per non-empty sentiment bucket by
// counting sentiment labels.
func Fallback(themeID string, records []models.FeedbackRecord, tier models.ConfidenceTier) []models.Insight {
	responses := len(records)
	insights := make([]models.Insight, 0)
	if responses == 0 {
		return insights
	}

	buckets := make(map[models.SignalKind][]string)
	for _, r := range records {
		kind := kindForLabel(r.SentimentLabel)
		buckets[kind] = append(buckets[kind], r.ID)
	}

	confidence := minInt(fallbackConfidence, evaluateconfidence.Cap(tier))
	for _, kind := range models.SignalKinds {
		ids := buckets[kind]
		if len(ids) == 0 {
			continue
		}
		evidence := make([]string, 0, fallbackEvidenceMax)
		evidence = append(evidence, ids[:minInt(len(ids), fallbackEvidenceMax)]...)

		insight := models.Insight{
			ID:           models.DeriveID("insight", themeID, "fallback", string(kind)),
			ThemeID:      themeID,
			Text:         fallbackText(kind, len(ids)),
			Sentiment:    kind,
			AgreementPct: agreement(len(ids), responses),
			VoiceCount:   len(ids),
			Confidence:   confidence,
			EvidenceIDs:  evidence,
			Fallback:     true,
		}
		if kind == models.SignalFriction {
			insight.Cause = FallbackCause
		}
		insights = append(insights, insight)
	}
	return insights
}

// Sort orders insights friction, strength, pattern and, within a bucket, by
// voice count then agreement, keeping insertion order for ties.
func Sort(insights []models.Insight) {
	rank := make(map[models.SignalKind]int, len(models.SignalKinds))
	for i, k := range models.SignalKinds {
		rank[k] = i
	}
	sort.SliceStable(insights, func(i, j int) bool {
		a, b := insights[i], insights[j]
		if rank[a.Sentiment] != rank[b.Sentiment] {
			return rank[a.Sentiment] < rank[b.Sentiment]
		}
		if a.VoiceCount != b.VoiceCount {
			return a.VoiceCount > b.VoiceCount
		}
		return a.AgreementPct > b.AgreementPct
	})
}

func mergeKey(c models.CandidateSignal) string {
	if k := fold(c.MergeKey); k != "" {
		return k
	}
	return fold(c.Text)
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func normalizeKind(k models.SignalKind) models.SignalKind {
	switch k {
	case models.SignalFriction, models.SignalStrength:
		return k
	default:
		return models.SignalPattern
	}
}

func kindForLabel(l models.SentimentLabel) models.SignalKind {
	switch l {
	case models.SentimentNegative:
		return models.SignalFriction
	case models.SentimentPositive:
		return models.SignalStrength
	default:
		return models.SignalPattern
	}
}

func fallbackText(kind models.SignalKind, n int) string {
	switch kind {
	case models.SignalFriction:
		return fmt.Sprintf("%d responses expressed concern", n)
	case models.SignalStrength:
		return fmt.Sprintf("%d responses expressed appreciation", n)
	default:
		return fmt.Sprintf("%d responses were mixed or neutral", n)
	}
}

func agreement(voices, responses int) int {
	if responses == 0 {
		return 0
	}
	return clampInt(int(math.Round(float64(voices)/float64(responses)*100)), 0, 100)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
