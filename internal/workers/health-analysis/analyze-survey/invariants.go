// internal/workers/health-analysis/analyze-survey/invariants.go
package analyzesurvey

import (
	"math"
	"sync"

	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/metrics"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
	scorethemehealth "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/score-theme-health"
)

// invariantChecker clamps derived values back into their bounds. Every
// clamp is a defect upstream and is logged as an error. In strict mode the
// first violation is also kept and failed on by the run. One checker per run.
type invariantChecker struct {
	logger logger.Logger
	strict bool

	mu    sync.Mutex
	first *apperrors.StandardError
}

func newInvariantChecker(log logger.Logger, strict bool) *invariantChecker {
	return &invariantChecker{logger: log, strict: strict}
}

func (c *invariantChecker) violation(entity, field string, value interface{}) {
	stdErr := apperrors.NewInvariantViolationError(entity, field, value)
	metrics.InvariantViolations.WithLabelValues(entity, field).Inc()
	c.logger.Error("invariant violation", map[string]interface{}{
		"error":  stdErr.Error(),
		"entity": entity,
		"field":  field,
		"value":  value,
		"strict": c.strict,
	})

	if !c.strict {
		return
	}
	c.mu.Lock()
	if c.first == nil {
		c.first = stdErr
	}
	c.mu.Unlock()
}

// err returns the first recorded violation, or nil.
func (c *invariantChecker) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.first == nil {
		return nil
	}
	return c.first
}

func (c *invariantChecker) themeStats(s *models.ThemeStats) {
	if s.Intensity < 0 || s.Intensity > 1 || math.IsNaN(s.Intensity) {
		c.violation("themeStats", "intensity", s.Intensity)
		s.Intensity = clampFloat(s.Intensity, 0, 1)
	}
	if s.Direction < -1 || s.Direction > 1 || math.IsNaN(s.Direction) {
		c.violation("themeStats", "direction", s.Direction)
		s.Direction = clampFloat(s.Direction, -1, 1)
	}
	if want := scorethemehealth.HealthIndex(s.Intensity, s.Direction); s.HealthIndex != want {
		c.violation("themeStats", "healthIndex", s.HealthIndex)
		s.HealthIndex = want
		s.HealthStatus = scorethemehealth.StatusFor(want)
	}
}

// insights clamps insight fields and drops insights without evidence.
func (c *invariantChecker) insights(insights []models.Insight, responses int) []models.Insight {
	kept := insights[:0]
	for _, in := range insights {
		if len(in.EvidenceIDs) == 0 {
			c.violation("insight", "evidenceIds", in.ID)
			continue
		}
		if in.VoiceCount > responses {
			c.violation("insight", "voiceCount", in.VoiceCount)
			in.VoiceCount = responses
		}
		if in.AgreementPct < 0 || in.AgreementPct > 100 {
			c.violation("insight", "agreementPct", in.AgreementPct)
			in.AgreementPct = clampInt(in.AgreementPct, 0, 100)
		}
		if in.Confidence < 1 || in.Confidence > 5 {
			c.violation("insight", "confidence", in.Confidence)
			in.Confidence = clampInt(in.Confidence, 1, 5)
		}
		kept = append(kept, in)
	}
	return kept
}

func (c *invariantChecker) rootCauses(causes []models.RootCause, stats []models.ThemeStats) {
	responses := make(map[string]int, len(stats))
	for _, s := range stats {
		responses[s.ThemeID] = s.ResponseCount
	}
	for i := range causes {
		rc := &causes[i]
		if limit := responses[rc.ThemeID]; rc.AffectedEmployees > limit {
			c.violation("rootCause", "affectedEmployees", rc.AffectedEmployees)
			rc.AffectedEmployees = limit
		}
		if rc.ImpactScore < 0 || rc.ImpactScore > 100 {
			c.violation("rootCause", "impactScore", rc.ImpactScore)
			rc.ImpactScore = clampFloat(rc.ImpactScore, 0, 100)
		}
	}
}

func (c *invariantChecker) interventions(interventions []models.Intervention) {
	for i := range interventions {
		iv := &interventions[i]
		if iv.QuickWin && !iv.EffortLevel.IsLow() {
			c.violation("intervention", "quickWin", iv.EffortLevel)
			iv.QuickWin = false
		}
	}
}

func (c *invariantChecker) predictions(predictions []models.ImpactPrediction) {
	for i := range predictions {
		p := &predictions[i]
		if p.Confidence < 0 || p.Confidence > 100 {
			c.violation("impactPrediction", "confidence", p.Confidence)
			p.Confidence = clampInt(p.Confidence, 0, 100)
		}
		if p.PredictedSentiment < 0 || p.PredictedSentiment > 100 {
			c.violation("impactPrediction", "predictedSentiment", p.PredictedSentiment)
			*p = models.NewImpactPrediction(p.ThemeID, p.CurrentSentiment, clampFloat(p.PredictedSentiment, 0, 100), p.Confidence, p.InterventionIDs)
		}
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
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
