// internal/workers/health-analysis/analyze-survey/pipeline.go
package analyzesurvey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/genai"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/metrics"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/observability"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
	aggregatesignals "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/aggregate-signals"
	evaluateconfidence "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/evaluate-confidence"
	predictimpact "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/predict-impact"
	rankinterventions "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/rank-interventions"
	scorethemehealth "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/score-theme-health"
	synthesizerootcauses "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/synthesize-root-causes"
)

const tracerName = "health-workers/analyze-survey"

// Pipeline runs the full analysis over one batch. It holds no state between
// runs, so one Pipeline may serve concurrent jobs.
type Pipeline struct {
	config    *Config
	extractor genai.Extractor
	obs       *observability.Observability
	logger    logger.Logger
}

// NewPipeline builds a pipeline. A nil extractor sends every theme down the
// fallback path.
func NewPipeline(config *Config, extractor genai.Extractor, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		config:    config,
		extractor: extractor,
		obs:       obs,
		logger:    log,
	}
}

// Run analyses batch. Malformed records are dropped and counted; a batch
// with no usable records yields an empty, well-formed result.
func (p *Pipeline) Run(ctx context.Context, batch *models.Batch) (*models.AnalysisResult, error) {
	if batch == nil {
		return nil, apperrors.NewInputInvalidError("batch is required")
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "analysis.run",
		trace.WithAttributes(attribute.String("survey.id", batch.SurveyID)))
	defer span.End()

	checker := newInvariantChecker(p.logger, p.config.StrictInvariants)
	records, rejected := ValidateRecords(batch.Records)
	if rejected > 0 {
		metrics.RejectedRecords.Add(float64(rejected))
		p.logger.Warn("malformed feedback records dropped", map[string]interface{}{
			"surveyId": batch.SurveyID,
			"rejected": rejected,
		})
	}

	sessions, batchConfidence := evaluateconfidence.Evaluate(uniqueProfiles(batch.Profiles))
	sessionIndex := make(map[string]models.SessionConfidence, len(sessions))
	for _, s := range sessions {
		sessionIndex[s.SessionID] = s
	}

	byTheme := make(map[string][]models.FeedbackRecord)
	for _, r := range records {
		byTheme[r.ThemeID] = append(byTheme[r.ThemeID], r)
	}
	themeIDs := make([]string, 0, len(byTheme))
	for id := range byTheme {
		themeIDs = append(themeIDs, id)
	}
	sort.Strings(themeIDs)

	reports := make([]models.ThemeReport, len(themeIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Parallelism)
	for i, themeID := range themeIDs {
		g.Go(func() error {
			summary := evaluateconfidence.ThemeSummary(byTheme[themeID], sessionIndex, batchConfidence)
			reports[i] = p.analyzeTheme(gctx, checker, batch.SurveyID, themeID, byTheme[themeID], summary)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "theme fan-out failed")
		return nil, apperrors.NewAnalysisFailedError(err)
	}

	findings := make([]synthesizerootcauses.ThemeFindings, 0, len(reports))
	themeStats := make([]models.ThemeStats, 0, len(reports))
	confidence := make(map[string]models.ConfidenceSummary, len(reports))
	for _, r := range reports {
		findings = append(findings, synthesizerootcauses.ThemeFindings{Stats: r.Stats, Insights: r.Insights})
		themeStats = append(themeStats, r.Stats)
		effective := r.Confidence
		effective.Tier = r.ConfidenceTier
		confidence[r.Stats.ThemeID] = effective
	}

	causes := synthesizerootcauses.Synthesize(findings, p.config.Weights)
	checker.rootCauses(causes, themeStats)

	candidates := p.config.Playbook.Suggest(causes)
	interventions, orphans := rankinterventions.Rank(causes, candidates, p.config.Ranking)
	for _, c := range orphans {
		checker.violation("intervention", "rootCauseId", c.RootCauseID)
	}
	checker.interventions(interventions)

	predictions := predictimpact.Predict(themeStats, interventions, causes, confidence, p.config.Decay)
	checker.predictions(predictions)

	if err := checker.err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invariant violation")
		return nil, err
	}

	result := &models.AnalysisResult{
		SurveyID:        batch.SurveyID,
		Confidence:      batchConfidence,
		Themes:          reports,
		RootCauses:      causes,
		Interventions:   interventions,
		Predictions:     predictions,
		RejectedRecords: rejected,
	}

	span.SetAttributes(
		attribute.Int("analysis.themes", len(reports)),
		attribute.Int("analysis.rejected_records", rejected),
		attribute.String("analysis.confidence_tier", string(batchConfidence.Tier)),
	)
	p.logger.Info("survey analysed", map[string]interface{}{
		"traceId":       span.SpanContext().TraceID().String(),
		"surveyId":      batch.SurveyID,
		"themes":        len(reports),
		"rootCauses":    len(causes),
		"interventions": len(interventions),
		"predictions":   len(predictions),
		"confidence":    batchConfidence.Tier,
	})
	return result, nil
}

func (p *Pipeline) analyzeTheme(ctx context.Context, checker *invariantChecker, surveyID, themeID string, records []models.FeedbackRecord, summary models.ConfidenceSummary) models.ThemeReport {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "analysis.theme",
		trace.WithAttributes(attribute.String("theme.id", themeID), attribute.Int("theme.responses", len(records))))
	defer span.End()

	scores := make([]float64, 0, len(records))
	for _, r := range records {
		scores = append(scores, r.SentimentScore)
	}

	report := models.ThemeReport{
		Stats:          scorethemehealth.Score(themeID, scores),
		Confidence:     summary,
		ConfidenceTier: summary.Tier,
	}
	checker.themeStats(&report.Stats)

	candidates, err := p.extract(ctx, surveyID, themeID, records)
	if err != nil {
		report.Degraded = true
		report.ConfidenceTier = evaluateconfidence.Degrade(summary.Tier)
		report.Insights = aggregatesignals.Fallback(themeID, records, report.ConfidenceTier)
		metrics.FallbackThemes.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "signal extraction failed")
		p.logger.Warn("signal extraction failed, using fallback insights", map[string]interface{}{
			"surveyId": surveyID,
			"themeId":  themeID,
			"error":    err.Error(),
		})
	} else {
		report.Insights = aggregatesignals.Aggregate(themeID, records, candidates, report.ConfidenceTier)
	}
	report.Insights = checker.insights(report.Insights, report.Stats.ResponseCount)
	span.SetAttributes(
		attribute.Int("theme.health_index", report.Stats.HealthIndex),
		attribute.String("theme.health_status", string(report.Stats.HealthStatus)),
		attribute.Bool("theme.degraded", report.Degraded),
	)

	if p.obs != nil {
		p.obs.RecordThemeAnalyzed(ctx, string(report.Stats.HealthStatus), report.Degraded)
	}
	return report
}

func (p *Pipeline) extract(ctx context.Context, surveyID, themeID string, records []models.FeedbackRecord) ([]models.CandidateSignal, error) {
	if p.extractor == nil {
		return nil, apperrors.NewCollaboratorUnavailableError(themeID, genai.ErrExtractionFailed)
	}
	return p.extractor.ExtractSignals(ctx, genai.NewExtractionRequest(surveyID, themeID, records))
}

// ValidateRecords drops records without an id or theme, with an unknown
// sentiment label, with a score outside [0,1], or repeating an earlier id.
// It returns the kept records in input order and the number dropped.
func ValidateRecords(records []models.FeedbackRecord) ([]models.FeedbackRecord, int) {
	kept := make([]models.FeedbackRecord, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		switch {
		case strings.TrimSpace(r.ID) == "",
			strings.TrimSpace(r.ThemeID) == "",
			!r.SentimentLabel.Valid(),
			math.IsNaN(r.SentimentScore),
			r.SentimentScore < 0 || r.SentimentScore > 1,
			seen[r.ID]:
			continue
		}
		seen[r.ID] = true
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}

func uniqueProfiles(profiles []models.ConfidenceProfile) []models.ConfidenceProfile {
	out := make([]models.ConfidenceProfile, 0, len(profiles))
	seen := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		if strings.TrimSpace(p.SessionID) == "" || seen[p.SessionID] {
			continue
		}
		seen[p.SessionID] = true
		out = append(out, p)
	}
	return out
}

// Snapshot digests the input batch together with the config digest; equal
// batches analysed under equal settings give equal digests.
func Snapshot(batch *models.Batch, skipped int, configDigest string) string {
	data, _ := json.Marshal(struct {
		Batch   *models.Batch `json:"batch"`
		Skipped int           `json:"skipped"`
		Config  string        `json:"config"`
	}{batch, skipped, configDigest})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
