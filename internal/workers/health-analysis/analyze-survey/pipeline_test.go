// internal/workers/health-analysis/analyze-survey/pipeline_test.go
package analyzesurvey

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/genai"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
	evaluateconfidence "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/evaluate-confidence"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeExtractor answers from a per-theme table. Themes listed in failures
// return an error; unknown themes return no signals.
type fakeExtractor struct {
	mu       sync.Mutex
	signals  map[string][]models.CandidateSignal
	failures map[string]error
	calls    map[string]int
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		signals:  map[string][]models.CandidateSignal{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeExtractor) ExtractSignals(_ context.Context, req genai.ExtractionRequest) ([]models.CandidateSignal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.ThemeID]++
	if err := f.failures[req.ThemeID]; err != nil {
		return nil, err
	}
	return f.signals[req.ThemeID], nil
}

func record(id, themeID string, label models.SentimentLabel, score float64, session string) models.FeedbackRecord {
	return models.FeedbackRecord{
		ID:             id,
		ThemeID:        themeID,
		Text:           "response " + id,
		SentimentLabel: label,
		SentimentScore: score,
		SessionID:      session,
	}
}

func profile(id string, exchanges, themes int, completed, mood bool) models.ConfidenceProfile {
	return models.ConfidenceProfile{
		SessionID:      id,
		ExchangeCount:  exchanges,
		ThemesExplored: themes,
		Completed:      completed,
		MoodTracked:    mood,
	}
}

// workLifeBatch is a small survey where work-life balance is clearly strained
// and growth is healthy.
func workLifeBatch() *models.Batch {
	return &models.Batch{
		SurveyID: "survey-wlb",
		Records: []models.FeedbackRecord{
			record("w1", "wlb", models.SentimentNegative, 0.10, "s1"),
			record("w2", "wlb", models.SentimentNegative, 0.15, "s2"),
			record("w3", "wlb", models.SentimentNegative, 0.20, "s3"),
			record("w4", "wlb", models.SentimentMixed, 0.45, "s4"),
			record("w5", "wlb", models.SentimentPositive, 0.80, "s5"),
			record("g1", "growth", models.SentimentPositive, 0.85, "s1"),
			record("g2", "growth", models.SentimentPositive, 0.90, "s2"),
			record("g3", "growth", models.SentimentNeutral, 0.55, "s3"),
		},
		Profiles: []models.ConfidenceProfile{
			profile("s1", 10, 3, true, true),
			profile("s2", 9, 4, true, true),
			profile("s3", 8, 3, true, false),
			profile("s4", 4, 2, false, false),
			profile("s5", 12, 5, true, true),
		},
	}
}

func workLifeExtractor() *fakeExtractor {
	ext := newFakeExtractor()
	ext.signals["wlb"] = []models.CandidateSignal{
		{
			Text:           "Meetings run past working hours",
			Polarity:       models.SignalFriction,
			EvidenceIDs:    []string{"w1", "w2", "w3"},
			Confidence:     4,
			MergeKey:       "late-meetings",
			Cause:          "Meeting overload",
			Recommendation: "Introduce meeting-free afternoons",
		},
		{
			Text:        "Calls after 6pm",
			Polarity:    models.SignalFriction,
			EvidenceIDs: []string{"w2", "w4"},
			Confidence:  3,
			MergeKey:    "late-meetings",
			Cause:       "meeting overload",
		},
		{
			Text:        "Flexible Fridays help",
			Polarity:    models.SignalStrength,
			EvidenceIDs: []string{"w5"},
			Confidence:  4,
		},
	}
	ext.signals["growth"] = []models.CandidateSignal{
		{
			Text:        "Mentoring is valued",
			Polarity:    models.SignalStrength,
			EvidenceIDs: []string{"g1", "g2"},
			Confidence:  5,
		},
	}
	return ext
}

func createTestPipeline(t *testing.T, ext genai.Extractor) *Pipeline {
	return NewPipeline(DefaultConfig(), ext, nil, logger.NewTestLogger(t))
}

func themeReport(t *testing.T, result *models.AnalysisResult, themeID string) models.ThemeReport {
	t.Helper()
	for _, r := range result.Themes {
		if r.Stats.ThemeID == themeID {
			return r
		}
	}
	t.Fatalf("theme %q not in result", themeID)
	return models.ThemeReport{}
}

// ==========================
// Scenarios
// ==========================

func TestPipeline_Run_WorkLifeScenario(t *testing.T) {
	p := createTestPipeline(t, workLifeExtractor())

	result, err := p.Run(context.Background(), workLifeBatch())
	require.NoError(t, err)

	assert.Equal(t, "survey-wlb", result.SurveyID)
	assert.Equal(t, 0, result.RejectedRecords)
	assert.Equal(t, 5, result.Confidence.TotalSessions)
	require.Len(t, result.Themes, 2)
	assert.Equal(t, "growth", result.Themes[0].Stats.ThemeID)
	assert.Equal(t, "wlb", result.Themes[1].Stats.ThemeID)

	wlb := themeReport(t, result, "wlb")
	growth := themeReport(t, result, "growth")
	assert.False(t, wlb.Degraded)
	assert.Less(t, wlb.Stats.HealthIndex, growth.Stats.HealthIndex)
	assert.Less(t, wlb.Stats.Direction, 0.0)
	assert.Equal(t, 5, wlb.Stats.ResponseCount)

	require.Len(t, wlb.Insights, 2)
	friction := wlb.Insights[0]
	assert.Equal(t, models.SignalFriction, friction.Sentiment)
	assert.Equal(t, "Meetings run past working hours", friction.Text)
	assert.Equal(t, []string{"w1", "w2", "w3", "w4"}, friction.EvidenceIDs)
	assert.Equal(t, 4, friction.VoiceCount)
	assert.Equal(t, 80, friction.AgreementPct)

	require.Len(t, result.RootCauses, 1)
	rc := result.RootCauses[0]
	assert.Equal(t, "wlb", rc.ThemeID)
	assert.Equal(t, "Meeting overload", rc.Cause)
	assert.Equal(t, 4, rc.AffectedEmployees)
	assert.Contains(t, rc.SuggestedActions, "Introduce meeting-free afternoons")
	assert.Greater(t, rc.ImpactScore, 0.0)

	require.NotEmpty(t, result.Interventions)
	titles := make([]string, 0, len(result.Interventions))
	for _, iv := range result.Interventions {
		assert.Equal(t, []string{rc.ID}, iv.RootCauseIDs)
		titles = append(titles, iv.Title)
	}
	assert.Contains(t, titles, "Introduce meeting-free afternoons")

	require.Len(t, result.Predictions, 1)
	pred := result.Predictions[0]
	assert.Equal(t, "wlb", pred.ThemeID)
	assert.GreaterOrEqual(t, pred.PredictedSentiment, pred.CurrentSentiment)
	assert.InDelta(t, pred.PredictedSentiment-pred.CurrentSentiment, pred.Improvement, 0.11)
	assert.Len(t, pred.InterventionIDs, len(result.Interventions))
}

func TestPipeline_Run_ExtractorFailureFallsBack(t *testing.T) {
	ext := workLifeExtractor()
	ext.failures["growth"] = errors.New("upstream 503")
	p := createTestPipeline(t, ext)

	result, err := p.Run(context.Background(), workLifeBatch())
	require.NoError(t, err)

	growth := themeReport(t, result, "growth")
	assert.True(t, growth.Degraded)
	assert.Equal(t, evaluateconfidence.Degrade(growth.Confidence.Tier), growth.ConfidenceTier)
	require.NotEmpty(t, growth.Insights)
	for _, in := range growth.Insights {
		assert.True(t, in.Fallback)
		assert.LessOrEqual(t, in.Confidence, 2)
		assert.NotEmpty(t, in.EvidenceIDs)
	}

	wlb := themeReport(t, result, "wlb")
	assert.False(t, wlb.Degraded)
	assert.Equal(t, wlb.Confidence.Tier, wlb.ConfidenceTier)
	assert.Len(t, result.RootCauses, 1)
}

func TestPipeline_Run_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ext := workLifeExtractor()
	ext.failures["growth"] = errors.New("upstream 503")
	_, err := createTestPipeline(t, ext).Run(context.Background(), workLifeBatch())
	require.NoError(t, err)

	var run sdktrace.ReadOnlySpan
	themes := map[string]sdktrace.ReadOnlySpan{}
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case "analysis.run":
			run = span
		case "analysis.theme":
			for _, kv := range span.Attributes() {
				if kv.Key == "theme.id" {
					themes[kv.Value.AsString()] = span
				}
			}
		}
	}
	require.NotNil(t, run)
	require.Len(t, themes, 2)

	for id, span := range themes {
		assert.Equal(t, run.SpanContext().TraceID(), span.SpanContext().TraceID(), id)
		assert.Equal(t, run.SpanContext().SpanID(), span.Parent().SpanID(), id)
	}
	assert.Equal(t, codes.Error, themes["growth"].Status().Code)
	assert.Equal(t, codes.Unset, themes["wlb"].Status().Code)
	assert.Contains(t, themes["growth"].Attributes(), attribute.Bool("theme.degraded", true))
}

func TestPipeline_Run_NilExtractorDegradesEveryTheme(t *testing.T) {
	p := createTestPipeline(t, nil)

	result, err := p.Run(context.Background(), workLifeBatch())
	require.NoError(t, err)

	for _, r := range result.Themes {
		assert.True(t, r.Degraded, r.Stats.ThemeID)
	}

	// Fallback frictions still surface a root cause for the strained theme.
	require.NotEmpty(t, result.RootCauses)
	assert.Equal(t, "wlb", result.RootCauses[0].ThemeID)
}

func TestPipeline_Run_EmptyBatch(t *testing.T) {
	p := createTestPipeline(t, newFakeExtractor())

	result, err := p.Run(context.Background(), &models.Batch{SurveyID: "empty"})
	require.NoError(t, err)

	assert.Equal(t, models.ConfidenceLow, result.Confidence.Tier)
	assert.NotNil(t, result.Themes)
	assert.NotNil(t, result.RootCauses)
	assert.NotNil(t, result.Interventions)
	assert.NotNil(t, result.Predictions)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"themes":[]`)
	assert.Contains(t, string(data), `"predictions":[]`)
}

func TestPipeline_Run_NilBatch(t *testing.T) {
	p := createTestPipeline(t, nil)
	_, err := p.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestPipeline_Run_DropsMalformedRecords(t *testing.T) {
	batch := workLifeBatch()
	batch.Records = append(batch.Records,
		record("", "wlb", models.SentimentNegative, 0.1, "s1"),
		record("x1", "", models.SentimentNegative, 0.1, "s1"),
		record("x2", "wlb", "angry", 0.1, "s1"),
		record("x3", "wlb", models.SentimentNegative, 1.5, "s1"),
		record("w1", "wlb", models.SentimentNegative, 0.1, "s1"),
	)
	p := createTestPipeline(t, workLifeExtractor())

	result, err := p.Run(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, 5, result.RejectedRecords)
	assert.Equal(t, 5, themeReport(t, result, "wlb").Stats.ResponseCount)
}

// ==========================
// Determinism
// ==========================

func TestPipeline_Run_Idempotent(t *testing.T) {
	p := NewPipeline(&Config{
		Timeout:     DefaultConfig().Timeout,
		Parallelism: 8,
		Weights:     DefaultConfig().Weights,
		Ranking:     DefaultConfig().Ranking,
		Playbook:    DefaultConfig().Playbook,
		Decay:       DefaultConfig().Decay,
	}, workLifeExtractor(), nil, logger.NewNoOpLogger())

	first, err := p.Run(context.Background(), workLifeBatch())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), workLifeBatch())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second run differs (-first +second):\n%s", diff)
	}

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))
}

func TestSnapshot(t *testing.T) {
	digest := DefaultConfig().Digest()
	a := Snapshot(workLifeBatch(), 0, digest)
	assert.Equal(t, a, Snapshot(workLifeBatch(), 0, digest))
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Snapshot(workLifeBatch(), 1, digest))

	changed := workLifeBatch()
	changed.Records[0].SentimentScore = 0.11
	assert.NotEqual(t, a, Snapshot(changed, 0, digest))

	tuned := DefaultConfig()
	tuned.Ranking.QuickWinThreshold = 40
	assert.NotEqual(t, a, Snapshot(workLifeBatch(), 0, tuned.Digest()))
}

func TestConfig_Digest(t *testing.T) {
	base := DefaultConfig().Digest()
	assert.Equal(t, base, DefaultConfig().Digest())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"weights", func(c *Config) { c.Weights.Reach = 0.9 }},
		{"quick win threshold", func(c *Config) { c.Ranking.QuickWinThreshold = 25 }},
		{"critical floor", func(c *Config) { c.Ranking.CriticalAffectedFloor = 2 }},
		{"playbook", func(c *Config) { c.Playbook.Generic.Title = "Run a listening session" }},
		{"decay", func(c *Config) { c.Decay = 0.8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.NotEqual(t, base, cfg.Digest())
		})
	}

	// settings that do not shape the result keep the digest
	cfg := DefaultConfig()
	cfg.Parallelism = 16
	cfg.Timeout = time.Hour
	assert.Equal(t, base, cfg.Digest())
}

// ==========================
// Properties
// ==========================

// randomBatch builds a survey with a handful of themes and an extractor that
// cites real record ids, some of them from the wrong theme.
func randomBatch(rng *rand.Rand) (*models.Batch, *fakeExtractor) {
	labels := []models.SentimentLabel{models.SentimentNegative, models.SentimentPositive, models.SentimentNeutral, models.SentimentMixed}
	batch := &models.Batch{SurveyID: "random"}
	ext := newFakeExtractor()

	for s := 0; s < 6; s++ {
		batch.Profiles = append(batch.Profiles, profile(fmt.Sprintf("s%d", s), rng.Intn(15), rng.Intn(6), rng.Intn(2) == 0, rng.Intn(2) == 0))
	}

	for th := 0; th < 1+rng.Intn(4); th++ {
		themeID := fmt.Sprintf("theme-%d", th)
		n := 1 + rng.Intn(8)
		var ids []string
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("%s-r%d", themeID, i)
			ids = append(ids, id)
			batch.Records = append(batch.Records, record(id, themeID, labels[rng.Intn(len(labels))], rng.Float64(), fmt.Sprintf("s%d", rng.Intn(6))))
		}
		for k := 0; k < rng.Intn(4); k++ {
			evidence := []string{ids[rng.Intn(len(ids))], ids[rng.Intn(len(ids))], "theme-99-r0"}
			ext.signals[themeID] = append(ext.signals[themeID], models.CandidateSignal{
				Text:        fmt.Sprintf("signal %d", k),
				Polarity:    models.SignalKinds[rng.Intn(len(models.SignalKinds))],
				EvidenceIDs: evidence,
				Confidence:  1 + rng.Intn(5),
				Cause:       []string{"", "Workload", "Manager support"}[rng.Intn(3)],
			})
		}
		if rng.Intn(4) == 0 {
			ext.failures[themeID] = errors.New("timeout")
		}
	}
	return batch, ext
}

func TestPipeline_Run_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		batch, ext := randomBatch(rng)
		result, err := createTestPipeline(t, ext).Run(context.Background(), batch)
		require.NoError(t, err)

		responses := map[string]int{}
		for _, r := range result.Themes {
			s := r.Stats
			responses[s.ThemeID] = s.ResponseCount
			assert.GreaterOrEqual(t, s.HealthIndex, 0)
			assert.LessOrEqual(t, s.HealthIndex, 100)
			assert.False(t, math.IsNaN(s.Intensity))

			for _, in := range r.Insights {
				assert.LessOrEqual(t, in.VoiceCount, s.ResponseCount)
				assert.GreaterOrEqual(t, in.AgreementPct, 0)
				assert.LessOrEqual(t, in.AgreementPct, 100)
				assert.GreaterOrEqual(t, in.Confidence, 1)
				assert.LessOrEqual(t, in.Confidence, evaluateconfidence.Cap(r.ConfidenceTier))
				assert.NotEmpty(t, in.EvidenceIDs)
				for _, id := range in.EvidenceIDs {
					assert.NotContains(t, id, "theme-99")
				}
			}
		}

		causeIDs := map[string]bool{}
		for _, rc := range result.RootCauses {
			causeIDs[rc.ID] = true
			assert.LessOrEqual(t, rc.AffectedEmployees, responses[rc.ThemeID])
			assert.GreaterOrEqual(t, rc.ImpactScore, 0.0)
			assert.LessOrEqual(t, rc.ImpactScore, 100.0)
		}

		for _, iv := range result.Interventions {
			if iv.QuickWin {
				assert.True(t, iv.EffortLevel.IsLow(), iv.Title)
			}
			require.NotEmpty(t, iv.RootCauseIDs)
			for _, id := range iv.RootCauseIDs {
				assert.True(t, causeIDs[id], "intervention %q cites unknown root cause", iv.Title)
			}
		}

		for _, p := range result.Predictions {
			assert.GreaterOrEqual(t, p.PredictedSentiment, 0.0)
			assert.LessOrEqual(t, p.PredictedSentiment, 100.0)
			assert.GreaterOrEqual(t, p.Confidence, 0)
			assert.LessOrEqual(t, p.Confidence, 100)
		}
	}
}

// ==========================
// Record Validation
// ==========================

func TestValidateRecords(t *testing.T) {
	tests := []struct {
		name     string
		records  []models.FeedbackRecord
		wantIDs  []string
		rejected int
	}{
		{
			name:     "empty",
			records:  nil,
			wantIDs:  []string{},
			rejected: 0,
		},
		{
			name: "all valid keep order",
			records: []models.FeedbackRecord{
				record("b", "t", models.SentimentPositive, 1, ""),
				record("a", "t", models.SentimentNegative, 0, ""),
			},
			wantIDs: []string{"b", "a"},
		},
		{
			name: "blank id and theme",
			records: []models.FeedbackRecord{
				record(" ", "t", models.SentimentPositive, 0.5, ""),
				record("a", "", models.SentimentPositive, 0.5, ""),
			},
			wantIDs:  []string{},
			rejected: 2,
		},
		{
			name: "bad label and scores",
			records: []models.FeedbackRecord{
				record("a", "t", "", 0.5, ""),
				record("b", "t", models.SentimentNeutral, -0.1, ""),
				record("c", "t", models.SentimentNeutral, math.NaN(), ""),
				record("d", "t", models.SentimentNeutral, 0.5, ""),
			},
			wantIDs:  []string{"d"},
			rejected: 3,
		},
		{
			name: "duplicate id keeps first",
			records: []models.FeedbackRecord{
				record("a", "t1", models.SentimentNeutral, 0.5, ""),
				record("a", "t2", models.SentimentNeutral, 0.5, ""),
			},
			wantIDs:  []string{"a"},
			rejected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, rejected := ValidateRecords(tt.records)
			ids := make([]string, 0, len(kept))
			for _, r := range kept {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.rejected, rejected)
		})
	}
}
