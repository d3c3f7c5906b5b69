// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/camunda"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/database"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/genai"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
	analyzesurvey "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/analyze-survey"
	scorethemehealth "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/score-theme-health"
	notifycriticalthemes "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/reporting/notify-critical-themes"
	publishhealthreport "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/reporting/publish-health-report"
)

// ==========================
// 1. Fakes for the external collaborators
// ==========================

// genAIServer answers extract-signals requests by citing the negative and
// positive records of each theme. Themes in failing get a 503.
func genAIServer(failing ...string) *httptest.Server {
	fail := map[string]bool{}
	for _, th := range failing {
		fail[th] = true
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req genai.ExtractionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if fail[req.ThemeID] {
			http.Error(w, "model overloaded", http.StatusServiceUnavailable)
			return
		}

		var negative, positive []string
		for _, rec := range req.Responses {
			switch rec.SentimentLabel {
			case models.SentimentNegative:
				negative = append(negative, rec.ID)
			case models.SentimentPositive:
				positive = append(positive, rec.ID)
			}
		}

		var signals []models.CandidateSignal
		if len(negative) > 0 {
			signals = append(signals, models.CandidateSignal{
				Text:           "Meetings spill into the evening",
				Polarity:       models.SignalFriction,
				EvidenceIDs:    negative,
				Confidence:     4,
				MergeKey:       "late-meetings",
				Cause:          "Meeting overload",
				Recommendation: "Introduce meeting-free afternoons",
			})
		}
		if len(positive) > 0 {
			signals = append(signals, models.CandidateSignal{
				Text:        "Flexible hours are appreciated",
				Polarity:    models.SignalStrength,
				EvidenceIDs: positive,
				Confidence:  3,
			})
		}
		if signals == nil {
			signals = []models.CandidateSignal{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"signals": signals})
	}))
}

// elasticServer records indexed documents by path.
type elasticServer struct {
	*httptest.Server
	mu   sync.Mutex
	docs map[string][]byte
}

func newElasticServer() *elasticServer {
	es := &elasticServer{docs: map[string][]byte{}}
	es.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		es.mu.Lock()
		es.docs[r.URL.Path] = body
		es.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	return es
}

type snsRecorder struct {
	messages []*sns.PublishInput
}

func (s *snsRecorder) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	s.messages = append(s.messages, params)
	return &sns.PublishOutput{MessageId: aws.String(fmt.Sprintf("msg-%d", len(s.messages)))}, nil
}

// ==========================
// 2. Pipeline wiring, as the worker manager does it
// ==========================

type stack struct {
	analyze *analyzesurvey.Handler
	publish *publishhealthreport.Handler
	notify  *notifycriticalthemes.Handler
	elastic *elasticServer
	sns     *snsRecorder
	redis   *miniredis.Miniredis
}

func newStack(t *testing.T, failingThemes ...string) *stack {
	t.Helper()
	log := logger.NewTestLogger(t)

	genAI := genAIServer(failingThemes...)
	t.Cleanup(genAI.Close)

	cfg := &config.Config{Analysis: config.DefaultAnalysis()}
	cfg.APIs.GenAI.BaseURL = genAI.URL
	cfg.Analysis.CacheTTL = 600
	cfg.Notifications.SNS.Enabled = true
	cfg.Notifications.SNS.TopicARN = "arn:aws:sns:eu-west-1:000000000000:org-health-alerts"

	extractor, err := genai.NewFromConfig(cfg, log)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	analyze, err := analyzesurvey.NewHandler(analyzesurvey.HandlerOptions{
		AppConfig: cfg,
		Extractor: extractor,
		Cache:     database.NewResultCache(rdb, time.Duration(cfg.Analysis.CacheTTL)*time.Second),
		Logger:    log,
	})
	require.NoError(t, err)

	es := newElasticServer()
	t.Cleanup(es.Close)
	esClient, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: es.URL})
	require.NoError(t, err)

	recorder := &snsRecorder{}
	return &stack{
		analyze: analyze,
		publish: publishhealthreport.NewHandler(publishhealthreport.LoadConfig(cfg), esClient, log),
		notify:  notifycriticalthemes.NewHandler(notifycriticalthemes.LoadConfig(cfg), recorder, log),
		elastic: es,
		sns:     recorder,
		redis:   mr,
	}
}

// run pushes a batch through analysis, publication and alerting.
func (s *stack) run(t *testing.T, batch *models.Batch) *analyzesurvey.Output {
	t.Helper()
	ctx := context.Background()

	raw, err := json.Marshal(batch)
	require.NoError(t, err)

	out, err := s.analyze.Execute(ctx, &analyzesurvey.Input{SurveyID: batch.SurveyID, Batch: raw})
	require.NoError(t, err)

	published, err := s.publish.Execute(ctx, &publishhealthreport.Input{Analysis: out.Analysis})
	require.NoError(t, err)
	assert.Equal(t, batch.SurveyID, published.DocumentID)

	notified, err := s.notify.Execute(ctx, &notifycriticalthemes.Input{Analysis: out.Analysis})
	require.NoError(t, err)
	assert.Equal(t, out.CriticalThemes, notified.CriticalThemes)
	if out.HasCritical {
		assert.True(t, notified.Notified)
	}

	return out
}

func workLifeBatch(surveyID string) *models.Batch {
	scores := []float64{0.2, 0.25, 0.3, 0.2, 0.15, 0.8, 0.85, 0.3, 0.25, 0.2}
	batch := &models.Batch{SurveyID: surveyID}
	for i, s := range scores {
		label := models.SentimentNegative
		if s >= 0.7 {
			label = models.SentimentPositive
		}
		session := fmt.Sprintf("s%d", i+1)
		batch.Records = append(batch.Records, models.FeedbackRecord{
			ID:             fmt.Sprintf("wlb-%02d", i+1),
			ThemeID:        "Work-Life Balance",
			Text:           "response",
			SentimentLabel: label,
			SentimentScore: s,
			SessionID:      session,
		})
		batch.Profiles = append(batch.Profiles, models.ConfidenceProfile{
			SessionID: session, ExchangeCount: 8 + i%3, ThemesExplored: 3, Completed: i%4 != 0, MoodTracked: true,
		})
	}
	return batch
}

func growthRecords() []models.FeedbackRecord {
	return []models.FeedbackRecord{
		{ID: "gr-1", ThemeID: "Growth", Text: "Great mentoring", SentimentLabel: models.SentimentPositive, SentimentScore: 0.9, SessionID: "s1"},
		{ID: "gr-2", ThemeID: "Growth", Text: "Promotions are opaque", SentimentLabel: models.SentimentNegative, SentimentScore: 0.3, SessionID: "s2"},
		{ID: "gr-3", ThemeID: "Growth", Text: "Training budget helps", SentimentLabel: models.SentimentPositive, SentimentScore: 0.75, SessionID: "s3"},
	}
}

// ==========================
// 3. Scenarios
// ==========================

func TestWorkLifeBalanceScenario(t *testing.T) {
	s := newStack(t)
	out := s.run(t, workLifeBatch("survey-e2e"))

	require.Len(t, out.Analysis.Themes, 1)
	theme := out.Analysis.Themes[0]
	stats := theme.Stats

	assert.Equal(t, 10, stats.ResponseCount)
	assert.Contains(t, []models.PolarizationLevel{models.PolarizationMedium, models.PolarizationHigh}, stats.Polarization.Level)
	assert.Less(t, stats.Direction, 0.0)
	assert.Less(t, stats.HealthIndex, 50)
	assert.Contains(t, []models.HealthStatus{models.HealthFriction, models.HealthCritical}, stats.HealthStatus)
	assert.False(t, theme.Degraded)

	require.NotEmpty(t, out.Analysis.RootCauses)
	assert.Equal(t, "Meeting overload", out.Analysis.RootCauses[0].Cause)
	require.NotEmpty(t, out.Analysis.Interventions)
	require.Len(t, out.Analysis.Predictions, 1)
	assert.GreaterOrEqual(t, out.Analysis.Predictions[0].Improvement, 0.0)

	doc, ok := s.elastic.docs["/org-health-reports/_doc/survey-e2e"]
	require.True(t, ok, "report indexed under the survey id")
	var report publishhealthreport.ReportDocument
	require.NoError(t, json.Unmarshal(doc, &report))
	assert.Equal(t, 1, report.ThemeCount)
	assert.Empty(t, report.DegradedThemes)
}

func TestEmptyThemeScenario(t *testing.T) {
	stats := scorethemehealth.Score("Quiet Theme", nil)
	assert.Equal(t, 0, stats.ResponseCount)
	assert.Equal(t, 0.0, stats.Intensity)
	assert.Equal(t, 0.0, stats.Direction)
	assert.Equal(t, 50, stats.HealthIndex)
	assert.Equal(t, models.HealthEmerging, stats.HealthStatus)

	s := newStack(t)
	out := s.run(t, &models.Batch{SurveyID: "survey-empty", Records: []models.FeedbackRecord{}})
	assert.Empty(t, out.Analysis.Themes)
	assert.Empty(t, out.Analysis.RootCauses)
	assert.Empty(t, out.Analysis.Interventions)
	assert.False(t, out.HasCritical)
	assert.Empty(t, s.sns.messages)
}

func TestCollaboratorFailsForOneTheme(t *testing.T) {
	s := newStack(t, "Growth")

	batch := workLifeBatch("survey-partial")
	batch.Records = append(batch.Records, growthRecords()...)
	out := s.run(t, batch)

	require.Len(t, out.Analysis.Themes, 2)
	assert.True(t, out.Degraded)

	for _, theme := range out.Analysis.Themes {
		require.NotEmpty(t, theme.Insights, theme.Stats.ThemeID)
		switch theme.Stats.ThemeID {
		case "Growth":
			assert.True(t, theme.Degraded)
			for _, in := range theme.Insights {
				assert.True(t, in.Fallback)
				assert.LessOrEqual(t, in.Confidence, 2)
			}
		case "Work-Life Balance":
			assert.False(t, theme.Degraded)
			for _, in := range theme.Insights {
				assert.False(t, in.Fallback)
			}
		}
	}

	var report publishhealthreport.ReportDocument
	require.NoError(t, json.Unmarshal(s.elastic.docs["/org-health-reports/_doc/survey-partial"], &report))
	assert.Equal(t, []string{"Growth"}, report.DegradedThemes)
}

func TestRepeatedRunIsServedFromCache(t *testing.T) {
	s := newStack(t)
	batch := workLifeBatch("survey-cache")

	first := s.run(t, batch)
	second := s.run(t, batch)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Len(t, s.redis.Keys(), 1)

	a, _ := json.Marshal(first.Analysis)
	b, _ := json.Marshal(second.Analysis)
	assert.JSONEq(t, string(a), string(b))
}

func TestCriticalThemeRaisesAlert(t *testing.T) {
	s := newStack(t)

	// Identical scores carry no intensity, so one outlier is needed to push
	// the index below the critical bound.
	batch := &models.Batch{SurveyID: "survey-critical"}
	for i := 0; i < 8; i++ {
		label, score, text := models.SentimentNegative, 0.0, "Pay is far below market"
		if i == 7 {
			label, score, text = models.SentimentPositive, 1.0, "Bonus was generous"
		}
		batch.Records = append(batch.Records, models.FeedbackRecord{
			ID:             fmt.Sprintf("pay-%d", i),
			ThemeID:        "Compensation",
			Text:           text,
			SentimentLabel: label,
			SentimentScore: score,
			SessionID:      fmt.Sprintf("s%d", i),
		})
	}

	out := s.run(t, batch)
	require.Equal(t, []string{"Compensation"}, out.CriticalThemes)
	require.Len(t, s.sns.messages, 1)

	msg := s.sns.messages[0]
	assert.Equal(t, "arn:aws:sns:eu-west-1:000000000000:org-health-alerts", aws.ToString(msg.TopicArn))
	assert.True(t, strings.Contains(aws.ToString(msg.Message), "Compensation"))
}

// ==========================
// 4. Live services (opt-in)
// ==========================

// TestLiveServicesConnectivity checks the services named in the loaded config. Set E2E_LIVE=1
// to run it.
func TestLiveServicesConnectivity(t *testing.T) {
	if os.Getenv("E2E_LIVE") == "" {
		t.Skip("E2E_LIVE not set")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	ctx := context.Background()

	db, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	defer db.Close()
	assert.NoError(t, db.Ping(ctx), "PostgreSQL ping failed")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, rdb.Ping(ctx), "Redis ping failed")

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	assert.NoError(t, es.Ping(), "Elasticsearch ping failed")

	zeebe, err := camunda.NewClient(cfg.Camunda.BrokerAddress)
	require.NoError(t, err, "Zeebe topology request failed")
	defer zeebe.Close()
	assert.NoError(t, zeebe.HealthCheck(ctx))
}
