// cmd/worker-manager/server_test.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
	analyzesurvey "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/analyze-survey"
)

type stubAnalyzer struct {
	got *analyzesurvey.Input
	out *analyzesurvey.Output
	err error
}

func (s *stubAnalyzer) Execute(_ context.Context, input *analyzesurvey.Input) (*analyzesurvey.Output, error) {
	s.got = input
	return s.out, s.err
}

func createTestServer(t *testing.T, a analyzer, checks ...readinessCheck) http.Handler {
	return newRouter(&server{
		analyzer: a,
		checks:   checks,
		timeout:  time.Second,
		logger:   logger.NewTestLogger(t),
	})
}

func TestServer_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	createTestServer(t, &stubAnalyzer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Ready(t *testing.T) {
	ok := readinessCheck{name: "postgres", check: func(context.Context) error { return nil }}
	down := readinessCheck{name: "redis", check: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("all dependencies up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		createTestServer(t, &stubAnalyzer{}, ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready","dependencies":{"postgres":"ok"}}`, rec.Body.String())
	})

	t.Run("one dependency down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		createTestServer(t, &stubAnalyzer{}, ok, down).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})
}

func TestServer_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	createTestServer(t, &stubAnalyzer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_Analyze(t *testing.T) {
	stub := &stubAnalyzer{out: &analyzesurvey.Output{
		Analysis:       models.AnalysisResult{SurveyID: "survey-1"},
		CriticalThemes: []string{},
	}}
	h := createTestServer(t, stub)

	t.Run("survey id from path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/surveys/survey-1/analysis", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "survey-1", stub.got.SurveyID)
		assert.Empty(t, stub.got.Batch)

		var out analyzesurvey.Output
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, "survey-1", out.Analysis.SurveyID)
	})

	t.Run("inline batch and path wins", func(t *testing.T) {
		body := `{"surveyId":"ignored","batch":{"surveyId":"survey-1","records":[]}}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/surveys/survey-1/analysis", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "survey-1", stub.got.SurveyID)
		assert.JSONEq(t, `{"surveyId":"survey-1","records":[]}`, string(stub.got.Batch))
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/surveys/survey-1/analysis", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		small := newRouter(&server{analyzer: stub, timeout: time.Second, maxBody: 64, logger: logger.NewTestLogger(t)})
		body := `{"batch":{"surveyId":"survey-1","records":[` + strings.Repeat(`{"id":"r"},`, 20) + `{"id":"r"}]}}`

		rec := httptest.NewRecorder()
		small.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/surveys/survey-1/analysis", strings.NewReader(body)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "exceeds limit")
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surveys/survey-1/analysis", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServer_AnalyzeErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", apperrors.NewInputInvalidError("surveyId or batch is required"), http.StatusBadRequest},
		{"unknown survey", apperrors.NewSurveyNotFoundError("nope"), http.StatusNotFound},
		{"database down", apperrors.NewBatchLoadFailedError("s", errors.New("connection refused")), http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			createTestServer(t, &stubAnalyzer{err: tt.err}).
				ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/surveys/s/analysis", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["code"])
		})
	}
}

func TestNewExtractor(t *testing.T) {
	t.Run("no base url runs without extractor", func(t *testing.T) {
		cfg := &config.Config{Analysis: config.DefaultAnalysis()}

		ex, err := newExtractor(cfg, logger.NewTestLogger(t))
		require.NoError(t, err)
		assert.Nil(t, ex)
	})

	t.Run("configured http extractor", func(t *testing.T) {
		cfg := &config.Config{Analysis: config.DefaultAnalysis()}
		cfg.APIs.GenAI.BaseURL = "http://genai:8000"

		ex, err := newExtractor(cfg, logger.NewTestLogger(t))
		require.NoError(t, err)
		assert.NotNil(t, ex)
	})

	t.Run("unknown extractor still fails", func(t *testing.T) {
		cfg := &config.Config{Analysis: config.DefaultAnalysis()}
		cfg.Analysis.Extractor = "oracle"

		_, err := newExtractor(cfg, logger.NewTestLogger(t))
		assert.Error(t, err)
	})
}
