// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	analyzesurvey "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/analyze-survey"
)

// analyzer runs one survey analysis outside of a Zeebe job.
type analyzer interface {
	Execute(ctx context.Context, input *analyzesurvey.Input) (*analyzesurvey.Output, error)
}

// readinessCheck pings one dependency.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

const defaultMaxBodyBytes = 32 << 20

type server struct {
	analyzer analyzer
	checks   []readinessCheck
	timeout  time.Duration
	maxBody  int64 // bytes, 0 means defaultMaxBodyBytes
	logger   logger.Logger
}

func newRouter(s *server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.ready).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/surveys/{surveyId}/analysis", s.analyze).Methods(http.MethodPost)

	return r
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.check(ctx); err != nil {
			deps[c.name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[c.name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "dependencies": deps})
}

// analyze handles POST /api/surveys/{surveyId}/analysis. The body is optional
// and may carry the batch inline as {"batch": {...}}.
func (s *server) analyze(w http.ResponseWriter, r *http.Request) {
	input := analyzesurvey.Input{SurveyID: mux.Vars(r)["surveyId"]}

	limit := s.maxBody
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body exceeds limit")
			return
		}
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		input.SurveyID = mux.Vars(r)["surveyId"]
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	output, err := s.analyzer.Execute(ctx, &input)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		s.logger.Warn("analysis request failed", map[string]interface{}{
			"surveyId": input.SurveyID,
			"code":     stdErr.Code,
			"error":    stdErr.Error(),
		})
		writeJSON(w, statusFor(stdErr.Code), map[string]interface{}{
			"code":    stdErr.Code,
			"message": stdErr.Message,
			"details": stdErr.Details,
		})
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInputInvalid:
		return http.StatusBadRequest
	case apperrors.ErrCodeSurveyNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeBatchLoadFailed, apperrors.ErrCodeCollaboratorUnavailable, apperrors.ErrCodeCollaboratorTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
