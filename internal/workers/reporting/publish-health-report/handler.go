// internal/workers/reporting/publish-health-report/handler.go
package publishhealthreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/camunda"
	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

const (
	TaskType = "publish-health-report"
)

var (
	ErrInvalidInput = errors.New("INPUT_INVALID")
	ErrIndexFailed  = errors.New("REPORT_PUBLISH_FAILED")
)

// Indexer stores a JSON document under an id. *database.ElasticsearchClient
// satisfies it.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, body []byte) (string, error)
}

type Handler struct {
	config       *Config
	indexer      Indexer
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, indexer Indexer, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		indexer:      indexer,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewInputInvalidError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		var jobErr error = apperrors.NewReportPublishFailedError(err)
		if errors.Is(err, ErrInvalidInput) {
			jobErr = apperrors.NewInputInvalidError(err.Error())
		}
		h.errorHandler.HandleJobError(ctx, client, job, jobErr)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	surveyID := strings.TrimSpace(input.Analysis.SurveyID)
	if surveyID == "" {
		return nil, fmt.Errorf("%w: analysis.surveyId is required", ErrInvalidInput)
	}

	body, err := json.Marshal(BuildDocument(&input.Analysis))
	if err != nil {
		return nil, fmt.Errorf("%w: encode report: %v", ErrIndexFailed, err)
	}

	result, err := h.indexer.IndexDocument(ctx, h.config.Index, surveyID, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}

	h.logger.Info("health report published", map[string]interface{}{
		"surveyId": surveyID,
		"index":    h.config.Index,
		"result":   result,
		"bytes":    len(body),
	})

	return &Output{Index: h.config.Index, DocumentID: surveyID, Result: result}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func BuildDocument(result *models.AnalysisResult) ReportDocument {
	doc := ReportDocument{
		SurveyID:       result.SurveyID,
		ConfidenceTier: result.Confidence.Tier,
		ThemeCount:     len(result.Themes),
		DegradedThemes: make([]string, 0),
		CriticalThemes: make([]string, 0),
		Analysis:       *result,
	}
	for _, t := range result.Themes {
		if t.Degraded {
			doc.DegradedThemes = append(doc.DegradedThemes, t.Stats.ThemeID)
		}
	}
	doc.CriticalThemes = append(doc.CriticalThemes, result.CriticalThemes()...)
	for _, iv := range result.Interventions {
		if iv.QuickWin {
			doc.QuickWins++
		}
	}
	return doc
}
