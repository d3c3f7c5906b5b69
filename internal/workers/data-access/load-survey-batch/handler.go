// internal/workers/data-access/load-survey-batch/handler.go
package loadsurveybatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/camunda"
	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
)

const (
	TaskType = "load-survey-batch"
)

var (
	ErrInvalidInput = errors.New("INPUT_INVALID")
)

type Handler struct {
	config       *Config
	repo         *Repository
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		repo:         NewRepository(db),
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
		h.errorHandler.HandleJobError(ctx, client, job, h.classify(input.SurveyID, err))
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
	if strings.TrimSpace(input.SurveyID) == "" {
		return nil, fmt.Errorf("%w: surveyId is required", ErrInvalidInput)
	}

	batch, skipped, err := h.repo.LoadBatch(ctx, input.SurveyID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("survey batch loaded", map[string]interface{}{
		"surveyId": input.SurveyID,
		"records":  len(batch.Records),
		"sessions": len(batch.Profiles),
		"skipped":  skipped,
	})

	return &Output{
		Batch:          *batch,
		RecordCount:    len(batch.Records),
		SessionCount:   len(batch.Profiles),
		SkippedRecords: skipped,
	}, nil
}

func (h *Handler) classify(surveyID string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInputInvalidError(err.Error())
	case errors.Is(err, ErrSurveyNotFound):
		return apperrors.NewSurveyNotFoundError(surveyID)
	default:
		return apperrors.NewBatchLoadFailedError(surveyID, err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
