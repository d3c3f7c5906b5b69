// internal/workers/health-analysis/aggregate-signals/handler.go
package aggregatesignals

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
	TaskType = "aggregate-signals"
)

var (
	ErrInvalidInput = errors.New("INPUT_INVALID")
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
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
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewInputInvalidError(err.Error()))
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
	if strings.TrimSpace(input.ThemeID) == "" {
		return nil, fmt.Errorf("%w: themeId is required", ErrInvalidInput)
	}
	for i, r := range input.Records {
		if r.ThemeID != input.ThemeID {
			return nil, fmt.Errorf("%w: records[%d] belongs to theme %q", ErrInvalidInput, i, r.ThemeID)
		}
	}

	tier := input.ConfidenceTier
	if tier == "" {
		tier = models.ConfidenceLow
	}

	var insights []models.Insight
	if input.Fallback {
		insights = Fallback(input.ThemeID, input.Records, tier)
	} else {
		insights = Aggregate(input.ThemeID, input.Records, input.Candidates, tier)
	}

	h.logger.Info("signals aggregated", map[string]interface{}{
		"themeId":    input.ThemeID,
		"candidates": len(input.Candidates),
		"insights":   len(insights),
		"fallback":   input.Fallback,
	})

	return &Output{Insights: insights}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
