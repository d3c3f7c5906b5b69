// internal/workers/health-analysis/synthesize-root-causes/handler.go
package synthesizerootcauses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/camunda"
	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
)

const (
	TaskType = "synthesize-root-causes"
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
	seen := make(map[string]bool, len(input.Themes))
	for i, t := range input.Themes {
		if t.Stats.ThemeID == "" {
			return nil, fmt.Errorf("%w: themes[%d].stats.themeId is required", ErrInvalidInput, i)
		}
		if seen[t.Stats.ThemeID] {
			return nil, fmt.Errorf("%w: duplicate theme %s", ErrInvalidInput, t.Stats.ThemeID)
		}
		seen[t.Stats.ThemeID] = true
	}

	causes := Synthesize(input.Themes, h.config.Weights)

	h.logger.Info("root causes synthesized", map[string]interface{}{
		"themes":     len(input.Themes),
		"rootCauses": len(causes),
	})

	return &Output{RootCauses: causes}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
