// internal/workers/health-analysis/rank-interventions/handler.go
package rankinterventions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/camunda"
	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/metrics"
)

const (
	TaskType = "rank-interventions"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config.Playbook == nil {
		config.Playbook = DefaultPlaybook()
	}
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
		h.errorHandler.HandleJobError(ctx, client, job, err)
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
	candidates := input.Candidates
	if len(candidates) == 0 {
		candidates = h.config.Playbook.Suggest(input.RootCauses)
	}

	interventions, rejected := Rank(input.RootCauses, candidates, h.config.Options)
	for _, c := range rejected {
		metrics.InvariantViolations.WithLabelValues("intervention", "rootCauseId").Inc()
		h.logger.Error("intervention candidate rejected", map[string]interface{}{
			"error":       apperrors.NewInvariantViolationError("intervention", "rootCauseId", c.RootCauseID).Error(),
			"title":       c.Title,
			"rootCauseId": c.RootCauseID,
		})
	}

	quickWins := 0
	for _, iv := range interventions {
		if iv.QuickWin {
			quickWins++
		}
	}
	h.logger.Info("interventions ranked", map[string]interface{}{
		"rootCauses":    len(input.RootCauses),
		"interventions": len(interventions),
		"quickWins":     quickWins,
		"rejected":      len(rejected),
	})

	return &Output{Interventions: interventions, Rejected: len(rejected)}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
