// internal/workers/health-analysis/analyze-survey/handler.go
package analyzesurvey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/camunda"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/database"
	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/genai"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/metrics"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/observability"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/validation"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
	loadsurveybatch "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/data-access/load-survey-batch"
)

const TaskType = "analyze-survey"

var (
	ErrInvalidInput     = errors.New("INPUT_INVALID")
	ErrNoBatchSource    = errors.New("NO_BATCH_SOURCE")
	ErrSurveyIDMismatch = errors.New("SURVEY_ID_MISMATCH")
)

var batchValidator = validation.MustValidator(validation.BatchSchema)

// BatchLoader fetches a survey batch from storage. It returns the number of
// rows it had to skip alongside the batch.
type BatchLoader interface {
	LoadBatch(ctx context.Context, surveyID string) (*models.Batch, int, error)
}

type Handler struct {
	config       *Config
	pipeline     *Pipeline
	loader       BatchLoader
	cache        database.ResultCache
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
	configDigest string
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Config        *Config
	Extractor     genai.Extractor
	Loader        BatchLoader
	Cache         database.ResultCache
	Observability *observability.Observability
	Logger        logger.Logger
}

// NewHandler wires the pipeline. Config wins over AppConfig; with neither
// the defaults are used. Loader and Cache are optional.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil && opts.AppConfig != nil {
		var err error
		cfg, err = ConfigFromAnalysis(opts.AppConfig.Analysis, config.GetWorkerConfig(opts.AppConfig, TaskType).Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
		}
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:       cfg,
		pipeline:     NewPipeline(cfg, opts.Extractor, opts.Observability, log),
		loader:       opts.Loader,
		cache:        opts.Cache,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errorHandler: apperrors.NewErrorHandler(log),
		configDigest: cfg.Digest(),
	}, nil
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
	start := time.Now()
	output, err := h.run(ctx, input)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.AnalysisRuns.WithLabelValues("failed").Inc()
		return nil, h.classify(input.SurveyID, err)
	case output.Degraded:
		metrics.AnalysisRuns.WithLabelValues("degraded").Inc()
	default:
		metrics.AnalysisRuns.WithLabelValues("ok").Inc()
	}
	return output, nil
}

func (h *Handler) run(ctx context.Context, input *Input) (*Output, error) {
	batch, skipped, err := h.batch(ctx, input)
	if err != nil {
		return nil, err
	}

	snapshot := Snapshot(batch, skipped, h.configDigest)
	if cached := h.lookup(ctx, batch.SurveyID, snapshot); cached != nil {
		out := newOutput(cached)
		out.Cached = true
		return out, nil
	}

	result, err := h.pipeline.Run(ctx, batch)
	if err != nil {
		return nil, err
	}
	result.RejectedRecords += skipped

	if h.cache != nil {
		if err := h.cache.Set(ctx, result, snapshot); err != nil {
			h.logger.Warn("failed to cache analysis", map[string]interface{}{
				"surveyId": batch.SurveyID,
				"error":    err.Error(),
			})
		}
	}
	return newOutput(result), nil
}

// batch decodes the inline batch when present, otherwise loads it.
func (h *Handler) batch(ctx context.Context, input *Input) (*models.Batch, int, error) {
	if len(input.Batch) > 0 && string(input.Batch) != "null" {
		result, err := batchValidator.ValidateBytes(input.Batch)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if !result.Valid {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidInput, result.Error())
		}
		var batch models.Batch
		if err := json.Unmarshal(input.Batch, &batch); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if input.SurveyID != "" && input.SurveyID != batch.SurveyID {
			return nil, 0, fmt.Errorf("%w: %s != %s", ErrSurveyIDMismatch, input.SurveyID, batch.SurveyID)
		}
		return &batch, 0, nil
	}

	if strings.TrimSpace(input.SurveyID) == "" {
		return nil, 0, fmt.Errorf("%w: surveyId or batch is required", ErrInvalidInput)
	}
	if h.loader == nil {
		return nil, 0, ErrNoBatchSource
	}
	return h.loader.LoadBatch(ctx, input.SurveyID)
}

func (h *Handler) lookup(ctx context.Context, surveyID, snapshot string) *models.AnalysisResult {
	if h.cache == nil {
		return nil
	}
	cached, err := h.cache.Get(ctx, surveyID, snapshot)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("analysis cache lookup failed", map[string]interface{}{
			"surveyId": surveyID,
			"error":    err.Error(),
		})
		return nil
	case cached == nil:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	default:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		h.logger.Debug("analysis served from cache", map[string]interface{}{"surveyId": surveyID})
		return cached
	}
}

func newOutput(result *models.AnalysisResult) *Output {
	critical := result.CriticalThemes()
	if critical == nil {
		critical = []string{}
	}
	degraded := false
	for _, t := range result.Themes {
		degraded = degraded || t.Degraded
	}
	return &Output{
		Analysis:       *result,
		CriticalThemes: critical,
		HasCritical:    len(critical) > 0,
		Degraded:       degraded,
	}
}

func (h *Handler) classify(surveyID string, err error) error {
	var stdErr *apperrors.StandardError
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrSurveyIDMismatch):
		return apperrors.NewInputInvalidError(err.Error())
	case errors.Is(err, loadsurveybatch.ErrSurveyNotFound):
		return apperrors.NewSurveyNotFoundError(surveyID)
	case errors.Is(err, ErrNoBatchSource):
		return apperrors.NewBatchLoadFailedError(surveyID, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.NewAnalysisFailedError(err)
	default:
		return apperrors.NewBatchLoadFailedError(surveyID, err)
	}
}

// Execute runs the analysis outside a job, for the REST endpoint and CLI.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
