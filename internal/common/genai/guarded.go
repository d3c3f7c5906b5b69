package genai

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/metrics"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

type GuardConfig struct {
	Name                string
	Timeout             time.Duration
	MaxRequests         uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

// GuardedExtractor bounds every call with a timeout and trips a circuit
// breaker after repeated failures. Errors are always StandardErrors with a
// COLLABORATOR_* code.
type GuardedExtractor struct {
	inner   Extractor
	timeout time.Duration
	name    string
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

func NewGuardedExtractor(inner Extractor, cfg GuardConfig, log logger.Logger) *GuardedExtractor {
	log = log.WithFields(map[string]interface{}{"extractor": cfg.Name})
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 3
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("extractor circuit breaker state changed", map[string]interface{}{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}

	return &GuardedExtractor{
		inner:   inner,
		timeout: cfg.Timeout,
		name:    cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  log,
	}
}

func (g *GuardedExtractor) ExtractSignals(ctx context.Context, req ExtractionRequest) ([]models.CandidateSignal, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.ExtractSignals(callCtx, req)
	})
	if err != nil {
		return nil, g.classify(callCtx, req.ThemeID, err)
	}

	metrics.ExtractorCalls.WithLabelValues(g.name, "success").Inc()
	signals, _ := res.([]models.CandidateSignal)
	return signals, nil
}

// State exposes the breaker state for readiness reporting.
func (g *GuardedExtractor) State() string {
	return g.breaker.State().String()
}

func (g *GuardedExtractor) classify(ctx context.Context, themeID string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ExtractorCalls.WithLabelValues(g.name, "rejected").Inc()
		return apperrors.NewCollaboratorUnavailableError(themeID, err)

	case errors.Is(err, ErrExtractionTimeout), errors.Is(ctx.Err(), context.DeadlineExceeded):
		metrics.ExtractorCalls.WithLabelValues(g.name, "timeout").Inc()
		return apperrors.NewCollaboratorTimeoutError(themeID, g.timeout)

	default:
		metrics.ExtractorCalls.WithLabelValues(g.name, "error").Inc()
		return apperrors.NewCollaboratorUnavailableError(themeID, err)
	}
}
