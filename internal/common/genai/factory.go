// internal/common/genai/factory.go
package genai

import (
	"errors"
	"fmt"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
)

// ErrNotConfigured is returned for the http extractor when no GenAI base URL
// is set. Callers then run without an extractor.
var ErrNotConfigured = errors.New("signal extractor not configured")

// NewFromConfig builds the extractor selected by analysis.extractor and wraps
// it in the timeout and circuit breaker guard.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*GuardedExtractor, error) {
	var (
		inner Extractor
		name  = cfg.Analysis.Extractor
	)

	switch name {
	case "", "http":
		if cfg.APIs.GenAI.BaseURL == "" {
			return nil, ErrNotConfigured
		}
		name = "http"
		inner = NewHTTPExtractor(HTTPConfig{
			BaseURL:    cfg.APIs.GenAI.BaseURL,
			APIKey:     cfg.APIs.GenAI.APIKey,
			MaxRetries: cfg.APIs.GenAI.MaxRetries,
			Timeout:    config.GetDuration(cfg.APIs.GenAI.Timeout),
		}, log)

	case "llm":
		model, err := NewLLMModel(cfg.APIs.LLM)
		if err != nil {
			return nil, err
		}
		inner = NewLLMExtractor(model, log)

	default:
		return nil, fmt.Errorf("unsupported extractor: %s", name)
	}

	b := cfg.Analysis.Breaker
	return NewGuardedExtractor(inner, GuardConfig{
		Name:                name,
		Timeout:             config.GetDuration(cfg.Analysis.ExtractorTimeout),
		MaxRequests:         b.MaxRequests,
		Interval:            config.GetDuration(b.Interval),
		OpenTimeout:         config.GetDuration(b.OpenTimeout),
		ConsecutiveFailures: b.ConsecutiveFailures,
	}, log), nil
}
