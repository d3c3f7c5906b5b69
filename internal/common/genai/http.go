package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/http"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

const extractPath = "/api/ai/extract-signals"

type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	MaxRetries int
	// Timeout bounds a single attempt; zero leaves it to the caller's context.
	Timeout time.Duration
	// BaseBackoff is doubled on every retry.
	BaseBackoff time.Duration
}

// HTTPExtractor calls the GenAI service over HTTP.
type HTTPExtractor struct {
	config HTTPConfig
	client *httpclient.Client
	logger logger.Logger
}

func NewHTTPExtractor(cfg HTTPConfig, log logger.Logger) *HTTPExtractor {
	if cfg.BaseBackoff == 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}
	return &HTTPExtractor{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout).WithBearerToken(cfg.APIKey),
		logger: log.WithFields(map[string]interface{}{"extractor": "http"}),
	}
}

func (e *HTTPExtractor) ExtractSignals(ctx context.Context, req ExtractionRequest) ([]models.CandidateSignal, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	url := strings.TrimRight(e.config.BaseURL, "/") + extractPath

	var lastErr error
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := e.config.BaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrExtractionTimeout
			}
		}

		payload, status, err := e.client.PostJSON(ctx, url, body)
		if err == nil && status == http.StatusOK {
			signals, decodeErr := decodeSignals(payload)
			if decodeErr != nil {
				// a malformed answer will not improve on retry
				return nil, decodeErr
			}
			e.logger.Debug("signals extracted", map[string]interface{}{
				"themeId":     req.ThemeID,
				"signalCount": len(signals),
				"attempt":     attempt + 1,
			})
			return signals, nil
		}

		if ctx.Err() != nil {
			return nil, ErrExtractionTimeout
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("status %d", status)
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
				break
			}
		}

		e.logger.Warn("signal extraction attempt failed", map[string]interface{}{
			"themeId": req.ThemeID,
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})
	}

	return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, lastErr)
}
