package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

const extractionSystemPrompt = `You analyse employee feedback for a single theme.
Group the responses into signals. For every signal return:
- text: one sentence describing the signal
- polarity: "friction", "strength" or "pattern"
- evidenceIds: the ids of the responses that voice it (only ids you were given)
- confidence: integer 1-5
- mergeKey: a short kebab-case key shared by signals that say the same thing
- cause: the underlying cause label for friction signals
- recommendation: one concrete action for friction signals

Answer with JSON only, shaped as {"signals": [...]}.`

// NewLLMModel creates a langchaingo model for the configured provider.
func NewLLMModel(cfg config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
		}
		m, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return m, nil

	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("OpenAI API key required")
		}
		m, err := openai.New(openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return m, nil

	case "anthropic":
		if cfg.APIKey == "" {
			return nil, errors.New("Anthropic API key required")
		}
		m, err := anthropic.New(anthropic.WithToken(cfg.APIKey), anthropic.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// LLMExtractor asks a language model directly for candidate signals.
type LLMExtractor struct {
	model  llms.Model
	logger logger.Logger
}

func NewLLMExtractor(model llms.Model, log logger.Logger) *LLMExtractor {
	return &LLMExtractor{
		model:  model,
		logger: log.WithFields(map[string]interface{}{"extractor": "llm"}),
	}
}

func (e *LLMExtractor) ExtractSignals(ctx context.Context, req ExtractionRequest) ([]models.CandidateSignal, error) {
	records, err := json.Marshal(req.Responses)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, extractionSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf("Theme: %s\nResponses:\n%s", req.ThemeID, records)),
	}

	resp, err := e.model.GenerateContent(ctx, messages, llms.WithTemperature(0), llms.WithJSONMode())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrExtractionTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices", ErrExtractionFailed)
	}

	signals, err := decodeSignals([]byte(stripCodeFence(resp.Choices[0].Content)))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("signals extracted", map[string]interface{}{
		"themeId":     req.ThemeID,
		"signalCount": len(signals),
	})
	return signals, nil
}

// stripCodeFence removes a ```json fence some models wrap around answers.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
