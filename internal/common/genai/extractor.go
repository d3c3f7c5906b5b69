// Package genai talks to the signal extraction collaborator: the GenAI service
// (or an LLM directly) that turns a theme's responses into candidate signals.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/validation"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

var (
	ErrExtractionFailed  = errors.New("EXTRACTION_FAILED")
	ErrExtractionTimeout = errors.New("EXTRACTION_TIMEOUT")
	ErrInvalidResponse   = errors.New("INVALID_EXTRACTION_RESPONSE")
)

// Extractor returns candidate signals for the records of one theme.
// Implementations must be safe for concurrent use.
type Extractor interface {
	ExtractSignals(ctx context.Context, req ExtractionRequest) ([]models.CandidateSignal, error)
}

type RecordRef struct {
	ID             string                `json:"id"`
	Text           string                `json:"text"`
	SentimentLabel models.SentimentLabel `json:"sentimentLabel,omitempty"`
	SentimentScore float64               `json:"sentimentScore"`
}

// ExtractionRequest is the collaborator wire shape:
// {themeId, responses: [{id, text, sentimentScore}]}. surveyId and
// sentimentLabel ride along as extra fields.
type ExtractionRequest struct {
	SurveyID  string      `json:"surveyId,omitempty"`
	ThemeID   string      `json:"themeId"`
	Responses []RecordRef `json:"responses"`
}

// NewExtractionRequest builds the collaborator request for a theme.
func NewExtractionRequest(surveyID, themeID string, records []models.FeedbackRecord) ExtractionRequest {
	refs := make([]RecordRef, 0, len(records))
	for _, r := range records {
		refs = append(refs, RecordRef{
			ID:             r.ID,
			Text:           r.Text,
			SentimentLabel: r.SentimentLabel,
			SentimentScore: r.SentimentScore,
		})
	}
	return ExtractionRequest{SurveyID: surveyID, ThemeID: themeID, Responses: refs}
}

type signalsResponse struct {
	Signals []models.CandidateSignal `json:"signals"`
}

var responseValidator = validation.MustValidator(validation.CandidateSignalsSchema)

// decodeSignals validates body against the response schema and decodes it.
func decodeSignals(body []byte) ([]models.CandidateSignal, error) {
	res, err := responseValidator.ValidateBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !res.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, res.Error())
	}

	var out signalsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return out.Signals, nil
}
