// internal/models/feedback.go
package models

// SentimentLabel is the sentiment class assigned to a response by the upstream NLP step.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
	SentimentMixed    SentimentLabel = "mixed"
)

// Valid reports whether the label is one of the known sentiment classes.
func (l SentimentLabel) Valid() bool {
	switch l {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentMixed:
		return true
	}
	return false
}

// FeedbackRecord is one labeled employee response. Records are never mutated by the engine.
type FeedbackRecord struct {
	ID             string         `json:"id" db:"id"`
	ThemeID        string         `json:"themeId" db:"theme_id"`
	Text           string         `json:"text" db:"content"`
	SentimentLabel SentimentLabel `json:"sentimentLabel" db:"sentiment"`
	SentimentScore float64        `json:"sentimentScore" db:"sentiment_score"`
	SessionID      string         `json:"sessionId" db:"conversation_session_id"`
}

// ConfidenceProfile describes how thoroughly a single conversation session was conducted.
type ConfidenceProfile struct {
	SessionID      string `json:"sessionId" db:"id"`
	ExchangeCount  int    `json:"exchangeCount"`
	ThemesExplored int    `json:"themesExplored"`
	Completed      bool   `json:"completed"`
	MoodTracked    bool   `json:"moodTracked"`
}

// Batch is the immutable input snapshot of one analysis run.
type Batch struct {
	SurveyID string              `json:"surveyId"`
	Records  []FeedbackRecord    `json:"records"`
	Profiles []ConfidenceProfile `json:"profiles"`
}
