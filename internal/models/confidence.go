// internal/models/confidence.go
package models

// ConfidenceTier classifies how much a feedback sample can be trusted.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// Rank orders tiers so that low < medium < high.
func (t ConfidenceTier) Rank() int {
	switch t {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// SessionConfidence is the scored tier of a single session.
type SessionConfidence struct {
	SessionID string         `json:"sessionId"`
	Score     int            `json:"score"`
	Tier      ConfidenceTier `json:"tier"`
}

// ConfidenceSummary aggregates session confidence over a set of sessions.
type ConfidenceSummary struct {
	TotalSessions          int            `json:"totalSessions"`
	HighConfidenceCount    int            `json:"highConfidenceCount"`
	MediumConfidenceCount  int            `json:"mediumConfidenceCount"`
	LowConfidenceCount     int            `json:"lowConfidenceCount"`
	AverageConfidenceScore float64        `json:"averageConfidenceScore"`
	Tier                   ConfidenceTier `json:"tier"`
}
