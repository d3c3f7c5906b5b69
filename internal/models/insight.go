// internal/models/insight.go
package models

// SignalKind is the sentiment bucket of an insight.
type SignalKind string

const (
	SignalFriction SignalKind = "friction"
	SignalStrength SignalKind = "strength"
	SignalPattern  SignalKind = "pattern"
)

// SignalKinds lists the buckets in output order.
var SignalKinds = []SignalKind{SignalFriction, SignalStrength, SignalPattern}

// CandidateSignal is a raw signal returned by the extraction collaborator.
type CandidateSignal struct {
	Text           string     `json:"text"`
	Polarity       SignalKind `json:"polarity"`
	EvidenceIDs    []string   `json:"evidenceIds"`
	Confidence     int        `json:"confidence"`
	MergeKey       string     `json:"mergeKey,omitempty"`
	Cause          string     `json:"cause,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
}

// Insight is a deduplicated, weighted signal for one theme.
type Insight struct {
	ID             string     `json:"id"`
	ThemeID        string     `json:"themeId"`
	Text           string     `json:"text"`
	Sentiment      SignalKind `json:"sentiment"`
	AgreementPct   int        `json:"agreementPct"`
	VoiceCount     int        `json:"voiceCount"`
	Confidence     int        `json:"confidence"`
	EvidenceIDs    []string   `json:"evidenceIds"`
	Cause          string     `json:"cause,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
	Fallback       bool       `json:"fallback,omitempty"`
}
