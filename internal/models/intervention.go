// internal/models/intervention.go
package models

type EffortLevel string

const (
	EffortVeryLow EffortLevel = "very_low"
	EffortLow     EffortLevel = "low"
	EffortMedium  EffortLevel = "medium"
	EffortHigh    EffortLevel = "high"
)

// Valid reports whether the effort level is known.
func (e EffortLevel) Valid() bool {
	switch e {
	case EffortVeryLow, EffortLow, EffortMedium, EffortHigh:
		return true
	}
	return false
}

// IsLow reports whether the effort qualifies for a quick win.
func (e EffortLevel) IsLow() bool {
	return e == EffortVeryLow || e == EffortLow
}

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities so that low < medium < high < critical.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Intervention is a recommended action addressing one or more root causes.
type Intervention struct {
	ID              string      `json:"id"`
	ThemeID         string      `json:"themeId"`
	Title           string      `json:"title"`
	RootCauseIDs    []string    `json:"rootCauseIds"`
	EstimatedImpact float64     `json:"estimatedImpact"`
	EffortLevel     EffortLevel `json:"effortLevel"`
	Priority        Priority    `json:"priority"`
	QuickWin        bool        `json:"quickWin"`
	Timeline        string      `json:"timeline"`
	ActionSteps     []string    `json:"actionSteps"`
	SuccessMetrics  []string    `json:"successMetrics"`
}
