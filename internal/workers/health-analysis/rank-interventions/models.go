// internal/workers/health-analysis/rank-interventions/models.go
package rankinterventions

import "github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

type Input struct {
	RootCauses []models.RootCause `json:"rootCauses"`
	// Candidates overrides the playbook suggestions when present.
	Candidates []Candidate `json:"candidates,omitempty"`
}

type Output struct {
	Interventions []models.Intervention `json:"interventions"`
	Rejected      int                   `json:"rejectedCandidates"`
}
