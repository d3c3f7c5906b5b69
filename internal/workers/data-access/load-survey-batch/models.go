// internal/workers/data-access/load-survey-batch/models.go
package loadsurveybatch

import "github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

type Input struct {
	SurveyID string `json:"surveyId"`
}

type Output struct {
	Batch          models.Batch `json:"batch"`
	RecordCount    int          `json:"recordCount"`
	SessionCount   int          `json:"sessionCount"`
	SkippedRecords int          `json:"skippedRecords"`
}
