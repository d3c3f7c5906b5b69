// internal/workers/data-access/load-survey-batch/repository.go
package loadsurveybatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

var (
	ErrSurveyNotFound = errors.New("SURVEY_NOT_FOUND")
)

const surveyExistsQuery = `
	SELECT EXISTS (SELECT 1 FROM surveys WHERE id = $1)`

const recordsQuery = `
	SELECT r.id, r.theme_id, r.content, r.sentiment, r.sentiment_score, r.conversation_session_id
	FROM feedback_responses r
	WHERE r.survey_id = $1 AND r.theme_id IS NOT NULL
	ORDER BY r.theme_id, r.created_at, r.id`

const profilesQuery = `
	SELECT s.id, s.status, s.initial_mood, s.final_mood,
	       COUNT(DISTINCT r.id) AS exchange_count,
	       COUNT(DISTINCT r.theme_id) AS themes_explored
	FROM conversation_sessions s
	LEFT JOIN feedback_responses r ON r.conversation_session_id = s.id
	WHERE s.survey_id = $1
	GROUP BY s.id, s.status, s.initial_mood, s.final_mood
	ORDER BY s.id`

// Repository reads the analysis input of a survey from Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// LoadBatch returns every theme-tagged response and session profile of a
// survey. Responses without a sentiment score are skipped and counted.
func (r *Repository) LoadBatch(ctx context.Context, surveyID string) (*models.Batch, int, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, surveyExistsQuery, surveyID).Scan(&exists); err != nil {
		return nil, 0, fmt.Errorf("check survey: %w", err)
	}
	if !exists {
		return nil, 0, fmt.Errorf("%w: %s", ErrSurveyNotFound, surveyID)
	}

	records, skipped, err := r.loadRecords(ctx, surveyID)
	if err != nil {
		return nil, 0, err
	}
	profiles, err := r.loadProfiles(ctx, surveyID)
	if err != nil {
		return nil, 0, err
	}

	return &models.Batch{SurveyID: surveyID, Records: records, Profiles: profiles}, skipped, nil
}

func (r *Repository) loadRecords(ctx context.Context, surveyID string) ([]models.FeedbackRecord, int, error) {
	rows, err := r.db.QueryContext(ctx, recordsQuery, surveyID)
	if err != nil {
		return nil, 0, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	records := make([]models.FeedbackRecord, 0)
	skipped := 0
	for rows.Next() {
		var (
			rec       models.FeedbackRecord
			content   sql.NullString
			sentiment sql.NullString
			score     sql.NullFloat64
			sessionID sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.ThemeID, &content, &sentiment, &score, &sessionID); err != nil {
			return nil, 0, fmt.Errorf("scan response: %w", err)
		}
		if !score.Valid {
			skipped++
			continue
		}

		rec.Text = content.String
		rec.SentimentScore = score.Float64
		rec.SessionID = sessionID.String
		rec.SentimentLabel = models.SentimentLabel(sentiment.String)
		if !rec.SentimentLabel.Valid() {
			rec.SentimentLabel = models.SentimentNeutral
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate responses: %w", err)
	}
	return records, skipped, nil
}

func (r *Repository) loadProfiles(ctx context.Context, surveyID string) ([]models.ConfidenceProfile, error) {
	rows, err := r.db.QueryContext(ctx, profilesQuery, surveyID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.ConfidenceProfile, 0)
	for rows.Next() {
		var (
			p           models.ConfidenceProfile
			status      sql.NullString
			initialMood sql.NullInt64
			finalMood   sql.NullInt64
		)
		if err := rows.Scan(&p.SessionID, &status, &initialMood, &finalMood, &p.ExchangeCount, &p.ThemesExplored); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		p.Completed = status.String == "completed"
		p.MoodTracked = initialMood.Valid && finalMood.Valid
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return profiles, nil
}
