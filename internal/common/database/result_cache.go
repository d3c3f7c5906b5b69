// internal/common/database/result_cache.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"

	"github.com/redis/go-redis/v9"
)

// ResultCache stores finished analyses keyed by survey and input snapshot.
// A changed snapshot produces a different key, so stale results are never
// served for new feedback.
type ResultCache interface {
	Get(ctx context.Context, surveyID, snapshot string) (*models.AnalysisResult, error)
	Set(ctx context.Context, result *models.AnalysisResult, snapshot string) error
}

type resultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, ttl time.Duration) ResultCache {
	return &resultCache{client: client, ttl: ttl}
}

func (c *resultCache) key(surveyID, snapshot string) string {
	return fmt.Sprintf("health:survey:%s:analysis:%s", surveyID, snapshot)
}

// Get returns nil, nil on a miss.
func (c *resultCache) Get(ctx context.Context, surveyID, snapshot string) (*models.AnalysisResult, error) {
	data, err := c.client.Get(ctx, c.key(surveyID, snapshot)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *resultCache) Set(ctx context.Context, result *models.AnalysisResult, snapshot string) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(result.SurveyID, snapshot), data, c.ttl).Err()
}

func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}
