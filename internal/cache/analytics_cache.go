package cache

import (
	"context"
	"datalingua/internal/model"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AnalyticsCache holds computed dashboards until the next response arrives
type AnalyticsCache interface {
	Get(ctx context.Context, surveyID string) (*model.SurveyAnalytics, error)
	Set(ctx context.Context, analytics *model.SurveyAnalytics) error
	Invalidate(ctx context.Context, surveyID string) error
}

type analyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a new analytics cache
func NewAnalyticsCache(client *redis.Client) AnalyticsCache {
	return &analyticsCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

func (c *analyticsCache) key(surveyID string) string {
	return fmt.Sprintf("survey:%s:analytics", surveyID)
}

func (c *analyticsCache) Get(ctx context.Context, surveyID string) (*model.SurveyAnalytics, error) {
	data, err := c.client.Get(ctx, c.key(surveyID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var analytics model.SurveyAnalytics
	if err := json.Unmarshal([]byte(data), &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

func (c *analyticsCache) Set(ctx context.Context, analytics *model.SurveyAnalytics) error {
	data, err := json.Marshal(analytics)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(analytics.SurveyID), data, c.ttl).Err()
}

func (c *analyticsCache) Invalidate(ctx context.Context, surveyID string) error {
	return c.client.Del(ctx, c.key(surveyID)).Err()
}
