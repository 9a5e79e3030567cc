package cache

import (
	"context"
	"datalingua/internal/engine"
	"datalingua/internal/logger"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another request holds the respondent's session
var ErrLocked = errors.New("fill-in session is busy")

// FillCache keeps in-progress fill-in sessions between requests
type FillCache interface {
	Get(ctx context.Context, surveyID, respondentID string) (*engine.State, error)
	Set(ctx context.Context, surveyID, respondentID string, state *engine.State) error
	Delete(ctx context.Context, surveyID, respondentID string) error
	// Lock serializes requests for one respondent; the returned func releases it
	Lock(ctx context.Context, surveyID, respondentID string) (func(), error)
}

type fillCache struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewFillCache creates a new fill-in session cache
func NewFillCache(client *redis.Client) FillCache {
	return &fillCache{
		client:  client,
		ttl:     24 * time.Hour,
		lockTTL: 10 * time.Second,
	}
}

// Key helpers
func (c *fillCache) stateKey(surveyID, respondentID string) string {
	return fmt.Sprintf("survey:%s:r:%s:fill", surveyID, respondentID)
}

func (c *fillCache) lockKey(surveyID, respondentID string) string {
	return fmt.Sprintf("survey:%s:r:%s:lock", surveyID, respondentID)
}

func (c *fillCache) Get(ctx context.Context, surveyID, respondentID string) (*engine.State, error) {
	data, err := c.client.Get(ctx, c.stateKey(surveyID, respondentID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state engine.State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *fillCache) Set(ctx context.Context, surveyID, respondentID string, state *engine.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.stateKey(surveyID, respondentID), data, c.ttl).Err()
}

func (c *fillCache) Delete(ctx context.Context, surveyID, respondentID string) error {
	return c.client.Del(ctx, c.stateKey(surveyID, respondentID)).Err()
}

// releaseScript deletes the lock only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *fillCache) Lock(ctx context.Context, surveyID, respondentID string) (func(), error) {
	key := c.lockKey(surveyID, respondentID)
	token := uuid.New().String()

	ok, err := c.client.SetNX(ctx, key, token, c.lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return release(c.client, key, token), nil
}

// release deletes the lock only while it still holds token. A failure leaves
// the lock to expire after lockTTL.
func release(client redis.Scripter, key, token string) func() {
	return func() {
		if err := releaseScript.Run(context.Background(), client, []string{key}, token).Err(); err != nil {
			logger.WithError(err).WithField("key", key).Warn("failed to release fill-in lock")
		}
	}
}
