package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	trustScoreKeyPrefix = "trust:score:"
	defaultTrustTTL     = 5 * time.Minute
)

// TrustScoreCache holds recently read trust scores so ranking many rides
// does not hit the users table once per driver.
type TrustScoreCache interface {
	GetScores(ctx context.Context, userIDs []string) (map[string]float64, error)
	SetScore(ctx context.Context, userID string, score float64) error
	Invalidate(ctx context.Context, userID string) error
}

type trustScoreCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewTrustScoreCache(redisClient *redis.Client, ttl time.Duration) TrustScoreCache {
	if ttl <= 0 {
		ttl = defaultTrustTTL
	}
	return &trustScoreCache{redis: redisClient, ttl: ttl}
}

// GetScores returns the cached subset of userIDs; misses are simply absent.
func (c *trustScoreCache) GetScores(ctx context.Context, userIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = trustScoreKeyPrefix + id
	}
	values, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		score, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		out[userIDs[i]] = score
	}
	return out, nil
}

func (c *trustScoreCache) SetScore(ctx context.Context, userID string, score float64) error {
	return c.redis.Set(ctx, trustScoreKeyPrefix+userID, strconv.FormatFloat(score, 'f', -1, 64), c.ttl).Err()
}

func (c *trustScoreCache) Invalidate(ctx context.Context, userID string) error {
	return c.redis.Del(ctx, trustScoreKeyPrefix+userID).Err()
}
