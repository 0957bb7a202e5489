package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a best-effort distributed mutex used to keep one scheduler
// replica per tick. Correctness never depends on it: the database markers do.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name string) error
}

type redisLocker struct {
	redis *redis.Client
	owner string
}

func NewRedisLocker(redisClient *redis.Client, owner string) Locker {
	return &redisLocker{redis: redisClient, owner: owner}
}

func (l *redisLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return l.redis.SetNX(ctx, lockKeyPrefix+name, l.owner, ttl).Result()
}

// Unlock only deletes the key when this owner still holds it. The compare
// and delete run as one script so an expired lock taken over by another
// replica is left alone.
func (l *redisLocker) Unlock(ctx context.Context, name string) error {
	return releaseScript.Run(ctx, l.redis, []string{lockKeyPrefix + name}, l.owner).Err()
}
