package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stepwise/stepwise-backend/internal/logger"
)

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is the multi-instance Locker: SET NX with a TTL, polled until
// acquired. The TTL bounds how long a crashed holder can wedge a key.
type RedisLocker struct {
	client *redis.Client
	log    *logger.Logger
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(addr string, log *logger.Logger) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisLocker{
		client: client,
		log:    log.With("component", "RedisLocker"),
		ttl:    10 * time.Second,
		retry:  25 * time.Millisecond,
	}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := "lock:" + key

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", lockKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	release := func() {
		// Release outlives the request context on purpose.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{lockKey}, token).Err(); err != nil {
			l.log.Warn("Failed to release lock", "key", lockKey, "error", err)
		}
	}
	return release, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
