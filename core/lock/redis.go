package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "classroom-sync:lock:"

// Deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Pushes the expiry forward only while the key still carries our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker holds keys with SET NX PX so imports for one teacher are
// serialized across every process sharing the Redis instance. A held key is
// extended every third of its TTL until released, so the TTL only bounds how
// long a crashed holder blocks others.
type RedisLocker struct {
	client  *redis.Client
	ttl     time.Duration
	wait    time.Duration
	retry   time.Duration
	refresh time.Duration
	logger  *zap.Logger
}

// NewRedisLocker creates a RedisLocker. Zero durations fall back to defaults.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if wait <= 0 {
		wait = 30 * time.Second
	}
	return &RedisLocker{
		client:  client,
		ttl:     ttl,
		wait:    wait,
		retry:   50 * time.Millisecond,
		refresh: ttl / 3,
		logger:  zap.NewNop(),
	}
}

// WithLogger sets the logger used to report failed lock renewals.
func (r *RedisLocker) WithLogger(logger *zap.Logger) *RedisLocker {
	if logger != nil {
		r.logger = logger
	}
	return r
}

func (r *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key

	waitCtx, cancel := context.WithTimeout(ctx, r.wait)
	defer cancel()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(waitCtx, redisKey, token, r.ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(redisKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// The caller's context may already be done; release regardless.
			_ = releaseScript.Run(context.Background(), r.client, []string{redisKey}, token).Err()
		})
	}, nil
}

// keepAlive extends redisKey until stop is closed or the token is gone.
func (r *RedisLocker) keepAlive(redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.refresh)
		extended, err := extendScript.Run(ctx, r.client, []string{redisKey}, token, r.ttl.Milliseconds()).Int64()
		cancel()

		switch {
		case err != nil:
			r.logger.Warn("failed to extend lock", zap.String("key", redisKey), zap.Error(err))
		case extended == 0:
			r.logger.Warn("lock lost before release", zap.String("key", redisKey))
			return
		}
	}
}
