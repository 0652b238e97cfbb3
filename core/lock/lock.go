package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotAcquired is returned when a key stays busy past the wait limit.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serializes work per key.
type Locker interface {
	// Acquire blocks until key is held or ctx ends. The returned release func is idempotent.
	Acquire(ctx context.Context, key string) (func(), error)
}

// New returns a Redis-backed locker when a URL is configured, otherwise an in-process one.
func New(cfg Config, logger *zap.Logger) (Locker, error) {
	if cfg.RedisURL == "" {
		return NewKeyedMutex(), nil
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return NewRedisLocker(client, time.Duration(cfg.TTLSeconds)*time.Second, time.Duration(cfg.WaitSeconds)*time.Second).WithLogger(logger), nil
}

type slot struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker keyed by string.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

func (k *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.unref(key, s)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.unref(key, s)
		})
	}, nil
}

func (k *KeyedMutex) unref(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}
