package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	_ Locker = (*KeyedMutex)(nil)
	_ Locker = (*RedisLocker)(nil)
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	locker := NewKeyedMutex()
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "teacher:a")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Empty(t, locker.slots)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	locker := NewKeyedMutex()
	releaseA, err := locker.Acquire(context.Background(), "teacher:a")
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := locker.Acquire(context.Background(), "teacher:b")
	require.NoError(t, err)
	releaseB()
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	locker := NewKeyedMutex()
	release, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	release()

	again, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestRedisLocker(t *testing.T) {
	server, client := newRedis(t)
	locker := NewRedisLocker(client, time.Minute, 100*time.Millisecond)

	release, err := locker.Acquire(context.Background(), "teacher:a")
	require.NoError(t, err)
	assert.True(t, server.Exists(keyPrefix+"teacher:a"))

	_, err = locker.Acquire(context.Background(), "teacher:a")
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	assert.False(t, server.Exists(keyPrefix+"teacher:a"))

	release2, err := locker.Acquire(context.Background(), "teacher:a")
	require.NoError(t, err)
	release2()
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	server, client := newRedis(t)
	locker := NewRedisLocker(client, time.Minute, 100*time.Millisecond)

	release, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)

	// Simulate expiry followed by another holder.
	require.NoError(t, server.Set(keyPrefix+"k", "someone-else"))
	release()

	got, err := server.Get(keyPrefix + "k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_ExtendsWhileHeld(t *testing.T) {
	server, client := newRedis(t)
	locker := NewRedisLocker(client, 300*time.Millisecond, 100*time.Millisecond)

	release, err := locker.Acquire(context.Background(), "teacher:a")
	require.NoError(t, err)

	// Most of the TTL passes in Redis; the holder must push it back out.
	server.FastForward(250 * time.Millisecond)
	require.Eventually(t, func() bool {
		return server.TTL(keyPrefix+"teacher:a") > 150*time.Millisecond
	}, time.Second, 10*time.Millisecond)

	server.FastForward(250 * time.Millisecond)
	assert.True(t, server.Exists(keyPrefix+"teacher:a"))

	_, err = locker.Acquire(context.Background(), "teacher:a")
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	assert.False(t, server.Exists(keyPrefix+"teacher:a"))
}

func TestRedisLocker_StopsExtendingForeignToken(t *testing.T) {
	server, client := newRedis(t)
	locker := NewRedisLocker(client, 300*time.Millisecond, 100*time.Millisecond)

	release, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	require.NoError(t, server.Set(keyPrefix+"k", "someone-else"))
	time.Sleep(250 * time.Millisecond)

	assert.Zero(t, server.TTL(keyPrefix+"k"))
}

func TestNew(t *testing.T) {
	t.Run("In process", func(t *testing.T) {
		l, err := New(Config{}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &KeyedMutex{}, l)
	})

	t.Run("Redis", func(t *testing.T) {
		server, _ := newRedis(t)
		l, err := New(Config{RedisURL: "redis://" + server.Addr(), TTLSeconds: 10, WaitSeconds: 1}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &RedisLocker{}, l)
	})

	t.Run("Bad URL", func(t *testing.T) {
		_, err := New(Config{RedisURL: "://nope"}, nil)
		assert.Error(t, err)
	})
}
