//go:build e2e

package lock_test

import (
	"context"
	"testing"
	"time"

	"villa-booking/internal/infra/lock"
	"villa-booking/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	addr, err := c.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLocker(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	t.Run("second holder waits for release", func(t *testing.T) {
		l := lock.NewRedisLocker(client, 5*time.Second, 2*time.Second)

		release, err := l.Acquire(ctx, "lock:property:1")
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			r, err := l.Acquire(ctx, "lock:property:1")
			if assert.NoError(t, err) {
				r()
			}
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("lock acquired while held")
		case <-time.After(150 * time.Millisecond):
		}
		release()
		<-acquired
	})

	t.Run("times out", func(t *testing.T) {
		l := lock.NewRedisLocker(client, 5*time.Second, 100*time.Millisecond)

		release, err := l.Acquire(ctx, "lock:property:2")
		require.NoError(t, err)
		defer release()

		_, err = l.Acquire(ctx, "lock:property:2")
		assert.True(t, errs.Is(err, lock.ErrLockTimeout))
	})

	t.Run("expired lock is not released by its old holder", func(t *testing.T) {
		l := lock.NewRedisLocker(client, 100*time.Millisecond, time.Second)

		stale, err := l.Acquire(ctx, "lock:property:3")
		require.NoError(t, err)
		time.Sleep(200 * time.Millisecond)

		fresh, err := l.Acquire(ctx, "lock:property:3")
		require.NoError(t, err)
		defer fresh()

		stale()
		exists, err := client.Exists(ctx, "lock:property:3").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
	})
}
