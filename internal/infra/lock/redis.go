package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/commands"

	"github.com/redis/go-redis/v9"
)

const retryInterval = 50 * time.Millisecond

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker holds locks across instances. Keys expire after ttl so a crashed
// holder cannot block a property forever.
type RedisLocker struct {
	client      redis.UniversalClient
	ttl         time.Duration
	waitTimeout time.Duration
}

func NewRedisClient(cfg config.LockConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func NewRedisLocker(client redis.UniversalClient, ttl, waitTimeout time.Duration) *RedisLocker {
	return &RedisLocker{
		client:      client,
		ttl:         ttl,
		waitTimeout: waitTimeout,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(l.waitTimeout)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, errs.Wrapf(err, "redis lock %s", key)
		}
		if ok {
			break
		}
		if l.waitTimeout > 0 && time.Now().After(deadline) {
			return nil, errs.Wrapf(ErrLockTimeout, "key %s", key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			slog.Warn("failed to release redis lock", "key", key, "error", err.Error())
		}
	}, nil
}

func newToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", errs.Wrap(err, "failed to generate lock token")
	}
	return hex.EncodeToString(buf[:]), nil
}

var _ commands.Locker = (*RedisLocker)(nil)
