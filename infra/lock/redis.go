package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/escrow/pkg/lock"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock for multi-process deployments.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a RedisLocker. ttl bounds how long a crashed holder
// can block a key; wait bounds how long Lock polls before ErrTimeout.
func NewRedisLocker(client redis.UniversalClient, prefix string, ttl, wait time.Duration, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		wait:   wait,
		retry:  25 * time.Millisecond,
		logger: logger,
	}
}

func (r *RedisLocker) key(key string) string {
	return r.prefix + key
}

// Lock implements lock.Locker.
func (r *RedisLocker) Lock(ctx context.Context, key string) (lock.Unlock, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.wait)
	defer cancel()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, r.key(key), token, r.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if ok {
			return r.unlocker(key, token), nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, lock.ErrTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *RedisLocker) unlocker(key, token string) lock.Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.wait)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{r.key(key)}, token).Err(); err != nil {
				r.logger.Error("Redis lock release failed", "key", key, "error", err)
			}
		})
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var _ lock.Locker = (*RedisLocker)(nil)
