package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
)

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker takes leases with SET NX PX so several worker or CLI
// processes can share one Redis.
type RedisLocker struct {
	client  *redis.Client
	prefix  string
	retry   time.Duration
	maxWait time.Duration
}

// RedisLockerOption configures a RedisLocker.
type RedisLockerOption func(*RedisLocker)

// WithRetryInterval sets how often Acquire polls a busy key.
func WithRetryInterval(d time.Duration) RedisLockerOption {
	return func(l *RedisLocker) { l.retry = d }
}

// WithMaxWait bounds how long Acquire polls before ErrLockNotAcquired.
func WithMaxWait(d time.Duration) RedisLockerOption {
	return func(l *RedisLocker) { l.maxWait = d }
}

// NewRedisLocker creates a locker namespacing keys under prefix.
func NewRedisLocker(client *redis.Client, prefix string, opts ...RedisLockerOption) *RedisLocker {
	if prefix == "" {
		prefix = "groomly:lock"
	}
	l := &RedisLocker{client: client, prefix: prefix, retry: 50 * time.Millisecond, maxWait: 5 * time.Second}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire polls SET NX until it wins, maxWait passes, or ctx ends.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	fullKey := l.prefix + ":" + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.maxWait)

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", fullKey, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", sharedApplication.ErrLockNotAcquired, key)
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Ping checks the Redis connection for health probes.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
