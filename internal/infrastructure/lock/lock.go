package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired means another holder owns the lock.
	ErrNotAcquired = errors.New("lock not acquired")
	ErrEmptyKey    = errors.New("lock key cannot be empty")
)

// Locker runs fn while holding a named distributed lock.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// RedisLocker implements Locker with redsync over a single go-redis client.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedisLocker(client *redis.Client, expiry time.Duration) *RedisLocker {
	if expiry <= 0 {
		expiry = time.Minute
	}
	return &RedisLocker{rs: redsync.New(goredis.NewPool(client)), expiry: expiry}
}

// WithLock tries once; if the lock is taken it returns ErrNotAcquired without running fn.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if key == "" {
		return ErrEmptyKey
	}
	m := l.rs.NewMutex(key, redsync.WithExpiry(l.expiry), redsync.WithTries(1))
	if err := m.LockContext(ctx); err != nil {
		// taken, expired and unreachable nodes all mean we do not own the lock
		return fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
	}
	defer func() { _, _ = m.UnlockContext(context.Background()) }()
	return fn(ctx)
}
