package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// Unlock releases a held lock. Safe to call once per acquisition.
type Unlock func(ctx context.Context) error

// Locker serializes critical sections under a named lock. Acquire
// blocks up to wait and fails with a RESOURCE_BUSY DomainError when the
// lock cannot be obtained in time.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl, wait time.Duration) (Unlock, error)
}

const lockPollInterval = 50 * time.Millisecond

// redisLocker implements Locker with SET NX PX and a token-checked
// release so an expired lock is never released by a later holder.
type redisLocker struct {
	client *redis.Client
}

// NewRedisLocker builds a Redis-backed Locker.
func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0`)

func (l *redisLocker) Acquire(ctx context.Context, name string, ttl, wait time.Duration) (Unlock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, name, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{name}, token).Err()
			}, nil
		}
		if time.Now().Add(lockPollInterval).After(deadline) {
			return nil, apperrors.NewResourceBusy(name)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// localLocker is the process-local fallback used when Redis is not
// reachable and in tests. Same bounded-wait contract.
type localLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalLocker builds an in-process Locker.
func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]chan struct{})}
}

func (l *localLocker) Acquire(ctx context.Context, name string, ttl, wait time.Duration) (Unlock, error) {
	deadline := time.Now().Add(wait)
	for {
		l.mu.Lock()
		held, exists := l.locks[name]
		if !exists {
			released := make(chan struct{})
			l.locks[name] = released
			l.mu.Unlock()
			var once sync.Once
			return func(ctx context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, name)
					l.mu.Unlock()
					close(released)
				})
				return nil
			}, nil
		}
		l.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, apperrors.NewResourceBusy(name)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-held:
		case <-time.After(remaining):
			return nil, apperrors.NewResourceBusy(name)
		}
	}
}
