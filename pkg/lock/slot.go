// Package lock provides per-slot mutual exclusion across API replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired means another request holds the slot.
	ErrLockNotAcquired = errors.New("slot lock not acquired")
	// ErrLockUnavailable wraps failures talking to the lock backend.
	ErrLockUnavailable = errors.New("slot lock backend unavailable")
)

// SlotLocker guards a critical section for one slot.
type SlotLocker interface {
	WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisSlotLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisSlotLocker returns a locker that holds a SETNX key per slot for at
// most ttl. fn runs with a context bounded by the same ttl.
func NewRedisSlotLocker(client redis.UniversalClient, ttl time.Duration) SlotLocker {
	return &redisSlotLocker{client: client, ttl: ttl, prefix: "ehr:lock:slot:"}
}

func (l *redisSlotLocker) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	key := l.prefix + slotID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	if !ok {
		return ErrLockNotAcquired
	}
	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	return fn(lockCtx)
}

// Deletes the key only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *redisSlotLocker) release(ctx context.Context, key, token string) error {
	if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

type noopLocker struct{}

// NoopSlotLocker runs fn directly. Used when Redis is not configured; the
// store's compare-and-set still decides the winner.
func NoopSlotLocker() SlotLocker { return noopLocker{} }

func (noopLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
