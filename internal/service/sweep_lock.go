package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSweepLockHeld means another process is currently sweeping
var ErrSweepLockHeld = errors.New("sweep lock held by another process")

// SweepLock guards the periodic sweep so that at most one process runs it at
// a time, even when the scheduler is deployed on multiple instances.
type SweepLock interface {
	WithLock(ctx context.Context, fn func(ctx context.Context) error) error
}

type redisSweepLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisSweepLock(client *redis.Client, ttl time.Duration) SweepLock {
	return &redisSweepLock{
		client: client,
		key:    "scheduler:sweep:lock",
		ttl:    ttl,
	}
}

func (l *redisSweepLock) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		return ErrSweepLockHeld
	}

	defer func() {
		_ = l.release(ctx, token)
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

// unlockScript deletes the lock only when it still holds our token, so an
// expired lock reacquired by another process is never released by us.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisSweepLock) release(ctx context.Context, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{l.key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release sweep lock: %w", err)
	}
	return nil
}
