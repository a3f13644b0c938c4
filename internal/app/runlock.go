/**
 * @description
 * Distributed run lock backed by Redis. Exactly one collections run may hold
 * the lock at a time, so a cron double-fire or an overlapping manual trigger
 * cannot double-process invoices. The lock is acquired with SET NX PX and
 * released with a Lua script that only deletes the key when the token still
 * matches, so an expired lock taken over by another run is never released by
 * the old holder.
 */

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const runLockKey = "collections:run_lock"

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLock guards against overlapping collections runs.
type RunLock interface {
	// Acquire returns a release function when the lock was obtained, or
	// ok=false when another run holds it.
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

// RedisRunLock implements RunLock on a shared Redis instance.
type RedisRunLock struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisRunLock creates a run lock with the given lease duration. The TTL
// bounds how long a crashed run can block the next one.
func NewRedisRunLock(client redis.UniversalClient, ttl time.Duration) *RedisRunLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisRunLock{client: client, ttl: ttl}
}

// Acquire attempts to take the run lock.
func (l *RedisRunLock) Acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, runLockKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// Release must not inherit a cancelled run context.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseLockScript.Run(releaseCtx, l.client, []string{runLockKey}, token).Err()
	}
	return release, true, nil
}
