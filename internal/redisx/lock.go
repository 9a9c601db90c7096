package redisx

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// releaseScript deletes the lock only if we still own it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// CycleLocker implements trigger.Locker with a SETNX lease so that only one
// server instance runs the evaluation cycle per minute.
type CycleLocker struct {
	client *redis.Client
	key    string
}

func NewCycleLocker(client *redis.Client, key string) *CycleLocker {
	return &CycleLocker{client: client, key: key}
}

// Acquire attempts to take the lease. The returned release function is safe
// to call even when the lease expired underneath us.
func (l *CycleLocker) Acquire(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	token := uuid.New().String()

	acquired, err := l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		if _, err := l.client.Eval(context.Background(), releaseScript, []string{l.key}, token).Result(); err != nil {
			log.Warn().Err(err).Str("key", l.key).Msg("failed to release cycle lock")
		}
	}
	return release, true, nil
}
