package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ===== Run Lock Adapter =====

// RunLockAdapter implements out.RunLockPort on Redis SET NX. Cron
// triggers can overlap (a slow run plus the next tick, or a manual
// trigger during a scheduled one); the lock makes the second caller
// bail out instead of double-processing.
type RunLockAdapter struct {
	client *redis.Client
}

func NewRunLockAdapter(client *redis.Client) *RunLockAdapter {
	return &RunLockAdapter{client: client}
}

func (a *RunLockAdapter) Acquire(ctx context.Context, name string, ttlSec int) (bool, error) {
	return a.client.SetNX(ctx, "runlock:"+name, time.Now().UTC().Format(time.RFC3339),
		time.Duration(ttlSec)*time.Second).Result()
}

func (a *RunLockAdapter) Release(ctx context.Context, name string) error {
	return a.client.Del(ctx, "runlock:"+name).Err()
}
