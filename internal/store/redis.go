package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ScanQueueKey is the Redis list backing the scan audit queue, shared by
// the API publisher and the worker consumer.
const ScanQueueKey = "attendance:scans"

// Redis wraps the redis client behind the audit queue and health checks.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// QueueDepth reports the audit queue backlog, -1 when it cannot be read.
// A growing backlog means the worker is down or behind.
func (r *Redis) QueueDepth(ctx context.Context, key string) int64 {
	if r == nil || r.Client == nil {
		return -1
	}
	n, err := r.Client.LLen(ctx, key).Result()
	if err != nil {
		return -1
	}
	return n
}
