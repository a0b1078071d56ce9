package propgate

import (
	"context"
	"time"
)

// HealthStatus is an on-demand backend health result. When no rate-limit
// store is configured, RedisAvailable is false and RedisLatency is zero;
// the gateway itself is still healthy in that state.
type HealthStatus struct {
	RedisConfigured bool
	RedisAvailable  bool
	RedisLatency    time.Duration
}

// Health pings the rate-limit store. Safe on a nil engine.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.redis == nil {
		return HealthStatus{}
	}

	start := time.Now()
	err := e.redis.Ping(ctx).Err()
	return HealthStatus{
		RedisConfigured: true,
		RedisAvailable:  err == nil,
		RedisLatency:    time.Since(start),
	}
}
