package rotation

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var markUsedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "weaveid_rotation_mark_used_duration_ms",
	Help:    "Latency of refresh token rotation marks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// Redis key prefix for consumed refresh token ids.
const usedTokenKeyPrefix = "rot:jti:"

// RedisStore is a Redis-backed rotation store. This is the recommended
// implementation for distributed deployments where multiple instances must
// agree on which refresh tokens have been exchanged.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed rotation store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// MarkUsed records jti via SETNX so the check and the write are one atomic
// operation.
func (s *RedisStore) MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	start := time.Now()
	defer func() {
		markUsedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	set, err := s.client.SetNX(ctx, usedTokenKeyPrefix+jti, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
