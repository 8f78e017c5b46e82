package replay

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var markSeenDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "drip_replay_mark_seen_duration_ms",
	Help:    "Latency of signature replay checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const signatureKeyPrefix = "drip:sig:"

// RedisGuard shares seen signatures across instances.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

// MarkSeen sets the signature key only if absent (SET NX with expiry), so
// exactly one of several concurrent presentations wins.
func (g *RedisGuard) MarkSeen(ctx context.Context, sig string, ttl time.Duration) (bool, error) {
	start := time.Now()
	defer func() {
		markSeenDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if err := validateTTL(ttl); err != nil {
		return false, err
	}
	set, err := g.client.SetNX(ctx, signatureKeyPrefix+sig, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
