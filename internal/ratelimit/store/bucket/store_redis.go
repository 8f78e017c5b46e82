package bucket

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"drip/internal/ratelimit/models"
	dErrors "drip/pkg/domain-errors"
)

// slidingWindowScript trims the window, then admits the request when the set
// is still under the limit. It returns {allowed, count, oldest_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local first = now
if oldest[2] then first = tonumber(oldest[2]) end
return {allowed, count, first}
`)

// RedisBucketStore shares sliding windows across replicas.
type RedisBucketStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisBucketStore(client *redis.Client) *RedisBucketStore {
	return &RedisBucketStore{client: client, now: time.Now}
}

func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()
	res, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		now.UnixMilli(),
		window.Milliseconds(),
		limit,
		strconv.FormatInt(now.UnixNano(), 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "throttle window unavailable")
	}
	if len(res) != 3 {
		return nil, dErrors.New(dErrors.CodeInternal, "unexpected throttle script reply")
	}
	resetAt := time.UnixMilli(res[2]).Add(window)
	result := &models.Result{
		Allowed: res[0] == 1,
		Limit:   limit,
		ResetAt: resetAt,
	}
	if result.Allowed {
		result.Remaining = limit - int(res[1])
	} else {
		result.RetryAfter = resetAt.Sub(now)
	}
	return result, nil
}

func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
