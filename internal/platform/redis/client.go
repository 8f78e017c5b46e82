// Package redis opens the shared Redis connection used by the replay guard,
// the throttle buckets and the gateway record verifier.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"drip/internal/platform/config"
)

type Client struct {
	*redis.Client
}

// New dials cfg.URL and pings it. An empty URL means Redis is off and
// returns a nil client.
func New(ctx context.Context, cfg config.Redis) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyPool(opts, cfg)

	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

// applyPool overrides go-redis defaults only for settings that are set.
func applyPool(opts *redis.Options, cfg config.Redis) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	for _, d := range []struct {
		dst *time.Duration
		v   time.Duration
	}{
		{&opts.DialTimeout, cfg.DialTimeout},
		{&opts.ReadTimeout, cfg.ReadTimeout},
		{&opts.WriteTimeout, cfg.WriteTimeout},
	} {
		if d.v > 0 {
			*d.dst = d.v
		}
	}
}

// Health backs the /healthz redis probe.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
