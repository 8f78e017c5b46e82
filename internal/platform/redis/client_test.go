package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drip/internal/platform/config"
)

func TestNewWithoutURLIsDisabled(t *testing.T) {
	c, err := New(context.Background(), config.Redis{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), config.Redis{URL: "http://not-redis"})
	assert.ErrorContains(t, err, "parse redis URL")
}

func TestApplyPoolKeepsDefaultsForZeroValues(t *testing.T) {
	opts := &redis.Options{PoolSize: 10, DialTimeout: 5 * time.Second, ReadTimeout: 3 * time.Second}
	applyPool(opts, config.Redis{PoolSize: 0, MinIdleConns: 2, ReadTimeout: time.Second})

	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, time.Second, opts.ReadTimeout)
}
