//go:build integration

package replay_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"drip/internal/auth/replay"
	"drip/pkg/testutil/containers"
)

type RedisGuardSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	guard *replay.RedisGuard
}

func TestRedisGuardSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisGuardSuite))
}

func (s *RedisGuardSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.guard = replay.NewRedisGuard(s.redis.Client)
}

func (s *RedisGuardSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisGuardSuite) TestConcurrentPresentationsAdmitOne() {
	const workers = 20
	var (
		wg    sync.WaitGroup
		fresh atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen, err := s.guard.MarkSeen(context.Background(), "sig", time.Minute)
			s.NoError(err)
			if !seen {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), fresh.Load())
}
