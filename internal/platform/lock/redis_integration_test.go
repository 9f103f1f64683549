//go:build integration

package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kiosk/internal/platform/lock"
	"kiosk/pkg/platform/sentinel"
	"kiosk/pkg/testutil/containers"
)

type RedisLockSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	locker *lock.Redis
}

func TestRedisLockSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockSuite))
}

func (s *RedisLockSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.locker = lock.NewRedis(s.redis.Client)
}

func (s *RedisLockSuite) SetupTest() {
	s.Require().NoError(s.redis.ClearLocks(context.Background()))
}

func (s *RedisLockSuite) TestSecondAcquireConflicts() {
	ctx := context.Background()
	release, err := s.locker.Acquire(ctx, "hash-1", time.Minute)
	s.Require().NoError(err)

	_, err = s.locker.Acquire(ctx, "hash-1", time.Minute)
	s.ErrorIs(err, sentinel.ErrConflict)

	s.Require().NoError(release(ctx))
	release, err = s.locker.Acquire(ctx, "hash-1", time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(release(ctx))

	keys, err := s.redis.LockKeys(ctx)
	s.Require().NoError(err)
	s.Empty(keys, "release deletes the key")
}

func (s *RedisLockSuite) TestAcquireSetsTTL() {
	ctx := context.Background()
	release, err := s.locker.Acquire(ctx, "hash-4", 30*time.Second)
	s.Require().NoError(err)
	defer func() { _ = release(ctx) }()

	ttl, err := s.redis.LockTTL(ctx, "hash-4")
	s.Require().NoError(err)
	s.Greater(ttl, 25*time.Second)
	s.LessOrEqual(ttl, 30*time.Second)

	keys, err := s.redis.LockKeys(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"kiosk:lock:hash-4"}, keys)
}

func (s *RedisLockSuite) TestLockExpires() {
	ctx := context.Background()
	_, err := s.locker.Acquire(ctx, "hash-2", 100*time.Millisecond)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		release, err := s.locker.Acquire(ctx, "hash-2", time.Minute)
		if err != nil {
			return false
		}
		_ = release(ctx)
		return true
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisLockSuite) TestStaleReleaseKeepsNewHolder() {
	ctx := context.Background()
	stale, err := s.locker.Acquire(ctx, "hash-3", 100*time.Millisecond)
	s.Require().NoError(err)
	time.Sleep(200 * time.Millisecond)

	_, err = s.locker.Acquire(ctx, "hash-3", time.Minute)
	s.Require().NoError(err)

	s.Require().NoError(stale(ctx))
	_, err = s.locker.Acquire(ctx, "hash-3", time.Minute)
	s.ErrorIs(err, sentinel.ErrConflict)
}
