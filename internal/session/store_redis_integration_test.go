//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mngkeeper/internal/session"
	dErrors "mngkeeper/pkg/domain-errors"
	"mngkeeper/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.Store
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	cache := session.NewRedisCache(s.redis.Client, "test:")
	s.store = session.NewStore(cache,
		session.WithDefaultTTL(time.Hour),
		session.WithSlidingExpiry(false, 30*time.Minute),
	)
}

func (s *RedisStoreSuite) TestCreateGetRoundTrip() {
	ctx := context.Background()

	id, err := s.store.Create(ctx, &session.Data{
		UserID:   "u-1",
		DomainID: "dom-1",
		Username: "alice",
		Roles:    []string{"admins"},
	}, 0)
	s.Require().NoError(err)
	s.Require().NotEmpty(id)

	got, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal("u-1", got.UserID)
	s.Equal("dom-1", got.DomainID)
	s.Equal("alice", got.Username)
	s.Equal([]string{"admins"}, got.Roles)
	s.False(got.CreatedAt.IsZero())
}

func (s *RedisStoreSuite) TestSessionExpiresInRedis() {
	ctx := context.Background()

	id, err := s.store.Create(ctx, &session.Data{UserID: "u-1"}, time.Second)
	s.Require().NoError(err)

	_, err = s.store.Get(ctx, id)
	s.Require().NoError(err)

	time.Sleep(1500 * time.Millisecond)

	_, err = s.store.Get(ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RedisStoreSuite) TestUpdatePreservesTTL() {
	ctx := context.Background()

	id, err := s.store.Create(ctx, &session.Data{UserID: "u-1", Username: "alice"}, time.Hour)
	s.Require().NoError(err)

	data, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	data.Username = "alice-renamed"
	s.Require().NoError(s.store.Update(ctx, id, data))

	ttl, err := s.redis.Client.TTL(ctx, "test:session:"+id).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Minute)
	s.LessOrEqual(ttl, time.Hour)

	got, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal("alice-renamed", got.Username)
}

func (s *RedisStoreSuite) TestTTLDistinguishesPersistentFromMissing() {
	ctx := context.Background()
	cache := session.NewRedisCache(s.redis.Client, "test:")

	s.Require().NoError(s.redis.Client.Set(ctx, "test:session:forever", "{}", 0).Err())

	ttl, err := cache.TTL(ctx, "session:forever")
	s.Require().NoError(err)
	s.Equal(time.Duration(0), ttl)

	_, err = cache.TTL(ctx, "session:absent")
	s.ErrorIs(err, session.ErrCacheMiss)
}

func (s *RedisStoreSuite) TestActiveSessionsPrunesExpiredIDs() {
	ctx := context.Background()

	live, err := s.store.Create(ctx, &session.Data{UserID: "u-1"}, time.Hour)
	s.Require().NoError(err)
	stale, err := s.store.Create(ctx, &session.Data{UserID: "u-1"}, time.Hour)
	s.Require().NoError(err)

	// Expire one session key behind the store's back, as Redis would.
	s.Require().NoError(s.redis.Client.Del(ctx, "test:session:"+stale).Err())

	ids, err := s.store.ActiveSessionsForUser(ctx, "u-1")
	s.Require().NoError(err)
	s.Equal([]string{live}, ids)

	// The stale id is gone from the index too, not just filtered out.
	members, err := s.redis.Client.SMembers(ctx, "test:user_sessions:u-1").Result()
	s.Require().NoError(err)
	s.Equal([]string{live}, members)
}

func (s *RedisStoreSuite) TestInvalidateAllForUser() {
	ctx := context.Background()

	first, err := s.store.Create(ctx, &session.Data{UserID: "u-1"}, time.Hour)
	s.Require().NoError(err)
	second, err := s.store.Create(ctx, &session.Data{UserID: "u-1"}, time.Hour)
	s.Require().NoError(err)
	other, err := s.store.Create(ctx, &session.Data{UserID: "u-2"}, time.Hour)
	s.Require().NoError(err)

	s.Require().NoError(s.store.InvalidateAllForUser(ctx, "u-1"))

	for _, id := range []string{first, second} {
		valid, err := s.store.IsValid(ctx, id)
		s.Require().NoError(err)
		s.False(valid)
	}

	valid, err := s.store.IsValid(ctx, other)
	s.Require().NoError(err)
	s.True(valid)
}
