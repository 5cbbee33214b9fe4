package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type DenylistTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	list   *Denylist
	ctx    context.Context
}

func (s *DenylistTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.list = NewDenylist(s.client)
	s.ctx = context.Background()
}

func (s *DenylistTestSuite) TearDownTest() {
	_ = s.client.Close()
}

func (s *DenylistTestSuite) TestRevokedUntilExpiry() {
	s.Require().NoError(s.list.Revoke(s.ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err := s.list.IsRevoked(s.ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	other, err := s.list.IsRevoked(s.ctx, "jti-2")
	s.Require().NoError(err)
	s.False(other)

	s.mr.FastForward(2 * time.Hour)
	revoked, err = s.list.IsRevoked(s.ctx, "jti-1")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *DenylistTestSuite) TestExpiredTokenNotStored() {
	s.Require().NoError(s.list.Revoke(s.ctx, "old", time.Now().Add(-time.Minute)))
	s.Empty(s.mr.Keys())
}

func TestDenylistTestSuite(t *testing.T) {
	suite.Run(t, new(DenylistTestSuite))
}
