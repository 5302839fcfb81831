//go:build integration

package height_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"batchledger/internal/height"
	"batchledger/internal/registry/models"
	"batchledger/pkg/testutil/containers"
)

type RedisHeightSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	source *height.Redis
}

func TestRedisHeightSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisHeightSuite))
}

func (s *RedisHeightSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.source = height.NewRedis(s.redis.Client, "test:height")
}

func (s *RedisHeightSuite) SetupTest() {
	s.Require().NoError(s.redis.Reset(context.Background()))
}

func (s *RedisHeightSuite) TestUnsetKeyReadsZero() {
	h, err := s.source.Current(context.Background())
	s.Require().NoError(err)
	s.Equal(models.Height(0), h)
}

func (s *RedisHeightSuite) TestAdvanceIsShared() {
	ctx := context.Background()
	_, err := s.source.Advance(ctx, 3)
	s.Require().NoError(err)

	replica := height.NewRedis(s.redis.Client, "test:height")
	h, err := replica.Current(ctx)
	s.Require().NoError(err)
	s.Equal(models.Height(3), h)

	h, err = s.source.Advance(ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.Height(4), h)
}

func (s *RedisHeightSuite) TestAdvanceContinuesFromSeededHeight() {
	ctx := context.Background()
	s.Require().NoError(s.redis.SeedHeight(ctx, "test:height", 120))

	h, err := s.source.Current(ctx)
	s.Require().NoError(err)
	s.Equal(models.Height(120), h)

	h, err = s.source.Advance(ctx, 5)
	s.Require().NoError(err)
	s.Equal(models.Height(125), h)
}
