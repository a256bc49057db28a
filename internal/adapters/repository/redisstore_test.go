package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	model "github.com/okian/tally/internal/domain/model"
)

type RedisStoreTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	store  *RedisStore
	ctx    context.Context
}

func (s *RedisStoreTestSuite) SetupTest() {
	var err error
	s.mr, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.ctx = context.Background()

	s.store, err = NewRedisStore(s.ctx, &RedisConfig{RedisClient: s.client})
	require.NoError(s.T(), err)
}

func (s *RedisStoreTestSuite) TearDownTest() {
	_ = s.client.Close()
	s.mr.Close()
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (s *RedisStoreTestSuite) TestNewRedisStoreRejectsNilClient() {
	_, err := NewRedisStore(s.ctx, nil)
	assert.Error(s.T(), err)
	_, err = NewRedisStore(s.ctx, &RedisConfig{})
	assert.Error(s.T(), err)
}

func (s *RedisStoreTestSuite) TestNewRedisStoreFailsWhenUnreachable() {
	other, err := miniredis.Run()
	require.NoError(s.T(), err)
	client := redis.NewClient(&redis.Options{Addr: other.Addr()})
	other.Close()
	_, err = NewRedisStore(s.ctx, &RedisConfig{RedisClient: client})
	assert.Error(s.T(), err)
	_ = client.Close()
}

func (s *RedisStoreTestSuite) TestRecordResultAndRank() {
	require.NoError(s.T(), s.store.RecordResult(s.ctx, "Alice", true))
	require.NoError(s.T(), s.store.RecordResult(s.ctx, "Bob", false))
	require.NoError(s.T(), s.store.RecordResult(s.ctx, "alice", false))

	alice, err := s.store.Rank(s.ctx, "ALICE")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Alice", alice.Name)
	assert.Equal(s.T(), 2, alice.GamesPlayed)
	assert.Equal(s.T(), 1, alice.GamesWon)
	assert.Equal(s.T(), 1, alice.Rank)

	bob, err := s.store.Rank(s.ctx, "Bob")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, bob.Rank)
	assert.Equal(s.T(), 0, bob.GamesWon)

	assert.Equal(s.T(), 2, s.store.Count(s.ctx))
}

func (s *RedisStoreTestSuite) TestRecordResultRejectsBlankName() {
	err := s.store.RecordResult(s.ctx, "  ", true)
	assert.True(s.T(), errors.Is(err, model.ErrValidation))
}

func (s *RedisStoreTestSuite) TestRecordResults() {
	require.NoError(s.T(), s.store.RecordResults(s.ctx, []string{"Alice", "Bob"}, "bob"))

	bob, err := s.store.Rank(s.ctx, "Bob")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, bob.GamesWon)
	assert.Equal(s.T(), 1, bob.Rank)

	alice, err := s.store.Rank(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, alice.GamesPlayed)
	assert.Equal(s.T(), 0, alice.GamesWon)
}

func (s *RedisStoreTestSuite) TestRecordResultsIsAllOrNothing() {
	err := s.store.RecordResults(s.ctx, []string{"Alice", " "}, "Alice")
	assert.True(s.T(), errors.Is(err, model.ErrValidation))
	assert.Equal(s.T(), 0, s.store.Count(s.ctx))

	s.mr.SetError("READONLY")
	err = s.store.RecordResults(s.ctx, []string{"Alice", "Bob"}, "Alice")
	assert.Error(s.T(), err)
	s.mr.SetError("")
	assert.Equal(s.T(), 0, s.store.Count(s.ctx))
}

func (s *RedisStoreTestSuite) TestRankUnknownPlayer() {
	_, err := s.store.Rank(s.ctx, "nobody")
	assert.True(s.T(), errors.Is(err, model.ErrNotFound))
}

func (s *RedisStoreTestSuite) TestTopNOrdering() {
	// carol: 2 wins in 3; dave: 2 wins in 2; erin: 0 wins in 1
	for _, r := range []struct {
		name string
		won  bool
	}{
		{"carol", true}, {"carol", true}, {"carol", false},
		{"dave", true}, {"dave", true},
		{"erin", false},
	} {
		require.NoError(s.T(), s.store.RecordResult(s.ctx, r.name, r.won))
	}

	top, err := s.store.TopN(s.ctx, 2)
	require.NoError(s.T(), err)
	require.Len(s.T(), top, 2)
	assert.Equal(s.T(), "dave", top[0].Name)
	assert.Equal(s.T(), 1, top[0].Rank)
	assert.Equal(s.T(), "carol", top[1].Name)
	assert.Equal(s.T(), 2, top[1].Rank)

	all, err := s.store.TopN(s.ctx, 10)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 3)
	assert.Equal(s.T(), "erin", all[2].Name)
}

func (s *RedisStoreTestSuite) TestTopNInvalidLimit() {
	_, err := s.store.TopN(s.ctx, 0)
	assert.ErrorIs(s.T(), err, ErrInvalidLimit)
}

func (s *RedisStoreTestSuite) TestTopNEmpty() {
	top, err := s.store.TopN(s.ctx, 5)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), top)
	assert.Equal(s.T(), 0, s.store.Count(s.ctx))
}
