package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	model "github.com/okian/tally/internal/domain/model"
	types "github.com/okian/tally/internal/domain/types"
)

const (
	redisStore = "redis"

	// Sorted set ordered ascending by played - wins*winWeight, so ZRANGE
	// yields wins desc, played asc, then member name asc.
	leaderboardKey  = "tally:leaderboard"
	playerKeyPrefix = "tally:player:"
	winWeight       = 1_000_000
)

// RedisConfig holds configuration for the Redis records store.
type RedisConfig struct {
	RedisClient *redis.Client
}

// RedisStore is a RecordsStore on a Redis sorted set plus one hash per player.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore validates the client and checks the connection.
func NewRedisStore(ctx context.Context, cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil || cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if err := cfg.RedisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: cfg.RedisClient}, nil
}

func playerKey(key string) string {
	return playerKeyPrefix + key
}

// RecordResult updates the hash and the sorted set in one MULTI.
func (s *RedisStore) RecordResult(ctx context.Context, name string, won bool) error {
	defer observe(redisStore, "record_result", time.Now())
	key := recordKey(name)
	if key == "" {
		return &model.ValidationError{Field: "name", Reason: "is required"}
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		queueResult(ctx, pipe, key, name, won)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

// RecordResults folds a whole session result into one MULTI, so either every
// player is counted or none is.
func (s *RedisStore) RecordResults(ctx context.Context, players []string, winner string) error {
	defer observe(redisStore, "record_results", time.Now())
	keys, err := resultKeys(players)
	if err != nil {
		return err
	}
	win := recordKey(winner)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			queueResult(ctx, pipe, key, players[i], key == win)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record results: %w", err)
	}
	return nil
}

func queueResult(ctx context.Context, pipe redis.Pipeliner, key, name string, won bool) {
	delta := 1.0
	wins := int64(0)
	if won {
		delta -= winWeight
		wins = 1
	}
	pk := playerKey(key)
	pipe.HSetNX(ctx, pk, "name", strings.TrimSpace(name))
	pipe.HIncrBy(ctx, pk, "played", 1)
	pipe.HIncrBy(ctx, pk, "won", wins)
	pipe.ZIncrBy(ctx, leaderboardKey, delta, key)
}

func recordFromHash(h map[string]string) types.Record {
	played, _ := strconv.Atoi(h["played"])
	won, _ := strconv.Atoi(h["won"])
	return types.Record{Name: h["name"], GamesPlayed: played, GamesWon: won}
}

// Rank returns the record and its 1-based rank.
func (s *RedisStore) Rank(ctx context.Context, name string) (types.Record, error) {
	defer observe(redisStore, "rank", time.Now())
	key := recordKey(name)
	idx, err := s.client.ZRank(ctx, leaderboardKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return types.Record{}, model.NotFound("player", name)
	}
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to rank player: %w", err)
	}
	h, err := s.client.HGetAll(ctx, playerKey(key)).Result()
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to get player: %w", err)
	}
	rec := recordFromHash(h)
	rec.Rank = int(idx) + 1
	return rec, nil
}

// TopN returns the best n records.
func (s *RedisStore) TopN(ctx context.Context, n int) ([]types.Record, error) {
	defer observe(redisStore, "top_n", time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	keys, err := s.client.ZRange(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, playerKey(k))
	}
	if len(keys) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to read players: %w", err)
		}
	}

	out := make([]types.Record, 0, len(keys))
	for i, cmd := range cmds {
		rec := recordFromHash(cmd.Val())
		rec.Rank = i + 1
		out = append(out, rec)
	}
	return out, nil
}

// Count returns the number of players, or 0 when Redis is unreachable.
func (s *RedisStore) Count(ctx context.Context) int {
	n, err := s.client.ZCard(ctx, leaderboardKey).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
