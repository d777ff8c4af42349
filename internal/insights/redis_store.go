package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/models"
)

// RedisResponseStore shares completed insight responses between replicas
// through Redis. It is strictly an optimization tier: every operation is
// best-effort and failures only log.
type RedisResponseStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

const responseKeyPrefix = "cricket-insights:response:"

func NewRedisResponseStore(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisResponseStore {
	return &RedisResponseStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RedisResponseStore) Get(ctx context.Context, key string) (*models.InsightResponse, bool) {
	data, err := s.client.Get(ctx, responseKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).WithField("key", shortKey(key)).Warn("Redis response lookup failed")
		}
		return nil, false
	}

	var resp models.InsightResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		s.logger.WithError(err).WithField("key", shortKey(key)).Warn("Failed to unmarshal stored response")
		return nil, false
	}
	return &resp, true
}

func (s *RedisResponseStore) Set(ctx context.Context, key string, resp models.InsightResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal response for storage")
		return
	}
	if err := s.client.Set(ctx, responseKeyPrefix+key, data, s.ttl).Err(); err != nil {
		s.logger.WithError(err).WithField("key", shortKey(key)).Warn("Failed to store response")
	}
}

// Flush deletes every stored response; called when the dataset reloads.
func (s *RedisResponseStore) Flush(ctx context.Context) {
	pattern := fmt.Sprintf("%s*", responseKeyPrefix)
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to scan stored responses for flush")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to delete stored responses")
		return
	}
	s.logger.WithField("count", len(keys)).Debug("Flushed stored responses")
}

// IsHealthy pings the Redis backend.
func (s *RedisResponseStore) IsHealthy(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}
