package sessionctx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store with one Redis hash per context.
// It lets a results view on one host read the context a run wrote on another.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	logger    Logger
}

// NewRedisStore creates a Redis-backed context store.
// If keyPrefix is empty, defaults to "idptest:ctx:". A zero ttl keeps contexts forever.
func NewRedisStore(client redis.UniversalClient, keyPrefix string, ttl time.Duration, logger Logger) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "idptest:ctx:"
	}
	if logger == nil {
		logger = NoOpLogger()
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *RedisStore) makeKey(contextID string) string {
	if contextID == "" {
		return s.keyPrefix + "default"
	}
	return s.keyPrefix + contextID
}

// Get returns the value of key in the context hash.
func (s *RedisStore) Get(ctx context.Context, contextID, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, s.makeKey(contextID), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s from redis: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key and refreshes the context TTL.
func (s *RedisStore) Set(ctx context.Context, contextID, key, value string) error {
	redisKey := s.makeKey(contextID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, redisKey, key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, redisKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store %s in redis: %w", key, err)
	}

	s.logger.Debugf("Saved %s to redis hash %s (TTL: %v)", key, redisKey, s.ttl)
	return nil
}

// Clear deletes the context hash.
func (s *RedisStore) Clear(ctx context.Context, contextID string) error {
	if err := s.client.Del(ctx, s.makeKey(contextID)).Err(); err != nil {
		return fmt.Errorf("failed to delete context from redis: %w", err)
	}
	return nil
}

// Exists checks if the context hash exists.
func (s *RedisStore) Exists(ctx context.Context, contextID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.makeKey(contextID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check context in redis: %w", err)
	}
	return n > 0, nil
}
