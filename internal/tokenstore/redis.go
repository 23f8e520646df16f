package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kitbase/authsync/pkg/database"
	"github.com/redis/go-redis/v9"
)

// redisStore keeps the token record in Redis, for deployments where the
// session layer runs server-side (web platform) and state must survive
// process restarts without local disk.
type redisStore struct {
	redis *database.Redis
	key   string
}

// NewRedis creates a token store backed by the given Redis connection.
func NewRedis(r *database.Redis, key string) Store {
	return &redisStore{redis: r, key: key}
}

func (s *redisStore) Save(ctx context.Context, rec *Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode token record: %w", err)
	}

	if err := s.redis.Client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save token record: %w", err)
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context) (*Record, error) {
	payload, err := s.redis.Client.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load token record: %w", err)
	}

	rec := &Record{}
	if err := json.Unmarshal(payload, rec); err != nil {
		return nil, fmt.Errorf("failed to decode token record: %w", err)
	}
	return rec, nil
}

func (s *redisStore) Clear(ctx context.Context) error {
	if err := s.redis.Client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear token record: %w", err)
	}
	return nil
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}

func (s *redisStore) Close() error {
	return s.redis.Close()
}
