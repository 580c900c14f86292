package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session bags in Redis so working memory survives
// process restarts. A zero TTL means sessions never expire, matching
// the accepted abandoned-session tradeoff; set SESSION_TTL to opt into
// time-based eviction.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) key(sessionID int64) string {
	return fmt.Sprintf("session:%d", sessionID)
}

// Get loads the bag for a session, returning an empty bag when none is
// stored.
func (s *RedisStore) Get(ctx context.Context, sessionID int64) (*Bag, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return &Bag{}, nil
	}
	if err != nil {
		return nil, err
	}

	var bag Bag
	if err := json.Unmarshal([]byte(raw), &bag); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session bag: %w", err)
	}
	return &bag, nil
}

// Set stores the bag, refreshing the eviction TTL if one is configured.
func (s *RedisStore) Set(ctx context.Context, sessionID int64, bag *Bag) error {
	raw, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("failed to marshal session bag: %w", err)
	}
	return s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err()
}

// Clear discards the session's working memory.
func (s *RedisStore) Clear(ctx context.Context, sessionID int64) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
