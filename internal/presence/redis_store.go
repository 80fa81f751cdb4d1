package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed presence store. Every Put
// refreshes the key's TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "presence:",
		ttl:    ttl,
	}
}

func (r *RedisStore) key(connectionID string) string {
	return r.prefix + connectionID
}

func (r *RedisStore) Put(ctx context.Context, s Snapshot) error {
	if s.ConnectionID == "" {
		return fmt.Errorf("presence: missing connection_id")
	}
	if r.ttl <= 0 {
		return fmt.Errorf("presence: ttl must be positive")
	}

	data, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("presence: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(s.ConnectionID), data, r.ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, connectionID string) (*Snapshot, error) {
	val, err := r.client.Get(ctx, r.key(connectionID)).Bytes()
	if err == redis.Nil {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var s Snapshot
	if err := msgpack.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("presence: failed to unmarshal: %w", err)
	}

	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, connectionID string) error {
	return r.client.Del(ctx, r.key(connectionID)).Err()
}
