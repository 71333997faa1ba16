package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/launchpadhq/roundtable/core"
	"github.com/redis/go-redis/v9"
)

// snapshotKeyPrefix namespaces session snapshots in Redis.
const snapshotKeyPrefix = "session:"

// RedisStateStore persists session snapshots in Redis as JSON values with
// an optional TTL. It satisfies the same contract as MemoryStateStore and
// is suited to deployments where the service restarts must not lose the
// per-client session layout.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore constructs a store over an existing client. ttl of 0
// keeps snapshots until explicitly deleted.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: ttl}
}

// NewRedisStateStoreFromURL dials Redis from a redis:// URL.
func NewRedisStateStoreFromURL(url string, ttl time.Duration) (*RedisStateStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisStateStore(redis.NewClient(opts), ttl), nil
}

// Save implements StateStore.
func (s *RedisStateStore) Save(ctx context.Context, clientID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKeyPrefix+clientID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Load implements StateStore.
func (s *RedisStateStore) Load(ctx context.Context, clientID string) (Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKeyPrefix+clientID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("snapshot for client %s: %w", clientID, core.ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Delete implements StateStore.
func (s *RedisStateStore) Delete(ctx context.Context, clientID string) error {
	if err := s.client.Del(ctx, snapshotKeyPrefix+clientID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStateStore) Close() error { return s.client.Close() }
