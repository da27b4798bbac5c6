// Package kv implements the key-value store adapter backing sessions, core
// blocks, locks, and counters. It is a direct generalization of the
// teacher's RedisRepository (db/repository/redis.go): same client
// construction, same SetNX lock pattern, same JSON-marshal-on-write /
// JSON-unmarshal-on-read cache convention, extended with the generic
// get/set/del/keys/scan surface and sorted-set primitives the spec's KV
// adapter contract requires.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Adapter is the KV store adapter.
type Adapter struct {
	client *redis.Client
}

// New creates a KV adapter, verifying connectivity like NewRedisRepository.
func New(redisURL string) (*Adapter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("kv: failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("kv: failed to connect to Redis: %w", err)
	}

	return &Adapter{client: client}, nil
}

// Close releases the underlying Redis connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Get retrieves the raw string value for key.
func (a *Adapter) Get(ctx context.Context, key string) (string, error) {
	val, err := a.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("kv: key %q not found", key)
	}
	return val, err
}

// Set stores value under key with an optional ttl (0 means no expiry).
func (a *Adapter) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return a.client.Set(ctx, key, value, ttl).Err()
}

// Del deletes one or more keys.
func (a *Adapter) Del(ctx context.Context, keys ...string) error {
	return a.client.Del(ctx, keys...).Err()
}

// Keys returns every key matching pattern. Scan should be preferred for
// large keyspaces; Keys exists for small, bounded lookups (e.g. a single
// agent's session index).
func (a *Adapter) Keys(ctx context.Context, pattern string) ([]string, error) {
	return a.client.Keys(ctx, pattern).Result()
}

// Scan iterates every key matching pattern without blocking the server,
// using SCAN's cursor protocol under the hood.
func (a *Adapter) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := a.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("kv: scan %q: %w", pattern, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// SetJSON marshals value and stores it under key, the same
// marshal-then-Set convention as SetCache.
func (a *Adapter) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv: marshal %q: %w", key, err)
	}
	return a.client.Set(ctx, key, data, ttl).Err()
}

// GetJSON reads key and unmarshals it into dest.
func (a *Adapter) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := a.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return fmt.Errorf("kv: key %q not found", key)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SAdd adds members to the set at key.
func (a *Adapter) SAdd(ctx context.Context, key string, members ...interface{}) error {
	return a.client.SAdd(ctx, key, members...).Err()
}

// SMembers returns every member of the set at key.
func (a *Adapter) SMembers(ctx context.Context, key string) ([]string, error) {
	return a.client.SMembers(ctx, key).Result()
}

// ZAdd adds a member to the sorted set at key with the given score, used
// for the per-scope session recency index.
func (a *Adapter) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return a.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// ZRevRange returns members of the sorted set at key ordered by score
// descending, within [start, stop] (inclusive, 0-indexed).
func (a *Adapter) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return a.client.ZRevRange(ctx, key, start, stop).Result()
}

// Incr atomically increments the counter at key and returns its new value.
func (a *Adapter) Incr(ctx context.Context, key string) (int64, error) {
	return a.client.Incr(ctx, key).Result()
}

// AcquireLock sets key with NX semantics, succeeding only if no lock
// currently holds it, mirroring AcquireLock in db/repository/redis.go.
func (a *Adapter) AcquireLock(ctx context.Context, lockID string, ttl time.Duration) (bool, error) {
	return a.client.SetNX(ctx, "lock:"+lockID, time.Now().Format(time.RFC3339), ttl).Result()
}

// ReleaseLock releases a lock previously acquired by AcquireLock.
func (a *Adapter) ReleaseLock(ctx context.Context, lockID string) error {
	return a.client.Del(ctx, "lock:"+lockID).Err()
}

// KNNSearch runs a cosine-distance KNN search over a FT.CREATE'd vector
// index through the generic Do command path, the same escape hatch
// store/vector uses for RediSearch commands go-redis has no typed method
// for.
func (a *Adapter) KNNSearch(ctx context.Context, index string, queryVector []byte, topK int, filterExpr string) (interface{}, error) {
	args := []interface{}{
		"FT.SEARCH", index, fmt.Sprintf("(%s)=>[KNN %d @embedding $vec]", filterExpr, topK),
		"PARAMS", "2", "vec", string(queryVector),
		"DIALECT", "2",
	}
	return a.client.Do(ctx, args...).Result()
}
