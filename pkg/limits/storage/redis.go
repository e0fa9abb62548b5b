package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces rate-limit keys in a shared Redis.
const DefaultRedisPrefix = "beacon:ratelimit:"

// hitScript increments the window counter and starts the window on the
// first hit. A key that lost its TTL is given one again.
var hitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore implements Store on Redis, sharing windows across replicas.
// Keys expire natively, so Sweep has nothing to do.
type RedisStore struct {
	client *redis.Client
	prefix string
	owned  bool
}

// RedisStoreConfig configures the Redis store.
type RedisStoreConfig struct {
	// URL is a redis:// URL. Ignored when Client is set.
	URL string

	// Client is an existing client to use instead of dialing URL.
	Client *redis.Client

	// Prefix namespaces keys.
	// Default: DefaultRedisPrefix
	Prefix string
}

// NewRedisStore creates a Redis store.
func NewRedisStore(cfg RedisStoreConfig) (*RedisStore, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultRedisPrefix
	}

	if cfg.Client != nil {
		return &RedisStore{client: cfg.Client, prefix: cfg.Prefix}, nil
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("redis url cannot be empty")
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &RedisStore{client: redis.NewClient(opt), prefix: cfg.Prefix, owned: true}, nil
}

// Hit records one request for key. The window is measured by the Redis
// server clock; now only anchors the returned ResetAt.
func (r *RedisStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error) {
	if key == "" {
		return Entry{}, ErrEmptyKey
	}

	res, err := hitScript.Run(ctx, r.client, []string{r.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record hit: %w", err)
	}
	if len(res) != 2 {
		return Entry{}, fmt.Errorf("unexpected hit script reply: %v", res)
	}

	return Entry{
		Key:     key,
		Count:   res[0],
		ResetAt: now.Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

// Sweep is a no-op; Redis expires keys itself.
func (r *RedisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// Len counts keys under the store prefix.
func (r *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 1000).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan keys: %w", err)
	}
	return n, nil
}

// Ping checks the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client if the store created it.
func (r *RedisStore) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
