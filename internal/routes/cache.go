package routes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores resolved departures by callsign.
type Cache interface {
	Get(ctx context.Context, callsign string) (string, bool, error)
	Set(ctx context.Context, callsign, departure string) error
}

type memoryEntry struct {
	departure string
	expires   time.Time
}

// MemoryCache is a process local Cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache. A ttl of zero keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, callsign string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[callsign]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, callsign)
		return "", false, nil
	}
	return e.departure, true, nil
}

func (c *MemoryCache) Set(_ context.Context, callsign, departure string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{departure: departure}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[callsign] = e
	return nil
}

const (
	redisKeyPrefix = "planeview:departure:"
	redisTimeout   = 5 * time.Second
)

// RedisCache shares resolved departures between tracker instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, callsign string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	v, err := c.client.Get(ctx, redisKeyPrefix+callsign).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, callsign, departure string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return c.client.Set(ctx, redisKeyPrefix+callsign, departure, c.ttl).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
