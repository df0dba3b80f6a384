package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopgraph/shop-graph-backend/config"
)

// Cache is an optional Redis-backed response cache for recommendation
// queries. A nil *Cache is valid and disables caching, so callers never
// branch on configuration. Cache contents are never authoritative: every
// error degrades to a miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns nil when no Redis address is configured.
func New(cfg *config.CacheConfig) *Cache {
	if cfg == nil || cfg.RedisAddr == "" {
		return nil
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
		ttl:    cfg.TTL,
	}
}

// NewWithClient wires an existing client, used by tests with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON loads key into dest. Returns false on miss, decode failure, or
// any Redis error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("[warn] cache get %s: %v", key, err)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[warn] cache decode %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON stores val under key with the configured TTL. Failures are logged
// and ignored.
func (c *Cache) SetJSON(ctx context.Context, key string, val any) {
	if c == nil {
		return
	}

	data, err := json.Marshal(val)
	if err != nil {
		log.Printf("[warn] cache encode %s: %v", key, err)
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("[warn] cache set %s: %v", key, err)
	}
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
