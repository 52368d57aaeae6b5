package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// New creates a new Redis client.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// JSONCache stores JSON documents under a key prefix and collapses concurrent fills.
type JSONCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

// NewJSONCache returns a cache writing keys as prefix+":"+key.
func NewJSONCache(client *redis.Client, prefix string, ttl time.Duration) *JSONCache {
	return &JSONCache{client: client, prefix: prefix, ttl: ttl}
}

// Fetch decodes the cached value for key into dst, calling load on a miss and storing its result.
// A nil cache or an unreachable Redis degrades to calling load directly.
func (c *JSONCache) Fetch(ctx context.Context, key string, dst any, load func(context.Context) (any, error)) error {
	if c == nil || c.client == nil {
		return fill(ctx, dst, load)
	}
	fullKey := c.key(key)
	raw, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		return json.Unmarshal(raw, dst)
	}
	if !errors.Is(err, redis.Nil) {
		return fill(ctx, dst, load)
	}

	v, err, _ := c.group.Do(fullKey, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		// A failed write only costs a reload on the next read.
		_ = c.client.Set(ctx, fullKey, data, c.ttl).Err()
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dst)
}

// Invalidate drops the given keys.
func (c *JSONCache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}
	return c.client.Del(ctx, full...).Err()
}

// InvalidatePattern drops every key matching prefix:pattern.
func (c *JSONCache) InvalidatePattern(ctx context.Context, pattern string) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, c.key(pattern), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *JSONCache) key(k string) string {
	return c.prefix + ":" + k
}

func fill(ctx context.Context, dst any, load func(context.Context) (any, error)) error {
	value, err := load(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
