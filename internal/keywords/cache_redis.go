package keywords

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "jobscout:keywords:"

// RedisCache is a KeywordCache backed by Redis string keys with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache parses redisURL, verifies connectivity, and returns a cache
// whose entries expire after ttl.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return redisKeyPrefix + hex.EncodeToString(sum[:])
}

// GetMany fetches every text's entry with a single MGET.
func (c *RedisCache) GetMany(ctx context.Context, texts []string) ([][]string, []bool, error) {
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cacheKey(t)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make([][]string, len(texts))
	hit := make([]bool, len(texts))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var kw []string
		if err := json.Unmarshal([]byte(s), &kw); err != nil {
			continue
		}
		if kw == nil {
			kw = []string{}
		}
		out[i] = kw
		hit[i] = true
	}
	return out, hit, nil
}

// PutMany stores all entries in one pipeline.
func (c *RedisCache) PutMany(ctx context.Context, texts []string, keywords [][]string) error {
	pipe := c.rdb.Pipeline()
	for i, t := range texts {
		payload, err := json.Marshal(keywords[i])
		if err != nil {
			return fmt.Errorf("marshal keywords: %w", err)
		}
		pipe.Set(ctx, cacheKey(t), payload, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
