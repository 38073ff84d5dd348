package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	cachePrefix      = "cache:"
	generationPrefix = "cache_gen:"
)

var ErrCacheMiss = errors.New("cache miss")

type CacheRepo struct {
	client *goredis.Client
}

func NewCacheRepo(client *goredis.Client) *CacheRepo {
	return &CacheRepo{client: client}
}

// Generation returns the current generation of a namespace; keys built from an old
// generation are never read again and expire on their own.
func (r *CacheRepo) Generation(ctx context.Context, namespace string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	gen, err := r.client.Get(ctx, generationPrefix+namespace).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	return gen, nil
}

func (r *CacheRepo) BumpGeneration(ctx context.Context, namespace string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	gen, err := r.client.Incr(ctx, generationPrefix+namespace).Result()
	if err != nil {
		return 0, fmt.Errorf("bump cache generation: %w", err)
	}
	return gen, nil
}

// Key builds a generation-scoped cache key.
func (r *CacheRepo) Key(ctx context.Context, namespace, suffix string) (string, error) {
	gen, err := r.Generation(ctx, namespace)
	if err != nil {
		return "", err
	}
	return cachePrefix + namespace + ":" + strconv.FormatInt(gen, 10) + ":" + suffix, nil
}

func (r *CacheRepo) GetJSON(ctx context.Context, key string, dst any) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("get cache key: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode cache value: %w", err)
	}
	return nil
}

func (r *CacheRepo) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set cache key: %w", err)
	}
	return nil
}

func (r *CacheRepo) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get cache key: %w", err)
	}
	return raw, nil
}

func (r *CacheRepo) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set cache key: %w", err)
	}
	return nil
}

func (r *CacheRepo) Delete(ctx context.Context, keys ...string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	return nil
}
