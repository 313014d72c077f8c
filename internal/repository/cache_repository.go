package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

const (
	cacheKeyPrefix  = "uniroom:"
	unlinkBatchSize = 100
)

// CacheRepository stores JSON payloads in Redis under the service namespace.
// Callers pass bare keys such as "catalog:rooms:all".
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository. A nil client turns every
// read into a miss and every write into a no-op.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get decodes the entry at key into dest. Missing and undecodable entries
// both report appErrors.ErrCacheMiss; the latter are evicted.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	full := cacheKeyPrefix + key

	raw, err := r.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return appErrors.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", full, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		r.logger.Warn("evicting undecodable cache entry", zap.String("key", full), zap.Error(err))
		_ = r.client.Unlink(ctx, full).Err()
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set stores value as JSON. A zero ttl keeps the entry until invalidated.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	full := cacheKeyPrefix + key

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", full, err)
	}
	if err := r.client.Set(ctx, full, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", full, err)
	}
	return nil
}

// DeleteByPattern unlinks every entry whose bare key matches pattern. The
// scan completes before anything is unlinked, then keys go out in batches.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}
	full := cacheKeyPrefix + pattern

	var keys []string
	iter := r.client.Scan(ctx, 0, full, unlinkBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", full, err)
	}

	for start := 0; start < len(keys); start += unlinkBatchSize {
		end := start + unlinkBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := r.client.Unlink(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("redis unlink %s: %w", full, err)
		}
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}
