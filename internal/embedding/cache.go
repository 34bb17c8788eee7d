package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedClient decorates a Client with a Redis cache keyed by model and text
// hash. Cache failures are logged and fall through to the inner client; the
// cache never fails an embedding call on its own.
type CachedClient struct {
	inner  Client
	redis  *redis.Client
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedClient wraps inner with a Redis-backed cache.
func NewCachedClient(inner Client, rdb *redis.Client, model string, ttl time.Duration, logger *slog.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedClient{
		inner:  inner,
		redis:  rdb,
		model:  model,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	cached, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var vec []float32
		if err := json.Unmarshal(cached, &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
		c.logger.Warn("discarding undecodable cached embedding", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("embedding cache read failed", "error", err)
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(vec); err == nil {
		if err := c.redis.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("embedding cache write failed", "error", err)
		}
	}
	return vec, nil
}

func (c *CachedClient) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + c.model + ":" + hex.EncodeToString(sum[:])
}
