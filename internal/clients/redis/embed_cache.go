package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/copyforge/copyforge-backend/internal/logger"
)

// EmbedCache caches query embeddings so repeated retrieval queries for the
// same persona/vertical combination skip the embedding API. Cache failures
// are invisible to callers: Get misses on error, Put drops on error.
type EmbedCache interface {
	Get(ctx context.Context, text string) ([]float32, bool)
	Put(ctx context.Context, text string, vector []float32)
	Close() error
}

type embedCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewEmbedCache(log *logger.Logger) (EmbedCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 24 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("EMBED_CACHE_TTL_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			ttl = time.Duration(parsed) * time.Second
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &embedCache{
		log:    log.With("service", "RedisEmbedCache"),
		rdb:    rdb,
		prefix: "embed:",
		ttl:    ttl,
	}, nil
}

func (c *embedCache) Get(ctx context.Context, text string) ([]float32, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key(text)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("embed cache get failed", "error", err)
		}
		return nil, false
	}
	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		c.log.Warn("embed cache decode failed", "error", err)
		return nil, false
	}
	if len(vector) == 0 {
		return nil, false
	}
	return vector, true
}

func (c *embedCache) Put(ctx context.Context, text string, vector []float32) {
	if c == nil || c.rdb == nil || len(vector) == 0 {
		return
	}
	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(text), raw, c.ttl).Err(); err != nil {
		c.log.Warn("embed cache put failed", "error", err)
	}
}

func (c *embedCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *embedCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

// NopEmbedCache is used when REDIS_ADDR is unset: every Get misses and every
// Put is dropped, so the pipeline still works without Redis.
type NopEmbedCache struct{}

func (NopEmbedCache) Get(ctx context.Context, text string) ([]float32, bool) { return nil, false }
func (NopEmbedCache) Put(ctx context.Context, text string, vector []float32) {}
func (NopEmbedCache) Close() error                                           { return nil }
