// Package cache provides the Redis-backed translation result cache and the
// deterministic key derivation for cached operations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentbase/nl2sql/src/models"
)

// maxValueBytes caps a single cached entry. A translation result is a few
// kilobytes at most; anything bigger indicates a bug upstream.
const maxValueBytes = 10 << 20

// ResultCache stores completed TranslationResults in Redis. All operations
// are best-effort: failures degrade to cache-miss behavior unless strict
// mode is enabled, in which case connection failures escalate.
type ResultCache struct {
	client *redis.Client
	strict bool
}

func NewResultCache(client *redis.Client, strict bool) *ResultCache {
	return &ResultCache{client: client, strict: strict}
}

// Get returns the cached result for key, or nil on a miss. Transport errors
// are logged and reported as a miss unless strict mode is on.
func (c *ResultCache) Get(ctx context.Context, key string) (*models.TranslationResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		if c.strict {
			return nil, &models.CacheError{Message: "lecture du cache impossible", Operation: "get", Err: err}
		}
		log.Printf("⚠ Cache: lecture échouée, traité comme absence (%v)", err)
		return nil, nil
	}

	var result models.TranslationResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		c.client.Del(ctx, key)
		return nil, nil
	}
	return &result, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, result *models.TranslationResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return &models.CacheError{Message: "sérialisation du résultat impossible", Operation: "set", Err: err}
	}
	if len(data) > maxValueBytes {
		return &models.CacheError{Message: "résultat trop volumineux pour le cache", Operation: "set"}
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		if c.strict {
			return &models.CacheError{Message: "écriture dans le cache impossible", Operation: "set", Err: err}
		}
		log.Printf("⚠ Cache: écriture échouée, résultat non mis en cache (%v)", err)
	}
	return nil
}

// Invalidate deletes every key matching pattern and returns the count.
func (c *ResultCache) Invalidate(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		return 0, &models.ValidationError{Message: "motif d'invalidation vide", Field: "pattern"}
	}

	deleted := 0
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err == nil {
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, &models.CacheError{Message: "invalidation du cache incomplète", Operation: "invalidate", Err: err}
	}
	return deleted, nil
}

// Stats reports entry count and connectivity for the health endpoint.
func (c *ResultCache) Stats(ctx context.Context) map[string]any {
	out := map[string]any{}
	if err := c.client.Ping(ctx).Err(); err != nil {
		out["status"] = "unhealthy"
		out["error"] = err.Error()
		return out
	}
	count := 0
	iter := c.client.Scan(ctx, 0, translationPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	out["status"] = "healthy"
	out["entries"] = count
	return out
}

func (c *ResultCache) Close() error {
	return c.client.Close()
}
