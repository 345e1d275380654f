// internal/cache/catalog_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/javajoker/plugin-marketplace/internal/models"
)

const (
	DefaultFeaturedTTL = 5 * time.Minute

	featuredKey = "catalog:featured"
)

// ErrCacheMiss is returned when the requested entry is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CatalogCache stores derived catalog views. Entries are dropped on every
// plugin mutation, so the TTL only bounds staleness after a failed delete.
type CatalogCache struct {
	client *RedisClient
	ttl    time.Duration
}

func NewCatalogCache(r *RedisClient, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultFeaturedTTL
	}
	return &CatalogCache{client: r, ttl: ttl}
}

func (c *CatalogCache) GetFeatured(ctx context.Context) ([]models.Plugin, error) {
	raw, err := c.client.Client().Get(ctx, featuredKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get featured: %w", err)
	}

	var plugins []models.Plugin
	if err := json.Unmarshal(raw, &plugins); err != nil {
		return nil, fmt.Errorf("cache decode featured: %w", err)
	}
	return plugins, nil
}

func (c *CatalogCache) SetFeatured(ctx context.Context, plugins []models.Plugin) error {
	raw, err := json.Marshal(plugins)
	if err != nil {
		return fmt.Errorf("cache encode featured: %w", err)
	}
	if err := c.client.Client().Set(ctx, featuredKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set featured: %w", err)
	}
	return nil
}

// Invalidate drops every derived catalog view.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Client().Del(ctx, featuredKey).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
