package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/plugin-marketplace/internal/config"
	"github.com/javajoker/plugin-marketplace/internal/models"
)

func setupCatalogCache(t *testing.T) (*CatalogCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	host, port, _ := strings.Cut(mr.Addr(), ":")

	client, err := NewRedisClient(config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewCatalogCache(client, time.Minute), mr
}

func TestCatalogCacheMiss(t *testing.T) {
	c, _ := setupCatalogCache(t)

	_, err := c.GetFeatured(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCatalogCacheRoundTrip(t *testing.T) {
	c, mr := setupCatalogCache(t)
	ctx := context.Background()

	plugins := []models.Plugin{
		{Name: "WorldEdit", Version: "7.2.0", Price: 4.99, AverageRating: 4.5, ArtifactKey: "plugins/secret.jar"},
		{Name: "Essentials", Version: "2.20", Category: models.CategoryUtility},
	}
	require.NoError(t, c.SetFeatured(ctx, plugins))
	assert.True(t, mr.Exists(featuredKey))
	assert.Equal(t, time.Minute, mr.TTL(featuredKey))

	got, err := c.GetFeatured(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "WorldEdit", got[0].Name)
	assert.Equal(t, 4.5, got[0].AverageRating)
	assert.Equal(t, models.CategoryUtility, got[1].Category)
	// Artifact keys never leave the database.
	assert.Empty(t, got[0].ArtifactKey)
}

func TestCatalogCacheExpiryAndInvalidate(t *testing.T) {
	c, mr := setupCatalogCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetFeatured(ctx, []models.Plugin{{Name: "a"}}))
	mr.FastForward(2 * time.Minute)
	_, err := c.GetFeatured(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.SetFeatured(ctx, []models.Plugin{{Name: "b"}}))
	require.NoError(t, c.Invalidate(ctx))
	_, err = c.GetFeatured(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Invalidating an empty cache is fine.
	assert.NoError(t, c.Invalidate(ctx))
}

func TestCatalogCacheCorruptEntry(t *testing.T) {
	c, mr := setupCatalogCache(t)

	require.NoError(t, mr.Set(featuredKey, "not json"))
	_, err := c.GetFeatured(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestNewCatalogCacheDefaultsTTL(t *testing.T) {
	c := NewCatalogCache(nil, 0)
	assert.Equal(t, DefaultFeaturedTTL, c.ttl)
}
