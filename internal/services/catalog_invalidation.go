// internal/services/catalog_invalidation.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/plugin-marketplace/internal/models"
)

// CatalogCache holds derived catalog views. A nil CatalogCache disables
// caching.
type CatalogCache interface {
	GetFeatured(ctx context.Context) ([]models.Plugin, error)
	SetFeatured(ctx context.Context, plugins []models.Plugin) error
	Invalidate(ctx context.Context) error
}

// invalidateCatalog drops cached catalog views after a committed mutation.
// A failed delete leaves the entry to expire on its TTL.
func invalidateCatalog(ctx context.Context, cache CatalogCache, pluginID uuid.UUID) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logrus.WithError(err).WithField("plugin_id", pluginID).Warn("Failed to invalidate catalog cache")
	}
}
